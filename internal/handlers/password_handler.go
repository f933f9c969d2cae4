package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medadmin-api/internal/passwordpolicy"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

type EvaluatePasswordRequest struct {
	Password string `json:"password"`
}

type PasswordEvaluation struct {
	Requirements passwordpolicy.Requirements   `json:"requirements"`
	Validation   passwordpolicy.Validation     `json:"validation"`
	Strength     passwordpolicy.StrengthResult `json:"strength"`
}

// EvaluatePassword backs the live checklist on the reset form. An empty
// password is a valid request.
func (h *Handler) EvaluatePassword(c *gin.Context) {
	var req EvaluatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload", utils.ToDetails(err))
		return
	}

	utils.Success(c, http.StatusOK, PasswordEvaluation{
		Requirements: passwordpolicy.CheckRequirements(req.Password),
		Validation:   passwordpolicy.Validate(req.Password),
		Strength:     passwordpolicy.Strength(req.Password),
	}, "", nil)
}
