package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

type ToggleVerifiedRequest struct {
	CurrentVerified *bool `json:"currentVerified" binding:"required"`
}

func (h *Handler) GetAccount(c *gin.Context) {
	acc, err := h.Accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failAccount(c, "get", err)
		return
	}
	utils.Success(c, http.StatusOK, acc, "", nil)
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload", utils.ToDetails(err))
		return
	}

	id := c.Param("id")
	if err := h.Accounts.UpdateProfile(c.Request.Context(), id, req); err != nil {
		h.failAccount(c, "update", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"id": id}, "Account updated", nil)
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	id := c.Param("id")
	if err := h.Accounts.Delete(c.Request.Context(), id); err != nil {
		h.failAccount(c, "delete", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"id": id}, "Account deleted", nil)
}

func (h *Handler) VerifyAccount(c *gin.Context) {
	id := c.Param("id")
	if err := h.Accounts.Verify(c.Request.Context(), id); err != nil {
		h.failAccount(c, "verify", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"id": id, "verified": true, "rejected": false}, "Doctor verified", nil)
}

func (h *Handler) RejectAccount(c *gin.Context) {
	id := c.Param("id")
	if err := h.Accounts.Reject(c.Request.Context(), id); err != nil {
		h.failAccount(c, "reject", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"id": id, "verified": false, "rejected": true}, "Doctor rejected", nil)
}

// ToggleVerified flips the verified flag from the value the caller last saw.
func (h *Handler) ToggleVerified(c *gin.Context) {
	var req ToggleVerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload", utils.ToDetails(err))
		return
	}

	id := c.Param("id")
	verified, err := h.Accounts.ToggleVerified(c.Request.Context(), id, *req.CurrentVerified)
	if err != nil {
		h.failAccount(c, "toggle_verified", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"id": id, "verified": verified}, "Verification updated", nil)
}

func (h *Handler) failAccount(c *gin.Context, action string, err error) {
	status, msg := accountError(err)
	if status == http.StatusInternalServerError {
		h.Logger.WithFields(logrus.Fields{
			"action":     action,
			"account_id": c.Param("id"),
			"request_id": c.GetString("request_id"),
		}).WithError(err).Error("account operation failed")
	}
	utils.Fail(c, status, msg, nil)
}
