package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/medadmin-api/internal/middleware"
	"github.com/harentsoaR/medadmin-api/internal/passwordpolicy"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordRequest struct {
	OOBCode         string `json:"oobCode" binding:"required"`
	Password        string `json:"password" binding:"required,password_policy"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Login signs in through the credential store and sets the session cookie.
// Whether the account is an administrator is decided by the gate on the
// next protected request, not here.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload", utils.ToDetails(err))
		return
	}

	res, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := signInError(err)
		if status == http.StatusInternalServerError {
			h.Logger.WithError(err).Error("sign in failed")
		}
		utils.Fail(c, status, msg, nil)
		return
	}

	h.setSessionCookie(c, res.Token, time.Until(res.ExpiresAt))
	utils.Success(c, http.StatusOK, gin.H{
		"redirect": "/dashboard",
		"identity": res.Identity,
	}, "Signed in", nil)
}

// Logout ends the session through the request's gate. On failure the cookie
// is kept so the session stays usable.
func (h *Handler) Logout(c *gin.Context) {
	g := middleware.GateFrom(c)
	if g == nil {
		utils.Fail(c, http.StatusUnauthorized, "Administrator session required", nil)
		return
	}
	if err := g.Logout(c.Request.Context()); err != nil {
		h.Logger.WithError(err).Error("logout failed")
		utils.Fail(c, http.StatusInternalServerError, MsgLogoutFailed, nil)
		return
	}
	h.setSessionCookie(c, "", -1)
	utils.Success(c, http.StatusOK, gin.H{"redirect": "/login"}, "Signed out", nil)
}

// Session returns the resolved gate state for the current request.
func (h *Handler) Session(c *gin.Context) {
	utils.Success(c, http.StatusOK, middleware.SessionFrom(c), "", nil)
}

// ResetPasswordPage checks the reset code from the link. An unusable code
// gets a blocking message with one way out.
func (h *Handler) ResetPasswordPage(c *gin.Context) {
	code := c.Query("oobCode")
	if code == "" {
		utils.Fail(c, http.StatusBadRequest, MsgResetMissing, gin.H{"action": "/"})
		return
	}

	email, err := h.Auth.VerifyPasswordResetCode(c.Request.Context(), code)
	if err != nil {
		status, msg := resetError(err)
		if status == http.StatusInternalServerError {
			h.Logger.WithError(err).Error("verify reset code failed")
		}
		utils.Fail(c, status, msg, gin.H{"action": "/"})
		return
	}

	utils.Success(c, http.StatusOK, gin.H{
		"email":        email,
		"requirements": passwordpolicy.CheckRequirements(""),
	}, "", nil)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if utils.OnlyTagFailed(err, "password_policy") {
			utils.Fail(c, http.StatusUnprocessableEntity, "Password does not meet the requirements",
				passwordpolicy.Validate(req.Password).Errors)
			return
		}
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload", utils.ToDetails(err))
		return
	}

	if req.Password != req.ConfirmPassword {
		utils.Fail(c, http.StatusUnprocessableEntity, MsgPasswordMismatch, nil)
		return
	}

	if err := h.Auth.ConfirmPasswordReset(c.Request.Context(), req.OOBCode, req.Password); err != nil {
		status, msg := resetError(err)
		if status == http.StatusInternalServerError {
			h.Logger.WithError(err).Error("confirm password reset failed")
		}
		utils.Fail(c, status, msg, nil)
		return
	}

	utils.Success(c, http.StatusOK, gin.H{"redirect": "/login"}, "Password updated", nil)
}

// RequestPasswordReset always answers 202 so the response never reveals
// whether the address has an account.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload", utils.ToDetails(err))
		return
	}

	if err := h.Auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.Logger.WithFields(logrus.Fields{"request_id": c.GetString("request_id")}).
			WithError(err).Error("password reset request failed")
	}
	utils.Success[any](c, http.StatusAccepted, nil, MsgResetRequested, nil)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, token, maxAge, "/", h.Cookie.Domain, h.Cookie.Secure, true)
}
