package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medadmin-api/internal/directory"
	"github.com/harentsoaR/medadmin-api/internal/middleware"
	"github.com/harentsoaR/medadmin-api/internal/services"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

// Action is a navigation target offered by a view.
type Action struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var dashboardActions = []Action{
	{Label: "Review pending doctors", Path: "/doctors-pending"},
	{Label: "Manage users", Path: "/users"},
}

type UsersQuery struct {
	directory.Criteria
	Page        int `form:"page"`
	RowsPerPage int `form:"rowsPerPage"`
}

func (h *Handler) Landing(c *gin.Context) {
	utils.Success(c, http.StatusOK, gin.H{
		"view":    "landing",
		"actions": []Action{{Label: "Administrator sign in", Path: "/login"}},
	}, "", nil)
}

func (h *Handler) LoginPage(c *gin.Context) {
	utils.Success(c, http.StatusOK, gin.H{
		"view":   "login",
		"submit": "/api/auth/login",
		"fields": []string{"email", "password"},
	}, "", nil)
}

// Dashboard shows the aggregate counters and quick links.
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.Accounts.Stats(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("load dashboard stats failed")
		utils.Fail(c, http.StatusInternalServerError, MsgLoadFailed, nil)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{
		"view":     "dashboard",
		"identity": middleware.SessionFrom(c).Identity,
		"stats":    stats,
		"actions":  dashboardActions,
	}, "", nil)
}

func (h *Handler) DoctorsPending(c *gin.Context) {
	accounts, err := h.Accounts.List(c.Request.Context(), services.ProjectionPendingDoctors)
	if err != nil {
		h.Logger.WithError(err).Error("load pending doctors failed")
		utils.Fail(c, http.StatusInternalServerError, MsgLoadFailed, nil)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{
		"view":   "doctors-pending",
		"items":  accounts,
		"stream": "/api/streams/" + string(services.ProjectionPendingDoctors),
	}, "", nil)
}

// Users lists every account, filtered by search and role, one page at a time.
func (h *Handler) Users(c *gin.Context) {
	var q UsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid query", utils.ToDetails(err))
		return
	}

	accounts, err := h.Accounts.List(c.Request.Context(), services.ProjectionAccounts)
	if err != nil {
		h.Logger.WithError(err).Error("load users failed")
		utils.Fail(c, http.StatusInternalServerError, MsgLoadFailed, nil)
		return
	}

	page := directory.Paginate(directory.Filter(accounts, q.Criteria), q.Page, q.RowsPerPage)
	utils.Success(c, http.StatusOK, gin.H{
		"view":               "users",
		"criteria":           q.Criteria,
		"page":               page,
		"rowsPerPageOptions": directory.RowsPerPageOptions,
		"stream":             "/api/streams/" + string(services.ProjectionAccounts),
	}, "", nil)
}
