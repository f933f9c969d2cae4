package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medadmin-api/internal/middleware"
)

// RegisterRoutes mounts every dashboard route on r. requireAdmin guards the
// protected group; mutations additionally go through locks.
func (h *Handler) RegisterRoutes(r *gin.Engine, requireAdmin gin.HandlerFunc, locks *middleware.WriteLocks) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Public views and auth ---
	r.GET("/", h.Landing)
	r.GET("/login", h.LoginPage)
	r.GET("/reset-password", h.ResetPasswordPage)

	public := r.Group("/api")
	{
		public.POST("/auth/login", h.Login)
		public.POST("/auth/reset-password", h.ResetPassword)
		public.POST("/auth/reset-password/request", h.RequestPasswordReset)
		public.POST("/password/evaluate", h.EvaluatePassword)
	}

	// --- Protected views ---
	views := r.Group("/", requireAdmin)
	{
		views.GET("/dashboard", h.Dashboard)
		views.GET("/doctors-pending", h.DoctorsPending)
		views.GET("/users", h.Users)
	}

	api := r.Group("/api", requireAdmin)
	{
		api.GET("/session", h.Session)
		api.GET("/session/stream", h.StreamSession)
		api.POST("/auth/logout", h.Logout)
		api.GET("/streams/:projection", h.StreamProjection)
		api.GET("/accounts/:id", h.GetAccount)
	}

	writes := api.Group("/accounts/:id", middleware.SerializeWrites(locks))
	{
		writes.PATCH("", h.UpdateAccount)
		writes.DELETE("", h.DeleteAccount)
		writes.POST("/verify", h.VerifyAccount)
		writes.POST("/reject", h.RejectAccount)
		writes.POST("/toggle-verified", h.ToggleVerified)
	}

	r.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})
}
