package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medadmin-api/internal/metrics"
	"github.com/harentsoaR/medadmin-api/internal/session"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

const (
	CtxSession = "session"
	CtxGate    = "gate"
	CtxToken   = "session_token"
)

// TokenFromRequest reads the session token from the cookie, falling back to a
// bearer Authorization header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if tok, err := c.Cookie(cookieName); err == nil && tok != "" {
		return tok
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// RequireAdmin opens a session gate for the request and lets it through only
// for a resolved administrator. Unauthorized page requests go to /login,
// unauthorized API requests get 401. A gate still loading when timeout
// elapses yields 503 with no body. The gate stays open until the handler
// returns.
func RequireAdmin(gates *session.Factory, cookieName string, timeout time.Duration, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)

		start := time.Now()
		g := gates.Open(c.Request.Context(), token)
		defer g.Close()

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		st, _ := g.Wait(ctx)
		cancel()
		m.ObserveSessionResolve(start)

		decision := session.Decide(st)
		m.IncGateDecision(decision.String())

		switch decision {
		case session.Wait:
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		case session.Redirect:
			if isAPI(c) {
				utils.Fail(c, http.StatusUnauthorized, "Administrator session required", nil)
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(CtxSession, st)
		c.Set(CtxGate, g)
		c.Set(CtxToken, token)
		c.Next()
	}
}

// SessionFrom returns the state RequireAdmin resolved for this request.
func SessionFrom(c *gin.Context) session.State {
	st, _ := c.Get(CtxSession)
	s, _ := st.(session.State)
	return s
}

// GateFrom returns the request's open gate, or nil outside RequireAdmin.
func GateFrom(c *gin.Context) *session.Gate {
	g, _ := c.Get(CtxGate)
	gate, _ := g.(*session.Gate)
	return gate
}
