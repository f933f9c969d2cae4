package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medadmin-api/internal/utils"
)

// WriteLocks tracks sessions with a mutation in flight.
type WriteLocks struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewWriteLocks() *WriteLocks {
	return &WriteLocks{inFlight: make(map[string]struct{})}
}

func (l *WriteLocks) acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inFlight[key]; busy {
		return false
	}
	l.inFlight[key] = struct{}{}
	return true
}

func (l *WriteLocks) release(key string) {
	l.mu.Lock()
	delete(l.inFlight, key)
	l.mu.Unlock()
}

// SerializeWrites rejects a mutation with 409 while another from the same
// session is still outstanding. It must run after RequireAdmin.
func SerializeWrites(locks *WriteLocks) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(CtxToken)
		if key == "" {
			c.Next()
			return
		}
		if !locks.acquire(key) {
			utils.Fail(c, http.StatusConflict, "Another change is still being saved", nil)
			return
		}
		defer locks.release(key)
		c.Next()
	}
}
