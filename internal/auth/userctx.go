package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atelier-ai/atelier-backend/internal/users"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxUserDBID    = "user_db_id"
)

// WithUser resolves the caller to a db user row. When no Firebase middleware
// ran upstream it falls back to the X-User-Id header, and to "demo-user" for
// local development.
func WithUser(userRepo *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := strings.TrimSpace(c.GetString(CtxFirebaseUID))
		if fuid == "" {
			fuid = strings.TrimSpace(c.GetHeader("X-User-Id"))
		}
		if fuid == "" {
			fuid = "demo-user"
		}

		uid, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: fuid,
			Email:       c.GetHeader("X-User-Email"),
			DisplayName: c.GetHeader("X-User-Name"),
			PhotoURL:    c.GetHeader("X-User-Photo"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxFirebaseUID, fuid)
		c.Set(CtxUserDBID, uid)
		c.Next()
	}
}

// UserDBID extracts the resolved db user id from the Gin context.
func UserDBID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserDBID))
}
