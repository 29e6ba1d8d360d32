package middlewares

import (
	"strings"

	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/adapters/primary/http/httperr"
	"github.com/admin/photo-apps/studio-api/internal/ports/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDKey ключ, под которым middleware кладёт id пользователя в контекст gin
	UserIDKey = "user_id"

	sessionCookieName = "session_id"
	bearerPrefix      = "Bearer "
)

// SessionAuth резолвит сессию из Authorization: Bearer или из cookie session_id.
// Без валидной сессии запрос до обработчика не доходит
func SessionAuth(sessions service.ISessionService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)

		userID, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			log.Debug("session resolution failed",
				"error", err,
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			httperr.Abort(c, err)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID достаёт id пользователя, положенный SessionAuth
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// extractToken ищет токен сначала в заголовке, затем в cookie
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		return cookie
	}
	return ""
}
