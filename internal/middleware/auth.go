package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/auth"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

const ContextActor = "actor"

type AuthMiddleware struct {
	jwtService auth.JWTService
}

func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// Authenticate validates the bearer token and stores the caller on the
// request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == "" || token == header {
			abortWithError(c, apperrors.Unauthorized(nil))
			return
		}

		actor, err := m.jwtService.ValidateToken(token)
		if err != nil {
			abortWithError(c, apperrors.Unauthorized(err))
			return
		}

		c.Set(ContextActor, actor)
		c.Request = c.Request.WithContext(authz.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}
