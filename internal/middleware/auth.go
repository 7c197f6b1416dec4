package middleware

import (
	"strings"

	"memorial-ledger-backend/internal/auth"
	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"github.com/gin-gonic/gin"
)

// AuthGuard verifies the bearer token and puts the caller's principal on the
// context. Token issuance belongs to the auth service; here we only check the
// signature and extract {userId, email}.
func AuthGuard(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		parsedToken, err := auth.VerifyToken(secret, token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, email, err := auth.PrincipalFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", userID)
		ctx.Set("user_email", email)
		ctx.Next()
	}
}

// CurrentUser reads the principal the auth guard stored on the context.
func CurrentUser(c *gin.Context) domain.Principal {
	userID, _ := c.Get("user_id")
	email, _ := c.Get("user_email")

	p := domain.Principal{}
	if s, ok := userID.(string); ok {
		p.UserID = s
	}
	if s, ok := email.(string); ok {
		p.Email = s
	}
	return p
}
