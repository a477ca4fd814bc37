package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextIsAdmin  = "is_admin"
)

// bearerToken reads the token from the Authorization header, falling back to
// the token query parameter that browsers use for websocket upgrades.
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, ""
		}
		return "", "Authorization header required"
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", "Bearer token required"
	}
	return tokenString, ""
}

// AuthMiddleware accepts access tokens of users that are not suspended or
// banned according to sanctions. sanctions may be nil.
func AuthMiddleware(jwtSecret string, sanctions services.SanctionCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			utils.SendUnauthorized(c, problem)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			utils.SendUnauthorized(c, "Invalid token")
			c.Abort()
			return
		}
		if claims.Type != string(utils.AccessToken) {
			utils.SendUnauthorized(c, "Access token required")
			c.Abort()
			return
		}

		if sanctions != nil {
			sanction, err := sanctions.Check(c.Request.Context(), claims.UserID)
			if err != nil {
				// The store still enforces sanctions on login and refresh.
				logger.WithFields(logger.Fields{"user": claims.Username}).WithError(err).Warn("sanction check failed")
			} else if sanction != nil {
				message := "Account is banned"
				if sanction.Status == models.AccountSuspended {
					message = "Account is suspended"
				}
				utils.SendForbidden(c, message)
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsAdmin) {
			utils.SendForbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
