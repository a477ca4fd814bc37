package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/api/middleware"
)

// currentUser is the username of the authenticated caller.
func currentUser(c *gin.Context) string {
	return c.GetString(middleware.ContextUsername)
}
