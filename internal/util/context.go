package util

import (
	"net/http"

	"github.com/circleup/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// GetUserFromContext pulls the authenticated user the auth middleware stored
// under the "user" key. When no user is present it writes the 401 itself, so
// handlers only need the early return:
//
//	user, ok := util.GetUserFromContext(c)
//	if !ok {
//		return
//	}
//
// Handlers that only need the ID of an optional viewer read
// c.GetString("user_id") directly instead.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user data in context"})
		return nil, false
	}
	return user, true
}
