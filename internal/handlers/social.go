package handlers

import (
	"errors"
	"net/http"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/models"
	"github.com/circleup/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FollowUserByID creates a follow edge from the authenticated user to :id
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUserByID(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	targetID := c.Param("id")
	if targetID == user.ID {
		util.RespondBadRequest(c, "cannot follow yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		if util.HandleDBError(c, err, "user") {
			return
		}
	}

	// The pair is unique; report an existing edge as a conflict
	var existing models.Follow
	err := database.DB.Where("follower_id = ? AND following_id = ?", user.ID, target.ID).First(&existing).Error
	if err == nil {
		util.RespondConflict(c, "follow")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "failed to check follow state")
		return
	}

	follow := models.Follow{FollowerID: user.ID, FollowingID: target.ID}
	if err := database.DB.Create(&follow).Error; err != nil {
		util.RespondInternalError(c, "failed to follow user")
		return
	}

	// Cached counters; the follows table stays the source of truth
	database.DB.Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("following_count", gorm.Expr("following_count + 1"))
	database.DB.Model(&models.User{}).Where("id = ?", target.ID).
		UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))

	// The follow set changed, so cached suggestions are stale
	h.cache.InvalidateSuggestions(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, gin.H{
		"following":      true,
		"target_user_id": target.ID,
	})
}

// UnfollowUserByID removes the follow edge from the authenticated user to :id
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUserByID(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	targetID := c.Param("id")

	result := database.DB.Where("follower_id = ? AND following_id = ?", user.ID, targetID).
		Delete(&models.Follow{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to unfollow user")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "follow")
		return
	}

	database.DB.Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("following_count", gorm.Expr("following_count - 1"))
	database.DB.Model(&models.User{}).Where("id = ?", targetID).
		UpdateColumn("follower_count", gorm.Expr("follower_count - 1"))

	h.cache.InvalidateSuggestions(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, gin.H{
		"following":      false,
		"target_user_id": targetID,
	})
}
