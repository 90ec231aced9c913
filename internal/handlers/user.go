package handlers

import (
	"net/http"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/models"
	"github.com/circleup/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// publicProfile is the user shape exposed to other users
func publicProfile(user *models.User, isFollowing bool) gin.H {
	return gin.H{
		"id":              user.ID,
		"username":        user.Username,
		"display_name":    user.DisplayName,
		"avatar_url":      user.AvatarURL,
		"bio":             user.Bio,
		"location":        user.Location,
		"is_verified":     user.IsVerified,
		"follower_count":  user.FollowerCount,
		"following_count": user.FollowingCount,
		"post_count":      user.PostCount,
		"is_following":    isFollowing,
		"created_at":      user.CreatedAt,
	}
}

// isFollowing reports whether follower currently follows target
func isFollowing(followerID, targetID string) bool {
	if followerID == "" || followerID == targetID {
		return false
	}
	var n int64
	database.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, targetID).
		Count(&n)
	return n > 0
}

// GetUserProfile returns another user's public profile
// GET /api/v1/users/:id/profile
func (h *Handlers) GetUserProfile(c *gin.Context) {
	var target models.User
	if err := database.DB.First(&target, "id = ?", c.Param("id")).Error; err != nil {
		if util.HandleDBError(c, err, "user") {
			return
		}
	}

	currentUserID := c.GetString("user_id")
	c.JSON(http.StatusOK, gin.H{
		"user": publicProfile(&target, isFollowing(currentUserID, target.ID)),
	})
}

// updateProfileRequest carries editable profile fields
type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateMyProfile edits the authenticated user's profile
// PUT /api/v1/users/me
func (h *Handlers) UpdateMyProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		if *req.DisplayName == "" {
			util.RespondValidationError(c, "display_name", "display name cannot be empty")
			return
		}
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}

	if len(updates) > 0 {
		if err := database.DB.Model(user).Updates(updates).Error; err != nil {
			util.RespondInternalError(c, "failed to update profile")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUserFollowers lists accounts following :id
// GET /api/v1/users/:id/followers?limit=20&offset=0
func (h *Handlers) GetUserFollowers(c *gin.Context) {
	targetID := c.Param("id")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var followers []models.User
	result := database.DB.
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", targetID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&followers)
	if result.Error != nil {
		util.RespondInternalError(c, "failed to list followers")
		return
	}

	currentUserID := c.GetString("user_id")
	userResults := make([]gin.H, 0, len(followers))
	for _, u := range followers {
		userResults = append(userResults, publicProfile(&u, isFollowing(currentUserID, u.ID)))
	}

	c.JSON(http.StatusOK, gin.H{
		"users": userResults,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(userResults),
		},
	})
}

// GetUserFollowing lists accounts :id follows
// GET /api/v1/users/:id/following?limit=20&offset=0
func (h *Handlers) GetUserFollowing(c *gin.Context) {
	targetID := c.Param("id")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var following []models.User
	result := database.DB.
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", targetID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&following)
	if result.Error != nil {
		util.RespondInternalError(c, "failed to list following")
		return
	}

	currentUserID := c.GetString("user_id")
	userResults := make([]gin.H, 0, len(following))
	for _, u := range following {
		userResults = append(userResults, publicProfile(&u, isFollowing(currentUserID, u.ID)))
	}

	c.JSON(http.StatusOK, gin.H{
		"users": userResults,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(userResults),
		},
	})
}

// GetUserPosts lists a user's posts, newest first
// GET /api/v1/users/:id/posts?limit=20&offset=0
func (h *Handlers) GetUserPosts(c *gin.Context) {
	targetID := c.Param("id")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		if util.HandleDBError(c, err, "user") {
			return
		}
	}

	var posts []models.Post
	result := database.DB.
		Where("user_id = ?", targetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts)
	if result.Error != nil {
		util.RespondInternalError(c, "failed to list posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(posts),
		},
	})
}
