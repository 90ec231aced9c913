package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/models"
	"github.com/circleup/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// createPostRequest carries a new post's content and optional explicit tags
type createPostRequest struct {
	Content  string   `json:"content" binding:"required,min=1,max=5000"`
	Hashtags []string `json:"hashtags"`
}

// extractHashtags pulls #tag tokens out of post content
func extractHashtags(content string) []string {
	var tags []string
	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, "#") || len(word) < 2 {
			continue
		}
		tag := strings.TrimFunc(word[1:], func(r rune) bool {
			return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9' || r == '_')
		})
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// normalizeHashtags lowercases, strips leading '#' and dedupes tags
func normalizeHashtags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// CreatePost creates a post and links its hashtags
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post := models.Post{
		UserID:  user.ID,
		Content: req.Content,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "failed to create post")
		return
	}

	// Explicit tags plus #tags embedded in the content
	tags := normalizeHashtags(append(req.Hashtags, extractHashtags(req.Content)...))
	for _, name := range tags {
		var hashtag models.Hashtag
		err := database.DB.Where("name = ?", name).First(&hashtag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hashtag = models.Hashtag{Name: name}
			err = database.DB.Create(&hashtag).Error
		}
		if err != nil {
			util.RespondInternalError(c, "failed to link hashtag")
			return
		}

		link := models.PostHashtag{PostID: post.ID, HashtagID: hashtag.ID}
		if err := database.DB.Create(&link).Error; err != nil {
			util.RespondInternalError(c, "failed to link hashtag")
			return
		}
		database.DB.Model(&models.Hashtag{}).Where("id = ?", hashtag.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1"))
	}

	database.DB.Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("post_count", gorm.Expr("post_count + 1"))

	c.JSON(http.StatusCreated, gin.H{"post": post, "hashtags": tags})
}

// GetPost returns one post with its author
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	var post models.Post
	err := database.DB.Preload("User").First(&post, "id = ?", c.Param("id")).Error
	if err != nil {
		if util.HandleDBError(c, err, "post") {
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost soft-deletes the authenticated user's own post
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		if util.HandleDBError(c, err, "post") {
			return
		}
	}

	if post.UserID != user.ID {
		util.RespondForbidden(c, "you can only delete your own posts")
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		util.RespondInternalError(c, "failed to delete post")
		return
	}

	database.DB.Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("post_count", gorm.Expr("post_count - 1"))

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// LikePost records the authenticated user's like on a post
// POST /api/v1/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		if util.HandleDBError(c, err, "post") {
			return
		}
	}

	var existing models.Like
	err := database.DB.Where("user_id = ? AND post_id = ?", user.ID, post.ID).First(&existing).Error
	if err == nil {
		util.RespondConflict(c, "like")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "failed to check like state")
		return
	}

	like := models.Like{UserID: user.ID, PostID: post.ID}
	if err := database.DB.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "failed to like post")
		return
	}

	database.DB.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("like_count", gorm.Expr("like_count + 1"))

	c.JSON(http.StatusOK, gin.H{"liked": true, "post_id": post.ID})
}

// UnlikePost removes the authenticated user's like from a post
// DELETE /api/v1/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	postID := c.Param("id")
	result := database.DB.Where("user_id = ? AND post_id = ?", user.ID, postID).
		Delete(&models.Like{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to unlike post")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "like")
		return
	}

	database.DB.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("like_count", gorm.Expr("like_count - 1"))

	c.JSON(http.StatusOK, gin.H{"liked": false, "post_id": postID})
}

// createCommentRequest carries a new comment's content
type createCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// CreateComment adds a comment to a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		if util.HandleDBError(c, err, "post") {
			return
		}
	}

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  user.ID,
		Content: req.Content,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "failed to create comment")
		return
	}

	database.DB.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments lists a post's comments, oldest first
// GET /api/v1/posts/:id/comments?limit=50&offset=0
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	limit := util.ParseInt(c.DefaultQuery("limit", "50"), 50)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		if util.HandleDBError(c, err, "post") {
			return
		}
	}

	var comments []models.Comment
	result := database.DB.
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments)
	if result.Error != nil {
		util.RespondInternalError(c, "failed to list comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(comments),
		},
	})
}
