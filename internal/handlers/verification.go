package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/models"
	"github.com/circleup/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// verificationRequestPayload carries the user's reason for requesting a badge
type verificationRequestPayload struct {
	Reason string `json:"reason" binding:"required,min=1,max=2000"`
}

// RequestVerification opens a verification request for the authenticated user
// POST /api/v1/verification/request
func (h *Handlers) RequestVerification(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if user.IsVerified {
		util.RespondConflict(c, "verification")
		return
	}

	var req verificationRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	// One pending request per user at a time
	var pending models.VerificationRequest
	err := database.DB.Where("user_id = ? AND status = ?", user.ID, models.VerificationPending).
		First(&pending).Error
	if err == nil {
		util.RespondConflict(c, "verification request")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "failed to check verification state")
		return
	}

	request := models.VerificationRequest{
		UserID: user.ID,
		Reason: req.Reason,
		Status: models.VerificationPending,
	}
	if err := database.DB.Create(&request).Error; err != nil {
		util.RespondInternalError(c, "failed to create verification request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// ListVerificationRequests lists verification requests, admin only
// GET /api/v1/admin/verification?status=pending&limit=50&offset=0
func (h *Handlers) ListVerificationRequests(c *gin.Context) {
	limit := util.ParseInt(c.DefaultQuery("limit", "50"), 50)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	query := database.DB.Preload("User").Order("created_at ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.VerificationRequest
	if err := query.Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		util.RespondInternalError(c, "failed to list verification requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(requests),
		},
	})
}

// ApproveVerification approves a pending request and marks the user verified,
// admin only
// POST /api/v1/admin/verification/:id/approve
func (h *Handlers) ApproveVerification(c *gin.Context) {
	h.reviewVerification(c, models.VerificationApproved)
}

// RejectVerification rejects a pending request, admin only
// POST /api/v1/admin/verification/:id/reject
func (h *Handlers) RejectVerification(c *gin.Context) {
	h.reviewVerification(c, models.VerificationRejected)
}

func (h *Handlers) reviewVerification(c *gin.Context, outcome models.VerificationStatus) {
	reviewer, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var request models.VerificationRequest
	if err := database.DB.First(&request, "id = ?", c.Param("id")).Error; err != nil {
		if util.HandleDBError(c, err, "verification request") {
			return
		}
	}

	if request.Status != models.VerificationPending {
		util.RespondConflict(c, "verification review")
		return
	}

	now := time.Now().UTC()
	request.Status = outcome
	request.ReviewerID = &reviewer.ID
	request.ReviewedAt = &now
	if err := database.DB.Save(&request).Error; err != nil {
		util.RespondInternalError(c, "failed to update verification request")
		return
	}

	if outcome == models.VerificationApproved {
		if err := database.DB.Model(&models.User{}).Where("id = ?", request.UserID).
			UpdateColumn("is_verified", true).Error; err != nil {
			util.RespondInternalError(c, "failed to mark user verified")
			return
		}
		// The verified bonus feeds every other user's ranking, so the stale
		// entries cannot be keyed to one requester
		h.cache.InvalidateAllSuggestions(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}
