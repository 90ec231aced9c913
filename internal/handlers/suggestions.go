package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/logger"
	"github.com/circleup/backend/internal/middleware"
	"github.com/circleup/backend/internal/models"
	"github.com/circleup/backend/internal/suggest"
	"github.com/circleup/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetSuggestions returns ranked "people you may know" suggestions
// GET /api/v1/suggestions?limit=10
func (h *Handlers) GetSuggestions(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit := util.ParsePositiveInt(c.DefaultQuery("limit", "10"), suggest.DefaultLimit)

	// Short-lived response cache; nil-safe when Redis is unconfigured
	if body := h.cache.GetSuggestions(c.Request.Context(), user.ID, limit); body != "" {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(body))
		return
	}

	suggestions, err := h.scorer.Suggest(c.Request.Context(), user, limit)
	if err != nil {
		logger.ErrorWithFields("Suggestion scoring failed", err)
		util.RespondInternalError(c, "failed to compute suggestions")
		return
	}

	middleware.RecordSuggestionRequest(len(suggestions))

	body, err := json.Marshal(gin.H{"suggestions": suggestions})
	if err != nil {
		util.RespondInternalError(c, "failed to encode suggestions")
		return
	}

	h.cache.SetSuggestions(c.Request.Context(), user.ID, limit, string(body))
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// suggestionEventRequest is the interaction-log payload
type suggestionEventRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
	Kind        string `json:"kind" binding:"required"`
}

// CreateSuggestionEvent appends one suggestion interaction to the log.
// Invoked by the presentation layer after it has shown or acted on a
// suggestion; the scorer itself never writes here.
// POST /api/v1/suggestions/events
func (h *Handlers) CreateSuggestionEvent(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req suggestionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	kind := models.SuggestionEventKind(req.Kind)
	switch kind {
	case models.SuggestionShown, models.SuggestionFollowed, models.SuggestionDismissed:
	default:
		util.RespondValidationError(c, "kind", "kind must be one of shown, followed, dismissed")
		return
	}

	var candidate models.User
	if err := database.DB.First(&candidate, "id = ?", req.CandidateID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.RespondNotFound(c, "candidate")
			return
		}
		util.RespondInternalError(c, "failed to look up candidate")
		return
	}

	event := models.SuggestionEvent{
		UserID:      user.ID,
		CandidateID: candidate.ID,
		Kind:        kind,
	}
	if err := database.DB.Create(&event).Error; err != nil {
		util.RespondInternalError(c, "failed to record suggestion event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "recorded", "id": event.ID})
}
