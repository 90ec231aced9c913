package handlers

import (
	"github.com/circleup/backend/internal/cache"
	"github.com/circleup/backend/internal/suggest"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	scorer *suggest.Scorer
	cache  *cache.RedisClient
}

// NewHandlers creates a new handlers instance. The cache may be nil when
// Redis is not configured; suggestion responses are then always recomputed.
func NewHandlers(scorer *suggest.Scorer, redisCache *cache.RedisClient) *Handlers {
	return &Handlers{
		scorer: scorer,
		cache:  redisCache,
	}
}
