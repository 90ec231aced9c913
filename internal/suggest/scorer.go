package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/circleup/backend/internal/logger"
	"github.com/circleup/backend/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Scoring weights and per-component caps. Caps apply per component before
// summation, never to the running total.
const (
	DefaultLimit = 10

	mutualWeight = 10
	mutualCap    = 40

	secondDegreeBonus = 30

	hashtagWeight = 5
	hashtagCap    = 20

	likeWeight = 3
	likeCap    = 15

	commentWeight = 5
	commentCap    = 15

	locationBonus = 10
	verifiedBonus = 5

	recentWeight = 2
	recentCap    = 10

	recentWindow = 7 * 24 * time.Hour

	// Per-candidate scoring issues several store round trips; bound the
	// fan-out so a large pool doesn't overwhelm the database.
	defaultConcurrency = 8
)

// Suggestion is one ranked "people you may know" entry
type Suggestion struct {
	ID                string `json:"id"`
	UserName          string `json:"user_name"`
	UserHandle        string `json:"user_handle"`
	AvatarURL         string `json:"avatar_url"`
	Bio               string `json:"bio"`
	Location          string `json:"location"`
	IsVerified        bool   `json:"is_verified"`
	Score             int    `json:"score"`
	MutualConnections int    `json:"mutualConnections"`
}

// Scorer ranks candidate accounts for a requesting user. Stateless and
// request-scoped: every invocation reads its own view of the store.
type Scorer struct {
	db          *gorm.DB
	concurrency int
	now         func() time.Time
}

// NewScorer creates a scorer backed by the given database
func NewScorer(db *gorm.DB) *Scorer {
	return &Scorer{
		db:          db,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
}

// WithNow overrides the clock, used by tests to pin the recency window
func (s *Scorer) WithNow(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// WithConcurrency bounds the per-candidate scoring fan-out
func (s *Scorer) WithConcurrency(n int) *Scorer {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// tagLinkCount is one row of a user's hashtag-link profile
type tagLinkCount struct {
	HashtagID string
	Links     int
}

// Suggest returns at most limit candidates the requester does not already
// follow, ordered by descending score. Candidates scoring zero are dropped,
// so the result may be shorter than limit or empty. A non-positive limit
// falls back to DefaultLimit.
func (s *Scorer) Suggest(ctx context.Context, requester *models.User, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	// Follow set F: everyone the requester currently follows. This is the
	// exclusion list and the basis for mutual/second-degree scoring.
	var following []string
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", requester.ID).
		Pluck("following_id", &following).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load follow set: %w", err)
	}

	// Candidate pool: all users minus the requester and F, applied in the
	// query itself so excluded users are never scored. Primary-key order
	// keeps tie-breaking stable within one invocation.
	query := s.db.WithContext(ctx).Where("id <> ?", requester.ID)
	if len(following) > 0 {
		query = query.Where("id NOT IN ?", following)
	}

	var candidates []models.User
	if err := query.Order("id").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to load candidate pool: %w", err)
	}

	if len(candidates) == 0 {
		return []Suggestion{}, nil
	}

	// The requester's hashtag-link profile is fixed across candidates, so
	// compute it once up front. A failure here degrades the shared-hashtag
	// component to zero for every candidate rather than failing the request.
	tagProfile := s.hashtagProfile(ctx, requester.ID)

	windowStart := s.now().Add(-recentWindow)

	// Fan out one scoring task per candidate. Each task only writes its own
	// slot, so candidate order survives the concurrency.
	scored := make([]Suggestion, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			scored[i] = s.scoreCandidate(gctx, requester, candidate, following, tagProfile, windowStart)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Drop zero scores, then stable-sort descending so ties keep store
	// enumeration order.
	ranked := make([]Suggestion, 0, len(scored))
	for _, sg := range scored {
		if sg.Score > 0 {
			ranked = append(ranked, sg)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// scoreCandidate computes one candidate's weighted score. A failed
// sub-query contributes zero for its component instead of aborting the
// request; absence of rows and a failed read look the same to the ranking.
func (s *Scorer) scoreCandidate(ctx context.Context, requester *models.User, candidate models.User, following []string, tagProfile map[string]int, windowStart time.Time) Suggestion {
	score := 0

	// Mutual connections: users followed by the candidate who are also in F.
	// The raw count is reported separately from its capped contribution.
	mutuals := 0
	if len(following) > 0 {
		var n int64
		err := s.db.WithContext(ctx).
			Model(&models.Follow{}).
			Where("follower_id = ? AND following_id IN ?", candidate.ID, following).
			Count(&n).Error
		if err != nil {
			logger.Warn("mutual connection count failed, scoring component as zero",
				logger.WithUserID(requester.ID), logger.WithCandidateID(candidate.ID))
		} else {
			mutuals = int(n)
			score += capped(mutuals, mutualWeight, mutualCap)
		}
	}

	// Second-degree reach: flat bonus when anyone in F follows the candidate.
	if len(following) > 0 {
		var n int64
		err := s.db.WithContext(ctx).
			Model(&models.Follow{}).
			Where("follower_id IN ? AND following_id = ?", following, candidate.ID).
			Count(&n).Error
		if err != nil {
			logger.Warn("second-degree reach check failed, scoring component as zero",
				logger.WithUserID(requester.ID), logger.WithCandidateID(candidate.ID))
		} else if n > 0 {
			score += secondDegreeBonus
		}
	}

	// Shared hashtags: pairwise post co-occurrences, not distinct tags. For
	// each tag the pair count is requesterLinks * candidateLinks.
	if len(tagProfile) > 0 {
		candTags, err := s.hashtagLinks(ctx, candidate.ID)
		if err != nil {
			logger.Warn("candidate hashtag profile failed, scoring component as zero",
				logger.WithUserID(requester.ID), logger.WithCandidateID(candidate.ID))
		} else {
			pairs := 0
			for _, row := range candTags {
				pairs += tagProfile[row.HashtagID] * row.Links
			}
			score += capped(pairs, hashtagWeight, hashtagCap)
		}
	}

	// Prior likes given by the requester on the candidate's posts.
	{
		var n int64
		err := s.db.WithContext(ctx).
			Model(&models.Like{}).
			Joins("JOIN posts ON posts.id = likes.post_id").
			Where("likes.user_id = ? AND posts.user_id = ? AND posts.deleted_at IS NULL", requester.ID, candidate.ID).
			Count(&n).Error
		if err != nil {
			logger.Warn("prior like count failed, scoring component as zero",
				logger.WithUserID(requester.ID), logger.WithCandidateID(candidate.ID))
		} else {
			score += capped(int(n), likeWeight, likeCap)
		}
	}

	// Prior comments given by the requester on the candidate's posts.
	{
		var n int64
		err := s.db.WithContext(ctx).
			Model(&models.Comment{}).
			Joins("JOIN posts ON posts.id = comments.post_id").
			Where("comments.user_id = ? AND posts.user_id = ? AND posts.deleted_at IS NULL", requester.ID, candidate.ID).
			Count(&n).Error
		if err != nil {
			logger.Warn("prior comment count failed, scoring component as zero",
				logger.WithUserID(requester.ID), logger.WithCandidateID(candidate.ID))
		} else {
			score += capped(int(n), commentWeight, commentCap)
		}
	}

	// Shared location: both non-empty and equal, case-insensitive.
	if requester.Location != "" && candidate.Location != "" &&
		strings.EqualFold(requester.Location, candidate.Location) {
		score += locationBonus
	}

	if candidate.IsVerified {
		score += verifiedBonus
	}

	// Recent activity: candidate posts inside the trailing window,
	// inclusive lower bound.
	{
		var n int64
		err := s.db.WithContext(ctx).
			Model(&models.Post{}).
			Where("user_id = ? AND created_at >= ?", candidate.ID, windowStart).
			Count(&n).Error
		if err != nil {
			logger.Warn("recent activity count failed, scoring component as zero",
				logger.WithUserID(requester.ID), logger.WithCandidateID(candidate.ID))
		} else {
			score += capped(int(n), recentWeight, recentCap)
		}
	}

	return Suggestion{
		ID:                candidate.ID,
		UserName:          candidate.DisplayName,
		UserHandle:        candidate.Username,
		AvatarURL:         candidate.AvatarURL,
		Bio:               candidate.Bio,
		Location:          candidate.Location,
		IsVerified:        candidate.IsVerified,
		Score:             score,
		MutualConnections: mutuals,
	}
}

// hashtagProfile returns the requester's hashtag-link counts, or an empty
// map when the query fails or the requester has no hashtagged posts.
func (s *Scorer) hashtagProfile(ctx context.Context, userID string) map[string]int {
	rows, err := s.hashtagLinks(ctx, userID)
	if err != nil {
		logger.Warn("requester hashtag profile failed, scoring component as zero",
			logger.WithUserID(userID))
		return map[string]int{}
	}
	profile := make(map[string]int, len(rows))
	for _, row := range rows {
		profile[row.HashtagID] = row.Links
	}
	return profile
}

// hashtagLinks counts a user's hashtag-link rows grouped by hashtag
func (s *Scorer) hashtagLinks(ctx context.Context, userID string) ([]tagLinkCount, error) {
	var rows []tagLinkCount
	err := s.db.WithContext(ctx).
		Model(&models.PostHashtag{}).
		Select("post_hashtags.hashtag_id AS hashtag_id, COUNT(*) AS links").
		Joins("JOIN posts ON posts.id = post_hashtags.post_id").
		Where("posts.user_id = ? AND posts.deleted_at IS NULL", userID).
		Group("post_hashtags.hashtag_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// capped multiplies count by weight and clamps to the component cap
func capped(count, weight, ceiling int) int {
	score := count * weight
	if score > ceiling {
		return ceiling
	}
	return score
}
