package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a Circleup account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"` // human-chosen handle
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	Location    string `gorm:"type:text" json:"location"` // free text, City/Country

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`

	// Profile data
	AvatarURL  string `json:"avatar_url"`
	IsVerified bool   `gorm:"default:false" json:"is_verified"`
	IsAdmin    bool   `gorm:"default:false" json:"-"`

	// Cached social stats, follows/posts tables are the source of truth
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Follow is a directed edge in the social graph. Following a user does not
// imply reciprocity; the pair is unique.
type Follow struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID  string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	Follower    User   `gorm:"foreignKey:FollowerID" json:"-"`
	FollowingID string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"following_id"`
	Following   User   `gorm:"foreignKey:FollowingID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Post represents a text post authored by exactly one user
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Engagement counters cached from likes/comments tables
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Hashtag is a bare tag string shared across posts
type Hashtag struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"` // stored lowercase, no '#'
	PostCount int       `gorm:"default:0" json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostHashtag links posts to hashtags (many-to-many)
type PostHashtag struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"not null;index;uniqueIndex:idx_post_hashtags_pair" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID" json:"-"`
	HashtagID string    `gorm:"not null;index;uniqueIndex:idx_post_hashtags_pair" json:"hashtag_id"`
	Hashtag   Hashtag   `gorm:"foreignKey:HashtagID" json:"hashtag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the join table name explicit
func (PostHashtag) TableName() string {
	return "post_hashtags"
}

// Like marks that a user liked a post, unique per pair
type Like struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_likes_pair" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_likes_pair" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment on a Post
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// VerificationStatus represents the review state of a verification request
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// VerificationRequest is a user's request for the verified badge
type VerificationRequest struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Reason string             `gorm:"type:text" json:"reason"`
	Status VerificationStatus `gorm:"default:pending" json:"status"`

	// Admin who reviewed the request
	ReviewerID *string    `gorm:"index" json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SuggestionEventKind is how the user interacted with a suggestion
type SuggestionEventKind string

const (
	SuggestionShown     SuggestionEventKind = "shown"
	SuggestionFollowed  SuggestionEventKind = "followed"
	SuggestionDismissed SuggestionEventKind = "dismissed"
)

// SuggestionEvent is an append-only record of suggestion interactions,
// written by the presentation layer after the scorer returns
type SuggestionEvent struct {
	ID          string              `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string              `gorm:"not null;index" json:"user_id"`
	CandidateID string              `gorm:"not null;index" json:"candidate_id"`
	Kind        SuggestionEventKind `gorm:"not null" json:"kind"`
	CreatedAt   time.Time           `json:"created_at"`
}

// TableName for suggestion events
func (SuggestionEvent) TableName() string {
	return "suggestion_events"
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (h *Hashtag) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateUUID()
	}
	return nil
}

func (ph *PostHashtag) BeforeCreate(tx *gorm.DB) error {
	if ph.ID == "" {
		ph.ID = generateUUID()
	}
	return nil
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (v *VerificationRequest) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}

func (e *SuggestionEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
