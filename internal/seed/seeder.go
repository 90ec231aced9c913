package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/circleup/backend/internal/logger"
	"github.com/circleup/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var seedTags = []string{
	"golang", "music", "travel", "coffee", "photography", "running",
	"cooking", "gamedev", "climbing", "books", "startups", "cycling",
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(100)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating follow graph...")
	if err := s.seedFollows(users, 600); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Creating posts with hashtags...")
	posts, err := s.seedPosts(users, 400)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating likes...")
	if err := s.seedLikes(users, posts, 1500); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(users, posts, 800); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating verification requests...")
	if err := s.seedVerification(users); err != nil {
		return fmt.Errorf("failed to seed verification requests: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small deterministic fixture set
func (s *Seeder) SeedTest() error {
	logger.Log.Info("Creating test users...")

	fixtures := []struct {
		email    string
		username string
		location string
		verified bool
	}{
		{"alice@example.com", "alice", "Lisbon, Portugal", true},
		{"bob@example.com", "bob", "lisbon, portugal", false},
		{"carol@example.com", "carol", "Berlin, Germany", false},
		{"dave@example.com", "dave", "", false},
	}

	users := make([]models.User, 0, len(fixtures))
	for _, f := range fixtures {
		hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashStr := string(hash)

		user := models.User{
			Email:        f.email,
			Username:     f.username,
			DisplayName:  strings.ToUpper(f.username[:1]) + f.username[1:],
			Location:     f.location,
			IsVerified:   f.verified,
			PasswordHash: &hashStr,
		}
		if err := s.db.Where("email = ?", f.email).FirstOrCreate(&user).Error; err != nil {
			return err
		}
		users = append(users, user)
	}

	// alice and bob both follow carol so they are mutual connections
	for _, followerIdx := range []int{0, 1} {
		follow := models.Follow{FollowerID: users[followerIdx].ID, FollowingID: users[2].ID}
		if err := s.db.Where("follower_id = ? AND following_id = ?", follow.FollowerID, follow.FollowingID).
			FirstOrCreate(&follow).Error; err != nil {
			return err
		}
	}

	logger.Log.Info("Test fixtures ready", zap.Int("users", len(users)))
	return nil
}

// Clean removes all seed data. Destructive, dev only.
func (s *Seeder) Clean() error {
	tables := []string{
		"suggestion_events", "verification_requests", "comments", "likes",
		"post_hashtags", "hashtags", "posts", "follows", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	logger.Log.Info("Seed data removed")
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		var users []models.User
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing seed users, skipping creation",
			zap.Int("total_users", len(users)))
		return users, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := fmt.Sprintf("%s@example.com", username)

		var existing models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).
				First(&existing).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = fmt.Sprintf("%s@example.com", username)
		}

		location := fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country())
		if rand.Intn(10) == 0 {
			location = "" // some profiles never fill it in
		}

		user := models.User{
			Email:        email,
			Username:     username,
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.HipsterSentence(),
			Location:     location,
			PasswordHash: &hashStr,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			IsVerified:   rand.Intn(10) == 0,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	logger.Log.Info("Users created", zap.Int("count", len(users)))
	return users, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		follower := users[rand.Intn(len(users))]
		target := users[rand.Intn(len(users))]
		if follower.ID == target.ID {
			continue
		}

		var existing models.Follow
		err := s.db.Where("follower_id = ? AND following_id = ?", follower.ID, target.ID).
			First(&existing).Error
		if err == nil {
			continue
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		follow := models.Follow{FollowerID: follower.ID, FollowingID: target.ID}
		if err := s.db.Create(&follow).Error; err != nil {
			return err
		}
		s.db.Model(&models.User{}).Where("id = ?", follower.ID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1"))
		s.db.Model(&models.User{}).Where("id = ?", target.ID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))
		created++
	}

	logger.Log.Info("Follows created", zap.Int("count", created))
	return nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	// Reuse or create the hashtag vocabulary up front
	hashtags := make([]models.Hashtag, 0, len(seedTags))
	for _, name := range seedTags {
		tag := models.Hashtag{Name: name}
		if err := s.db.Where("name = ?", name).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		hashtags = append(hashtags, tag)
	}

	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		post := models.Post{
			UserID:  author.ID,
			Content: gofakeit.HipsterSentence(),
			// Spread posts over the last month so some fall inside the
			// recent-activity window and some do not
			CreatedAt: time.Now().UTC().Add(-time.Duration(rand.Intn(30*24)) * time.Hour),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}

		tagCount := rand.Intn(3) // 0-2 tags per post
		used := make(map[string]bool, tagCount)
		for len(used) < tagCount {
			tag := hashtags[rand.Intn(len(hashtags))]
			if used[tag.ID] {
				continue
			}
			used[tag.ID] = true

			link := models.PostHashtag{PostID: post.ID, HashtagID: tag.ID}
			if err := s.db.Create(&link).Error; err != nil {
				return nil, err
			}
			s.db.Model(&models.Hashtag{}).Where("id = ?", tag.ID).
				UpdateColumn("post_count", gorm.Expr("post_count + 1"))
		}

		s.db.Model(&models.User{}).Where("id = ?", author.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1"))
		posts = append(posts, post)
	}

	logger.Log.Info("Posts created", zap.Int("count", len(posts)))
	return posts, nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	if len(posts) == 0 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		var existing models.Like
		err := s.db.Where("user_id = ? AND post_id = ?", user.ID, post.ID).
			First(&existing).Error
		if err == nil {
			continue
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		like := models.Like{UserID: user.ID, PostID: post.ID}
		if err := s.db.Create(&like).Error; err != nil {
			return err
		}
		s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))
		created++
	}

	logger.Log.Info("Likes created", zap.Int("count", created))
	return nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	if len(posts) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		comment := models.Comment{
			PostID:  post.ID,
			UserID:  user.ID,
			Content: gofakeit.HipsterSentence(),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))
	}

	logger.Log.Info("Comments created", zap.Int("count", count))
	return nil
}

func (s *Seeder) seedVerification(users []models.User) error {
	created := 0
	for _, user := range users {
		if user.IsVerified || rand.Intn(10) != 0 {
			continue
		}
		request := models.VerificationRequest{
			UserID: user.ID,
			Reason: gofakeit.Sentence(8),
			Status: models.VerificationPending,
		}
		if err := s.db.Create(&request).Error; err != nil {
			return err
		}
		created++
	}

	logger.Log.Info("Verification requests created", zap.Int("count", created))
	return nil
}
