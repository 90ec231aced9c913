package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/logger"
	"github.com/circleup/backend/internal/models"
	"github.com/circleup/backend/internal/suggest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// HandlersTestSuite exercises the HTTP surface against an in-memory database
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) SetupSuite() {
	logger.InitializeForTests()
	gin.SetMode(gin.TestMode)
}

func (suite *HandlersTestSuite) SetupTest() {
	name := strings.ReplaceAll(suite.T().Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Hashtag{},
		&models.PostHashtag{},
		&models.Like{},
		&models.Comment{},
		&models.VerificationRequest{},
		&models.SuggestionEvent{},
	))

	suite.db = db
	database.DB = db
	suite.handlers = NewHandlers(suggest.NewScorer(db), nil)

	suite.router = gin.New()
	suite.setupRoutes()
}

// setupRoutes wires handlers behind a header-based auth stand-in
func (suite *HandlersTestSuite) setupRoutes() {
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			c.Abort()
			return
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		c.Set("user", &user)
		c.Set("user_id", user.ID)
		c.Next()
	}

	api := suite.router.Group("/api/v1")
	api.Use(authMiddleware)
	{
		api.GET("/suggestions", suite.handlers.GetSuggestions)
		api.POST("/suggestions/events", suite.handlers.CreateSuggestionEvent)

		api.GET("/users/:id/profile", suite.handlers.GetUserProfile)
		api.POST("/users/:id/follow", suite.handlers.FollowUserByID)
		api.DELETE("/users/:id/follow", suite.handlers.UnfollowUserByID)

		api.POST("/posts", suite.handlers.CreatePost)
		api.POST("/posts/:id/like", suite.handlers.LikePost)
		api.DELETE("/posts/:id/like", suite.handlers.UnlikePost)
		api.POST("/posts/:id/comments", suite.handlers.CreateComment)
		api.GET("/posts/:id/comments", suite.handlers.GetComments)

		api.POST("/verification/request", suite.handlers.RequestVerification)
		api.POST("/admin/verification/:id/approve", suite.handlers.ApproveVerification)
		api.POST("/admin/verification/:id/reject", suite.handlers.RejectVerification)
	}
}

func (suite *HandlersTestSuite) createUser(id, location string, verified bool) *models.User {
	user := &models.User{
		ID:          id,
		Email:       id + "@example.com",
		Username:    id,
		DisplayName: "User " + id,
		Location:    location,
		IsVerified:  verified,
	}
	require.NoError(suite.T(), suite.db.Create(user).Error)
	return user
}

func (suite *HandlersTestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (suite *HandlersTestSuite) TestSuggestionsRequireAuth() {
	w := suite.request(http.MethodGet, "/api/v1/suggestions", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Contains(suite.T(), suite.decode(w), "error")
}

func (suite *HandlersTestSuite) TestSuggestionsResponseShape() {
	requester := suite.createUser("req", "Lisbon, Portugal", false)
	suite.createUser("cand", "lisbon, portugal", true)

	w := suite.request(http.MethodGet, "/api/v1/suggestions", requester.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	body := suite.decode(w)
	suggestions, ok := body["suggestions"].([]interface{})
	require.True(suite.T(), ok)
	require.Len(suite.T(), suggestions, 1)

	entry := suggestions[0].(map[string]interface{})
	assert.Equal(suite.T(), "cand", entry["id"])
	assert.Equal(suite.T(), "User cand", entry["user_name"])
	assert.Equal(suite.T(), "cand", entry["user_handle"])
	assert.Equal(suite.T(), true, entry["is_verified"])
	assert.Equal(suite.T(), float64(15), entry["score"]) // location + verified
	assert.Equal(suite.T(), float64(0), entry["mutualConnections"])
	assert.Contains(suite.T(), entry, "avatar_url")
	assert.Contains(suite.T(), entry, "bio")
	assert.Contains(suite.T(), entry, "location")
}

func (suite *HandlersTestSuite) TestSuggestionsHonorLimitParam() {
	requester := suite.createUser("req", "", false)
	suite.createUser("cand-a", "", true)
	suite.createUser("cand-b", "", true)
	suite.createUser("cand-c", "", true)

	w := suite.request(http.MethodGet, "/api/v1/suggestions?limit=2", requester.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	body := suite.decode(w)
	assert.Len(suite.T(), body["suggestions"], 2)
}

func (suite *HandlersTestSuite) TestFollowingRemovesFromSuggestions() {
	requester := suite.createUser("req", "", false)
	candidate := suite.createUser("cand", "", true)

	w := suite.request(http.MethodGet, "/api/v1/suggestions", requester.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.Len(suite.T(), suite.decode(w)["suggestions"], 1)

	w = suite.request(http.MethodPost, "/api/v1/users/"+candidate.ID+"/follow", requester.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/suggestions", requester.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Empty(suite.T(), suite.decode(w)["suggestions"])
}

func (suite *HandlersTestSuite) TestFollowSelfRejected() {
	requester := suite.createUser("req", "", false)

	w := suite.request(http.MethodPost, "/api/v1/users/"+requester.ID+"/follow", requester.ID, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestDuplicateFollowConflicts() {
	requester := suite.createUser("req", "", false)
	target := suite.createUser("target", "", false)

	w := suite.request(http.MethodPost, "/api/v1/users/"+target.ID+"/follow", requester.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/users/"+target.ID+"/follow", requester.ID, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestUnfollowWithoutEdgeNotFound() {
	requester := suite.createUser("req", "", false)
	target := suite.createUser("target", "", false)

	w := suite.request(http.MethodDelete, "/api/v1/users/"+target.ID+"/follow", requester.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestFollowUpdatesCachedCounters() {
	requester := suite.createUser("req", "", false)
	target := suite.createUser("target", "", false)

	w := suite.request(http.MethodPost, "/api/v1/users/"+target.ID+"/follow", requester.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var refreshedTarget models.User
	require.NoError(suite.T(), suite.db.First(&refreshedTarget, "id = ?", target.ID).Error)
	assert.Equal(suite.T(), 1, refreshedTarget.FollowerCount)

	var refreshedRequester models.User
	require.NoError(suite.T(), suite.db.First(&refreshedRequester, "id = ?", requester.ID).Error)
	assert.Equal(suite.T(), 1, refreshedRequester.FollowingCount)
}

func (suite *HandlersTestSuite) TestCreatePostExtractsHashtags() {
	author := suite.createUser("author", "", false)

	w := suite.request(http.MethodPost, "/api/v1/posts", author.ID, gin.H{
		"content":  "shipping a new thing #golang today",
		"hashtags": []string{"#Backend", "backend"},
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := suite.decode(w)
	tags, ok := body["hashtags"].([]interface{})
	require.True(suite.T(), ok)
	assert.ElementsMatch(suite.T(), []interface{}{"backend", "golang"}, tags)

	var linkCount int64
	suite.db.Model(&models.PostHashtag{}).Count(&linkCount)
	assert.EqualValues(suite.T(), 2, linkCount)
}

func (suite *HandlersTestSuite) TestLikeLifecycle() {
	author := suite.createUser("author", "", false)
	liker := suite.createUser("liker", "", false)
	post := models.Post{UserID: author.ID, Content: "hello"}
	require.NoError(suite.T(), suite.db.Create(&post).Error)

	w := suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", liker.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", liker.ID, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = suite.request(http.MethodDelete, "/api/v1/posts/"+post.ID+"/like", liker.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodDelete, "/api/v1/posts/"+post.ID+"/like", liker.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestCommentsRoundTrip() {
	author := suite.createUser("author", "", false)
	commenter := suite.createUser("commenter", "", false)
	post := models.Post{UserID: author.ID, Content: "hello"}
	require.NoError(suite.T(), suite.db.Create(&post).Error)

	w := suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", commenter.ID, gin.H{
		"content": "great post",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var refreshed models.Post
	require.NoError(suite.T(), suite.db.First(&refreshed, "id = ?", post.ID).Error)
	assert.Equal(suite.T(), 1, refreshed.CommentCount)

	w = suite.request(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", commenter.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), suite.decode(w)["comments"], 1)
}

func (suite *HandlersTestSuite) TestSuggestionEventValidation() {
	requester := suite.createUser("req", "", false)
	candidate := suite.createUser("cand", "", false)

	w := suite.request(http.MethodPost, "/api/v1/suggestions/events", requester.ID, gin.H{
		"candidate_id": candidate.ID,
		"kind":         "clicked",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/suggestions/events", requester.ID, gin.H{
		"candidate_id": "missing",
		"kind":         "shown",
	})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/suggestions/events", requester.ID, gin.H{
		"candidate_id": candidate.ID,
		"kind":         "dismissed",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var count int64
	suite.db.Model(&models.SuggestionEvent{}).Count(&count)
	assert.EqualValues(suite.T(), 1, count)
}

func (suite *HandlersTestSuite) TestVerificationFlow() {
	user := suite.createUser("user", "", false)
	admin := suite.createUser("admin", "", false)

	w := suite.request(http.MethodPost, "/api/v1/verification/request", user.ID, gin.H{
		"reason": "I am a public figure",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	// A second pending request conflicts
	w = suite.request(http.MethodPost, "/api/v1/verification/request", user.ID, gin.H{
		"reason": "asking again",
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	var request models.VerificationRequest
	require.NoError(suite.T(), suite.db.First(&request, "user_id = ?", user.ID).Error)

	w = suite.request(http.MethodPost, "/api/v1/admin/verification/"+request.ID+"/approve", admin.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var refreshed models.User
	require.NoError(suite.T(), suite.db.First(&refreshed, "id = ?", user.ID).Error)
	assert.True(suite.T(), refreshed.IsVerified)

	// Reviewing the same request twice conflicts
	w = suite.request(http.MethodPost, "/api/v1/admin/verification/"+request.ID+"/reject", admin.ID, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestProfileReportsFollowState() {
	requester := suite.createUser("req", "", false)
	target := suite.createUser("target", "Berlin, Germany", true)
	require.NoError(suite.T(), suite.db.Create(&models.Follow{
		FollowerID:  requester.ID,
		FollowingID: target.ID,
	}).Error)

	w := suite.request(http.MethodGet, "/api/v1/users/"+target.ID+"/profile", requester.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	user := suite.decode(w)["user"].(map[string]interface{})
	assert.Equal(suite.T(), true, user["is_following"])
	assert.Equal(suite.T(), "Berlin, Germany", user["location"])
}
