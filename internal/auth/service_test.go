package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/logger"
	"github.com/circleup/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *Service
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) SetupSuite() {
	logger.InitializeForTests()
	gin.SetMode(gin.TestMode)
}

func (suite *AuthServiceTestSuite) SetupTest() {
	name := strings.ReplaceAll(suite.T().Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.AutoMigrate(&models.User{}))

	suite.db = db
	database.DB = db
	suite.service = NewService([]byte("test-secret"))
}

func (suite *AuthServiceTestSuite) register(email, username string) *AuthResponse {
	resp, err := suite.service.Register(RegisterRequest{
		Email:       email,
		Username:    username,
		Password:    "password123",
		DisplayName: "Test User",
	})
	require.NoError(suite.T(), err)
	return resp
}

func (suite *AuthServiceTestSuite) TestRegisterCreatesUserAndToken() {
	resp := suite.register("alice@example.com", "alice")

	assert.NotEmpty(suite.T(), resp.Token)
	assert.Equal(suite.T(), "alice", resp.User.Username)
	assert.NotNil(suite.T(), resp.User.PasswordHash)
	assert.NotEqual(suite.T(), "password123", *resp.User.PasswordHash)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmailCaseInsensitive() {
	suite.register("alice@example.com", "alice")

	_, err := suite.service.Register(RegisterRequest{
		Email:       "ALICE@example.com",
		Username:    "alice2",
		Password:    "password123",
		DisplayName: "Alice Again",
	})
	assert.ErrorIs(suite.T(), err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateUsername() {
	suite.register("alice@example.com", "alice")

	_, err := suite.service.Register(RegisterRequest{
		Email:       "other@example.com",
		Username:    "Alice",
		Password:    "password123",
		DisplayName: "Impostor",
	})
	assert.ErrorIs(suite.T(), err, ErrUsernameExists)
}

func (suite *AuthServiceTestSuite) TestLoginRoundTrip() {
	suite.register("alice@example.com", "alice")

	resp, err := suite.service.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.Token)

	_, err = suite.service.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)

	_, err = suite.service.Login(LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestValidateTokenReturnsFreshUser() {
	resp := suite.register("alice@example.com", "alice")

	user, err := suite.service.ValidateToken(resp.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, user.ID)

	_, err = suite.service.ValidateToken("not-a-token")
	assert.Error(suite.T(), err)

	// A token signed with a different secret is rejected
	other := NewService([]byte("other-secret"))
	otherResp, err := other.GenerateTokenForUser(&resp.User)
	require.NoError(suite.T(), err)
	_, err = suite.service.ValidateToken(otherResp.Token)
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestMiddlewareGuardsRoutes() {
	resp := suite.register("alice@example.com", "alice")

	router := gin.New()
	router.GET("/protected", suite.service.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})

	// No header
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	// Garbage token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	// Valid token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	router.ServeHTTP(w, req)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), resp.User.ID)
}

func (suite *AuthServiceTestSuite) TestAdminMiddlewareRequiresAdmin() {
	resp := suite.register("alice@example.com", "alice")

	router := gin.New()
	router.GET("/admin", suite.service.Middleware(), suite.service.AdminMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	require.NoError(suite.T(), suite.db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).
		UpdateColumn("is_admin", true).Error)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}
