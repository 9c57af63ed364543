package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rongwang/finance-server/internal/api"
	"github.com/rongwang/finance-server/internal/auth"
	"github.com/rongwang/finance-server/internal/config"
	"github.com/rongwang/finance-server/internal/models"
	"github.com/rongwang/finance-server/internal/repository"
	"github.com/rongwang/finance-server/internal/service"
)

const (
	TestUserEmail    = "testuser@example.com"
	TestUserPassword = "testpassword"
	testJWTSecret    = "test-secret-key"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  repository.Repository
	Service     service.Service
	Tokens      *auth.TokenManager
	DB          *sqlx.DB
	TestUserID  int64
	TestUserJWT string
}

// SetupTestContext creates a new test context backed by a migrated SQLite
// database in a temporary directory.
func SetupTestContext(t *testing.T) *TestContext {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			SQLitePath:  filepath.Join(t.TempDir(), "api.db"),
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			JWTSecret:     testJWTSecret,
			TokenDuration: time.Hour,
			BcryptCost:    bcrypt.MinCost,
		},
	}

	logger := zap.NewNop()

	// Set up database
	db, err := config.SetupDatabase(cfg, logger)
	require.NoError(t, err, "Failed to set up test database")

	repo, err := repository.NewSQLRepository(db, logger)
	require.NoError(t, err)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	svc := service.NewDefaultService(repo, tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost), logger)

	gin.SetMode(gin.TestMode)
	router := api.NewRouter(api.NewHandler(svc, logger))

	testCtx := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Tokens:     tokens,
		DB:         db,
	}
	testCtx.TestUserID, testCtx.TestUserJWT = testCtx.CreateUser(t, TestUserEmail, TestUserPassword)
	return testCtx
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(t *TestContext) {
	if t.DB != nil {
		t.DB.Close()
	}
}

// CreateUser registers a user through the service and returns its id and token.
func (tc *TestContext) CreateUser(t *testing.T, email, password string) (int64, string) {
	resp, err := tc.Service.Register(context.Background(), models.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Test User",
	})
	require.NoError(t, err, "Failed to create test user")
	return resp.User.ID, resp.Token
}

// CreateCategory creates a category over HTTP and returns its id.
func (tc *TestContext) CreateCategory(t *testing.T, token, name, typ string) int64 {
	w := PerformRequest(tc.Router, http.MethodPost, "/categories",
		map[string]string{"name": name, "type": typ}, AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

// CreateRecord posts an income or expense and returns the stored record.
func (tc *TestContext) CreateRecord(t *testing.T, token, path string, categoryID int64, amount interface{}, date string) models.MoneyRecord {
	w := PerformRequest(tc.Router, http.MethodPost, path, map[string]interface{}{
		"categoryId": categoryID,
		"amount":     amount,
		"date":       date,
	}, AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data models.MoneyRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeError reads the standard error body
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}
