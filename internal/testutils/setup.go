package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kyz7/reviewhub/internal/auth"
	"github.com/Kyz7/reviewhub/internal/config"
	"github.com/Kyz7/reviewhub/internal/database"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/permission"
	"github.com/Kyz7/reviewhub/internal/server"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestSecret = "reviewhub_test_secret_key_at_least_32_chars"

// TestDB opens a private in-memory database. A single connection keeps every
// query on the same in-memory instance.
func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db), "Failed to migrate test database")
	return db
}

func TestConfig() *config.Config {
	return &config.Config{
		JWTSecret:         TestSecret,
		RecomputeAttempts: 5,
		ConflictRetries:   3,
	}
}

type TestApp struct {
	App    *fiber.App
	DB     *gorm.DB
	Tokens *auth.Tokens
}

func SetupTestApp(t *testing.T) *TestApp {
	db := TestDB(t)
	app := server.New(server.Deps{
		DB:     db,
		Config: TestConfig(),
		Log:    zerolog.Nop(),
	})
	return &TestApp{App: app, DB: db, Tokens: auth.NewTokens(TestSecret, time.Hour)}
}

// Token issues an access token for u.
func (a *TestApp) Token(t *testing.T, u *models.User) string {
	token, err := a.Tokens.Issue(*u)
	require.NoError(t, err, "Failed to generate test token")
	return token
}

// CreateTestUser stores an active principal. Operators and sub-admins get
// their default permission tree.
func CreateTestUser(t *testing.T, db *gorm.DB, email, password string, role models.Role) *models.User {
	hashedPassword, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Name:     "Test User",
		Email:    email,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error, "Failed to create test user")

	if tree, ok := permission.DefaultTree(role); ok {
		require.NoError(t, permission.NewGormTreeStore(db).SaveTree(context.Background(), user.ID, user.ID, tree))
	}
	return user
}

func CreateTestCompany(t *testing.T, db *gorm.DB, operatorID uint, status models.CompanyStatus) *models.Company {
	company := &models.Company{
		Name:       "Acme Corp",
		Status:     status,
		OperatorID: operatorID,
	}
	require.NoError(t, db.Create(company).Error, "Failed to create test company")
	return company
}

func CreateTestReview(t *testing.T, db *gorm.DB, companyID, userID uint, rating int) *models.Review {
	review := &models.Review{CompanyID: companyID, UserID: userID, Rating: rating, Title: "Review"}
	require.NoError(t, db.Create(review).Error, "Failed to create test review")
	return review
}

func CreateTestBlog(t *testing.T, db *gorm.DB, authorID uint, status models.BlogStatus) *models.Blog {
	blog := &models.Blog{AuthorID: authorID, Title: "Hello", Body: "<p>world</p>", Status: status}
	if status == models.BlogPublished {
		at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		blog.PublishedAt = &at
	}
	require.NoError(t, db.Create(blog).Error, "Failed to create test blog")
	return blog
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(bytes.NewReader(resp.Body.Bytes())).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
	Meta    *Meta        `json:"meta"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// Data decodes the data member of a success envelope into v.
func Data(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	ParseResponse(t, resp, &envelope)
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	if assert.NotNil(t, result.Error, "Expected error object") {
		assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
	}
}
