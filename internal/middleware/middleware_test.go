package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dreambid/internal/auth"
	"dreambid/internal/middleware"
	"dreambid/internal/models"
	"dreambid/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// MockUserLookup implements middleware.UserLookup
type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetUser(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := auth.GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func setupAuthEngine(users middleware.UserLookup, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{middleware.AuthMiddleware(testSecret, users)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
	})
	r.GET("/test", handlers...)
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	users := new(MockUserLookup)
	w := doGet(setupAuthEngine(users), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token provided")
	users.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	users := new(MockUserLookup)
	w := doGet(setupAuthEngine(users), "not-a-jwt")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@example.com", Role: models.RoleUser, IsActive: true}
	users := new(MockUserLookup)
	users.On("GetUser", mock.Anything, uint(7)).Return(user, nil)

	w := doGet(setupAuthEngine(users), tokenFor(t, user))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"user"}`, w.Body.String())
	users.AssertExpectations(t)
}

func TestAuthMiddleware_UnknownOrInactiveUser(t *testing.T) {
	user := &models.User{ID: 8, Email: "b@example.com", Role: models.RoleUser}

	t.Run("not found", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("GetUser", mock.Anything, uint(8)).Return(nil, errors.New("user not found"))
		w := doGet(setupAuthEngine(users), tokenFor(t, user))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("inactive", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("GetUser", mock.Anything, uint(8)).Return(user, nil)
		w := doGet(setupAuthEngine(users), tokenFor(t, user))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "inactive")
	})
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		role     models.UserRole
		expected int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleStaff, http.StatusOK},
		{models.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			user := &models.User{ID: 1, Email: "r@example.com", Role: tt.role, IsActive: true}
			users := new(MockUserLookup)
			users.On("GetUser", mock.Anything, uint(1)).Return(user, nil)

			r := setupAuthEngine(users, middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
			w := doGet(r, tokenFor(t, user))
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := &models.User{ID: 3, Email: "o@example.com", Role: models.RoleUser, IsActive: true}
	users := new(MockUserLookup)
	users.On("GetUser", mock.Anything, uint(3)).Return(user, nil)

	r := gin.New()
	r.GET("/test", middleware.OptionalAuthMiddleware(testSecret, users), func(c *gin.Context) {
		if id := middleware.CurrentUserID(c); id != nil {
			c.JSON(http.StatusOK, gin.H{"user_id": *id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
	})

	assert.JSONEq(t, `{"user_id":null}`, doGet(r, "").Body.String())
	assert.JSONEq(t, `{"user_id":null}`, doGet(r, "garbage").Body.String())
	assert.JSONEq(t, `{"user_id":3}`, doGet(r, tokenFor(t, user)).Body.String())
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.ContextKeyRequestID))
	})

	w := doGet(r, "")
	generated := w.Header().Get(middleware.HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w2 := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.HeaderRequestID, "abc-123")
	r.ServeHTTP(w2, req)
	assert.Equal(t, "abc-123", w2.Header().Get(middleware.HeaderRequestID))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RateLimit(ratelimit.NewRateLimiter(60, 1, true)))
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	send := func(addr string) int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("1.2.3.4:12345"))
	assert.Equal(t, http.StatusTooManyRequests, send("1.2.3.4:12345"))
	assert.Equal(t, http.StatusOK, send("5.6.7.8:12345"))
}
