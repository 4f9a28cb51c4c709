package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/auction"
	"dreambid/internal/auth"
	"dreambid/internal/cleanup"
	"dreambid/internal/config"
	"dreambid/internal/database"
	"dreambid/internal/handlers"
	"dreambid/internal/interest"
	"dreambid/internal/models"
	"dreambid/internal/scheduler"
	"dreambid/internal/search"
	"dreambid/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

// recordingLogger captures entries instead of writing them
type recordingLogger struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (r *recordingLogger) Log(entry activity.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingLogger) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// MockSearchIndex implements handlers.SearchIndex
type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) IndexProperty(property *models.Property) error {
	args := m.Called(property)
	return args.Error(0)
}

func (m *MockSearchIndex) DeleteProperty(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockSearchIndex) Search(req search.SearchRequest) (*search.SearchResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.SearchResult), args.Error(1)
}

func (m *MockSearchIndex) Reindex(properties []models.Property) (int, error) {
	args := m.Called(properties)
	return args.Int(0), args.Error(1)
}

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	auth   *auth.Service
	events *recordingLogger
	router *gin.Engine
}

type envOption func(*handlers.Deps)

func withSearch(index handlers.SearchIndex) envOption {
	return func(d *handlers.Deps) { d.Search = index }
}

func withEvents(events handlers.ActivityLogger) envOption {
	return func(d *handlers.Deps) { d.Events = events }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	clock := func() time.Time { return testutil.Now }
	authService := auth.NewService(db, testSecret, time.Hour)
	reconciler := auction.NewReconciler(db, auction.WithClock(clock))
	cleaner := cleanup.NewService(db, cleanup.WithClock(clock))
	events := &recordingLogger{}

	deps := handlers.Deps{
		DB:         database.NewGormDBFromDB(db),
		Auth:       authService,
		Activity:   activity.NewService(db),
		Events:     events,
		Reconciler: reconciler,
		Tracker:    interest.NewTracker(db),
		Jobs:       scheduler.NewScheduler(config.DefaultConfig(), reconciler, cleaner),
		Retention:  cleaner,
		Now:        clock,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	r := gin.New()
	handlers.RegisterRoutes(r, deps)

	return &testEnv{t: t, db: db, auth: authService, events: events, router: r}
}

// userToken creates an active user with role and returns it with a bearer token
func (e *testEnv) userToken(email string, role models.UserRole) (*models.User, string) {
	e.t.Helper()
	user := testutil.CreateUser(e.t, e.db, email, role)
	token, err := auth.GenerateJWT(user, testSecret, time.Hour)
	require.NoError(e.t, err)
	return user, token
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "192.0.2.10:4321"
	req.Header.Set("User-Agent", "handler-test")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func reloadProperty(t *testing.T, db *gorm.DB, id uint) models.Property {
	t.Helper()
	var p models.Property
	require.NoError(t, db.First(&p, id).Error)
	return p
}
