package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"dreambid/internal/cleanup"
	"dreambid/internal/models"
	"dreambid/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdmin_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, staffToken := env.userToken("staff@example.com", models.RoleStaff)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/admin/stats", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/stats", nil, staffToken).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/admin/cleanup/activity", nil, staffToken).Code)
}

func TestAdmin_Stats(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.userToken("admin@example.com", models.RoleAdmin)
	testutil.CreateProperty(t, env.db, models.AuctionStatusUpcoming, testutil.Now.Add(time.Hour))
	testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now.Add(time.Hour))

	w := env.do(http.MethodGet, "/api/admin/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	properties := body["properties"].(map[string]interface{})
	assert.Equal(t, float64(2), properties["total"])
	assert.Equal(t, float64(1), properties["by_status"].(map[string]interface{})["active"])
	assert.Equal(t, float64(1), body["users"].(map[string]interface{})["total"])
	assert.Contains(t, body, "recent_activity")
}

func TestAdmin_Reconcile(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.userToken("admin@example.com", models.RoleAdmin)
	p := testutil.CreateProperty(t, env.db, models.AuctionStatusUpcoming, testutil.Now)
	missed := testutil.CreateProperty(t, env.db, models.AuctionStatusUpcoming, testutil.Now.Add(-time.Minute))
	sold := testutil.CreateProperty(t, env.db, models.AuctionStatusSold, testutil.Now.Add(-time.Hour))

	w := env.do(http.MethodPost, "/api/admin/reconcile", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["updated"])
	assert.Equal(t, models.AuctionStatusActive, testutil.StatusOf(t, env.db, p.ID))
	assert.Equal(t, models.AuctionStatusExpired, testutil.StatusOf(t, env.db, missed.ID))
	assert.Equal(t, models.AuctionStatusSold, testutil.StatusOf(t, env.db, sold.ID))

	w = env.do(http.MethodPost, "/api/admin/reconcile", nil, adminToken)
	assert.Equal(t, float64(0), decode(t, w)["updated"])
}

func TestAdmin_CleanupActivity(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.userToken("admin@example.com", models.RoleAdmin)

	day := 24 * time.Hour
	old := testutil.CreateActivity(t, env.db, nil, "old", testutil.Now.Add(-91*day))
	boundary := testutil.CreateActivity(t, env.db, nil, "boundary", testutil.Now.Add(-90*day))
	recent := testutil.CreateActivity(t, env.db, nil, "recent", testutil.Now.Add(-89*day))

	for _, days := range []int{0, -5} {
		w := env.do(http.MethodPost, "/api/admin/cleanup/activity", map[string]interface{}{"days": days}, adminToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := env.do(http.MethodPost, "/api/admin/cleanup/activity", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, float64(1), result["deleted_count"])
	assert.Equal(t, float64(90), result["retention_days"])

	var remaining []models.UserActivity
	require.NoError(t, env.db.Order("id").Find(&remaining).Error)
	ids := []uint{}
	for _, r := range remaining {
		ids = append(ids, r.ID)
	}
	assert.NotContains(t, ids, old.ID)
	assert.Contains(t, ids, boundary.ID)
	assert.Contains(t, ids, recent.ID)

	w = env.do(http.MethodPost, "/api/admin/cleanup/activity", map[string]interface{}{"days": 80}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["result"].(map[string]interface{})["deleted_count"])

	w = env.do(http.MethodGet, "/api/admin/cleanup/stats?days=30", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "total_records")
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/admin/cleanup/stats?days=x", nil, adminToken).Code)
}

func TestAdmin_CleanupPreviewMatchesPurge(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.userToken("admin@example.com", models.RoleAdmin)

	day := 24 * time.Hour
	testutil.CreateActivity(t, env.db, nil, "old", testutil.Now.Add(-91*day))
	testutil.CreateActivity(t, env.db, nil, "boundary", testutil.Now.Add(-90*day))
	testutil.CreateActivity(t, env.db, nil, "recent", testutil.Now.Add(-89*day))
	wantCutoff := cleanup.Cutoff(testutil.Now, 90).Format(time.RFC3339Nano)

	w := env.do(http.MethodGet, "/api/admin/cleanup/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode(t, w)
	assert.Equal(t, float64(1), preview["total_records"])
	assert.Equal(t, wantCutoff, preview["cutoff"])

	w = env.do(http.MethodPost, "/api/admin/cleanup/activity", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, preview["total_records"], result["deleted_count"])
	assert.Equal(t, wantCutoff, result["cutoff"])
}

func TestAdmin_CleanupUsers(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.userToken("admin@example.com", models.RoleAdmin)

	dormant := testutil.CreateUser(t, env.db, "dormant@example.com", models.RoleUser)
	require.NoError(t, env.db.Model(dormant).UpdateColumns(map[string]interface{}{
		"is_active":  false,
		"updated_at": testutil.Now.AddDate(-2, 0, 0),
	}).Error)

	w := env.do(http.MethodPost, "/api/admin/cleanup/users", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, float64(1), result["deleted_count"])
	assert.Equal(t, float64(365), result["retention_days"])
}

func TestAdmin_Reindex(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t)
		_, adminToken := env.userToken("admin@example.com", models.RoleAdmin)
		assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodPost, "/api/admin/search/reindex", nil, adminToken).Code)
	})

	t.Run("enabled", func(t *testing.T) {
		index := new(MockSearchIndex)
		env := newTestEnv(t, withSearch(index))
		_, adminToken := env.userToken("admin@example.com", models.RoleAdmin)
		testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now)
		testutil.CreateProperty(t, env.db, models.AuctionStatusUpcoming, testutil.Now)

		index.On("Reindex", mock.MatchedBy(func(ps []models.Property) bool { return len(ps) == 2 })).Return(2, nil)

		w := env.do(http.MethodPost, "/api/admin/search/reindex", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decode(t, w)["indexed"])
		index.AssertExpectations(t)
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = env.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
