package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"dreambid/internal/models"
	"dreambid/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterests_Track(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now.Add(time.Hour))

	for _, kind := range []string{"share", "share", "save", "view"} {
		w := env.do(http.MethodPost, "/api/interests", map[string]interface{}{"property_id": p.ID, "interest_type": kind}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	stored := reloadProperty(t, env.db, p.ID)
	assert.Equal(t, int64(2), stored.SharesCount)
	assert.Equal(t, int64(1), stored.ViewsCount)
	assert.Equal(t, []string{"property_share", "property_share", "property_save", "property_view"}, env.events.Actions())

	_, staffToken := env.userToken("staff@example.com", models.RoleStaff)
	w := env.do(http.MethodGet, fmt.Sprintf("/api/interests/stats/%d", p.ID), nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["shares"])
	assert.Equal(t, float64(1), stats["saves"])
	assert.Equal(t, float64(1), stats["views"])
	assert.Equal(t, float64(0), stats["contacts"])
}

func TestInterests_Rejects(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now.Add(time.Hour))
	_, userToken := env.userToken("user@example.com", models.RoleUser)

	tests := []struct {
		name     string
		body     map[string]interface{}
		expected int
	}{
		{"missing type", map[string]interface{}{"property_id": p.ID}, http.StatusBadRequest},
		{"missing property", map[string]interface{}{"interest_type": "view"}, http.StatusBadRequest},
		{"invalid type", map[string]interface{}{"property_id": p.ID, "interest_type": "like"}, http.StatusBadRequest},
		{"unknown property", map[string]interface{}{"property_id": 999999, "interest_type": "view"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/interests", tt.body, "")
			assert.Equal(t, tt.expected, w.Code)
		})
	}

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, fmt.Sprintf("/api/interests/stats/%d", p.ID), nil, userToken).Code)
	assert.Equal(t, int64(0), reloadProperty(t, env.db, p.ID).ViewsCount)
	assert.Empty(t, env.events.Actions())
}
