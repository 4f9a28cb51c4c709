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

func TestEnquiries_Create(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now.Add(time.Hour))

	w := env.do(http.MethodPost, "/api/enquiries", map[string]interface{}{
		"property_id": p.ID,
		"name":        "Asha",
		"email":       "Asha@Example.com",
		"phone":       "9876543210",
		"message":     `<b>Interested</b><script>steal()</script>`,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	enquiry := decode(t, w)["enquiry"].(map[string]interface{})
	assert.Equal(t, "Interested", enquiry["message"])
	assert.Equal(t, "asha@example.com", enquiry["email"])
	assert.Equal(t, "new", enquiry["status"])
	assert.Nil(t, enquiry["user_id"])

	assert.Equal(t, int64(1), reloadProperty(t, env.db, p.ID).EnquiriesCount)
	assert.Equal(t, []string{"property_enquiry"}, env.events.Actions())
}

func TestEnquiries_CreateAttributesSignedInUser(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now.Add(time.Hour))
	user, token := env.userToken("signed@example.com", models.RoleUser)

	w := env.do(http.MethodPost, "/api/enquiries", map[string]interface{}{
		"property_id": p.ID, "name": "Signed", "email": "signed@example.com", "phone": "1",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(user.ID), decode(t, w)["enquiry"].(map[string]interface{})["user_id"])
}

func TestEnquiries_CreateRejects(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now.Add(time.Hour))
	hidden := testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now.Add(time.Hour))
	require.NoError(t, env.db.Model(hidden).Update("is_active", false).Error)

	tests := []struct {
		name     string
		body     map[string]interface{}
		expected int
	}{
		{"missing phone", map[string]interface{}{"property_id": p.ID, "name": "A", "email": "a@example.com"}, http.StatusBadRequest},
		{"blank name", map[string]interface{}{"property_id": p.ID, "name": "  ", "email": "a@example.com", "phone": "1"}, http.StatusBadRequest},
		{"bad email", map[string]interface{}{"property_id": p.ID, "name": "A", "email": "a-at-example", "phone": "1"}, http.StatusBadRequest},
		{"unknown property", map[string]interface{}{"property_id": 999999, "name": "A", "email": "a@example.com", "phone": "1"}, http.StatusNotFound},
		{"delisted property", map[string]interface{}{"property_id": hidden.ID, "name": "A", "email": "a@example.com", "phone": "1"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/enquiries", tt.body, "")
			assert.Equal(t, tt.expected, w.Code)
		})
	}
	assert.Empty(t, env.events.Actions())
}

func TestEnquiries_StaffListAndStatus(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.CreateProperty(t, env.db, models.AuctionStatusActive, testutil.Now.Add(time.Hour))
	_, staffToken := env.userToken("staff@example.com", models.RoleStaff)
	_, userToken := env.userToken("user@example.com", models.RoleUser)

	for i := 0; i < 3; i++ {
		w := env.do(http.MethodPost, "/api/enquiries", map[string]interface{}{
			"property_id": p.ID, "name": fmt.Sprintf("Buyer %d", i), "email": "b@example.com", "phone": "1",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/enquiries", nil, userToken).Code)

	w := env.do(http.MethodGet, fmt.Sprintf("/api/enquiries?property_id=%d&limit=2", p.ID), nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	items := body["enquiries"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, p.Title, first["property_title"])
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["pages"])

	id := uint(first["id"].(float64))
	w = env.do(http.MethodPut, fmt.Sprintf("/api/enquiries/%d/status", id), map[string]interface{}{"status": "resolved"}, staffToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPut, fmt.Sprintf("/api/enquiries/%d/status", id), map[string]interface{}{"status": "archived"}, staffToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPut, "/api/enquiries/999999/status", map[string]interface{}{"status": "closed"}, staffToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/enquiries?status=resolved", nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["enquiries"], 1)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/enquiries?status=archived", nil, staffToken).Code)
}
