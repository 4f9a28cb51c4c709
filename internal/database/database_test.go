package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dreambid/internal/database"
	"dreambid/internal/models"
	"dreambid/internal/testutil"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProperty(t *testing.T, db *gorm.DB, status models.AuctionStatus, city string, price float64) *models.Property {
	t.Helper()
	p := testutil.CreateProperty(t, db, status, testutil.Now.Add(48*time.Hour))
	require.NoError(t, db.Model(p).Updates(map[string]interface{}{"city": city, "reserve_price": price}).Error)
	p.City = city
	p.ReservePrice = price
	return p
}

func ids(properties []models.Property) []uint {
	out := make([]uint, 0, len(properties))
	for _, p := range properties {
		out = append(out, p.ID)
	}
	return out
}

func statusPtr(s models.AuctionStatus) *models.AuctionStatus {
	return &s
}

func TestListProperties_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gdb := database.NewGormDBFromDB(db)
	ctx := context.Background()

	upcoming := seedProperty(t, db, models.AuctionStatusUpcoming, "Pune", 100)
	active := seedProperty(t, db, models.AuctionStatusActive, "Mumbai", 200)
	expired := seedProperty(t, db, models.AuctionStatusExpired, "pune camp", 300)
	hidden := seedProperty(t, db, models.AuctionStatusActive, "Pune", 400)
	require.NoError(t, gdb.SoftDeleteProperty(ctx, hidden.ID))

	tests := []struct {
		name     string
		filter   database.PropertyFilter
		expected []uint
	}{
		{"default hides expired", database.PropertyFilter{SortBy: "reserve_price"}, []uint{upcoming.ID, active.ID}},
		{"empty status shows all", database.PropertyFilter{Status: statusPtr(""), SortBy: "reserve_price"}, []uint{upcoming.ID, active.ID, expired.ID}},
		{"explicit status", database.PropertyFilter{Status: statusPtr(models.AuctionStatusExpired)}, []uint{expired.ID}},
		{"city is case-insensitive substring", database.PropertyFilter{Status: statusPtr(""), City: "PUNE", SortBy: "reserve_price"}, []uint{upcoming.ID, expired.ID}},
		{"price range", database.PropertyFilter{Status: statusPtr(""), MinPrice: floatPtr(150), MaxPrice: floatPtr(300), SortBy: "reserve_price_desc"}, []uint{expired.ID, active.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := gdb.ListProperties(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(got))
			assert.Equal(t, int64(len(tt.expected)), total)
		})
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestListProperties_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gdb := database.NewGormDBFromDB(db)

	var all []uint
	for i := 1; i <= 5; i++ {
		all = append(all, seedProperty(t, db, models.AuctionStatusUpcoming, "Pune", float64(i*10)).ID)
	}

	page, total, err := gdb.ListProperties(context.Background(), database.PropertyFilter{SortBy: "reserve_price", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, all[2:4], ids(page))

	last, _, err := gdb.ListProperties(context.Background(), database.PropertyFilter{SortBy: "reserve_price", Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, all[4:], ids(last))
}

func TestPropertyFilter_Normalize(t *testing.T) {
	f := database.PropertyFilter{Page: 0, Limit: 5000}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, database.MaxPageLimit, f.Limit)

	f = database.PropertyFilter{Limit: -1}
	f.Normalize()
	assert.Equal(t, database.DefaultPageLimit, f.Limit)
}

func TestIsValidSort(t *testing.T) {
	assert.True(t, database.IsValidSort(""))
	assert.True(t, database.IsValidSort("auction_date"))
	assert.False(t, database.IsValidSort("title; DROP TABLE properties"))
}

func TestSoftDeleteAndUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gdb := database.NewGormDBFromDB(db)
	ctx := context.Background()

	p := testutil.CreateProperty(t, db, models.AuctionStatusUpcoming, testutil.Now.Add(time.Hour))

	updated, err := gdb.UpdateProperty(ctx, p.ID, map[string]interface{}{"auction_status": models.AuctionStatusSold})
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusSold, updated.AuctionStatus)

	require.NoError(t, gdb.SoftDeleteProperty(ctx, p.ID))

	_, err = gdb.GetActiveProperty(ctx, p.ID)
	assert.True(t, database.IsNotFound(err))

	err = gdb.SoftDeleteProperty(ctx, p.ID)
	assert.True(t, database.IsNotFound(err))

	_, err = gdb.UpdateProperty(ctx, p.ID, map[string]interface{}{"title": "x"})
	assert.True(t, database.IsNotFound(err))

	stored, err := gdb.GetPropertyByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestCreateProperty_DefaultsStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gdb := database.NewGormDBFromDB(db)

	p := &models.Property{Title: "Plot", Address: "Survey 12", City: "Nashik", AuctionDate: testutil.Now, IsActive: true}
	require.NoError(t, gdb.CreateProperty(context.Background(), p))
	assert.Equal(t, models.AuctionStatusUpcoming, testutil.StatusOf(t, db, p.ID))
}

func TestIncrementCounter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gdb := database.NewGormDBFromDB(db)
	ctx := context.Background()

	p := testutil.CreateProperty(t, db, models.AuctionStatusActive, testutil.Now)
	require.NoError(t, gdb.IncrementCounter(ctx, p.ID, "views_count"))
	require.NoError(t, gdb.IncrementCounter(ctx, p.ID, "views_count"))

	stored, err := gdb.GetPropertyByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.ViewsCount)
	assert.Equal(t, int64(0), stored.SharesCount)
}

func TestActivePropertiesByIDs_KeepsOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gdb := database.NewGormDBFromDB(db)
	ctx := context.Background()

	a := testutil.CreateProperty(t, db, models.AuctionStatusActive, testutil.Now)
	b := testutil.CreateProperty(t, db, models.AuctionStatusActive, testutil.Now)
	c := testutil.CreateProperty(t, db, models.AuctionStatusActive, testutil.Now)
	require.NoError(t, gdb.SoftDeleteProperty(ctx, b.ID))

	got, err := gdb.ActivePropertiesByIDs(ctx, []uint{c.ID, b.ID, 9999, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID, a.ID}, ids(got))

	empty, err := gdb.ActivePropertiesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEnquiries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gdb := database.NewGormDBFromDB(db)
	ctx := context.Background()

	p1 := testutil.CreateProperty(t, db, models.AuctionStatusActive, testutil.Now)
	p2 := testutil.CreateProperty(t, db, models.AuctionStatusActive, testutil.Now)

	for i, propertyID := range []uint{p1.ID, p1.ID, p2.ID} {
		e := &models.Enquiry{
			PropertyID: propertyID,
			Name:       fmt.Sprintf("Buyer %d", i),
			Email:      "buyer@example.com",
			Phone:      "9999999999",
		}
		require.NoError(t, gdb.CreateEnquiry(ctx, e))
		assert.Equal(t, models.EnquiryStatusNew, e.Status)
		assert.Equal(t, "general", e.EnquiryType)
	}

	stored, err := gdb.GetPropertyByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.EnquiriesCount)

	items, total, err := gdb.ListEnquiries(ctx, database.EnquiryFilter{PropertyID: p1.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, p1.Title, items[0].PropertyTitle)
	assert.Equal(t, p1.Address, items[0].PropertyAddress)
	assert.Nil(t, items[0].Property)

	updated, err := gdb.UpdateEnquiryStatus(ctx, items[0].ID, models.EnquiryStatusContacted)
	require.NoError(t, err)
	assert.Equal(t, models.EnquiryStatusContacted, updated.Status)

	contacted, total, err := gdb.ListEnquiries(ctx, database.EnquiryFilter{Status: models.EnquiryStatusContacted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, items[0].ID, contacted[0].ID)

	_, err = gdb.UpdateEnquiryStatus(ctx, 9999, models.EnquiryStatusClosed)
	assert.True(t, database.IsNotFound(err))
}

func TestDashboardStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gdb := database.NewGormDBFromDB(db)
	ctx := context.Background()

	testutil.CreateProperty(t, db, models.AuctionStatusUpcoming, testutil.Now)
	testutil.CreateProperty(t, db, models.AuctionStatusActive, testutil.Now)
	testutil.CreateProperty(t, db, models.AuctionStatusActive, testutil.Now)
	hidden := testutil.CreateProperty(t, db, models.AuctionStatusSold, testutil.Now)
	require.NoError(t, gdb.SoftDeleteProperty(ctx, hidden.ID))

	testutil.CreateUser(t, db, "a@example.com", models.RoleAdmin)
	inactive := testutil.CreateUser(t, db, "b@example.com", models.RoleUser)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	stats, err := gdb.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalProperties)
	assert.Equal(t, int64(2), stats.PropertiesByStatus["active"])
	assert.Equal(t, int64(1), stats.PropertiesByStatus["upcoming"])
	assert.Equal(t, int64(0), stats.PropertiesByStatus["sold"])
	assert.Equal(t, int64(1), stats.DelistedProperties)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.ActiveUsers)
	assert.Equal(t, int64(0), stats.TotalEnquiries)
	assert.Contains(t, stats.EnquiriesByStatus, "new")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, database.IsUniqueViolation(nil))
	assert.True(t, database.IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, database.IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, database.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, database.IsUniqueViolation(gorm.ErrRecordNotFound))
}
