package testutil

import (
	"fmt"
	"testing"
	"time"

	"dreambid/internal/database"
	"dreambid/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Now is a fixed UTC instant with whole seconds used as "now" across tests
var Now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(false))
	require.NoError(t, err, "Failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive and
	// serializes writers.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.NewGormDBFromDB(db).InitSchema(), "Failed to migrate test database")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// SetupMockDB returns a gorm handle backed by sqlmock for store-failure tests
func SetupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open gorm over sqlmock")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db, mock
}

// CreateProperty inserts a listed property with the given status and auction date
func CreateProperty(t *testing.T, db *gorm.DB, status models.AuctionStatus, auctionDate time.Time) *models.Property {
	t.Helper()

	p := &models.Property{
		Title:         "Flat " + uuid.NewString()[:8],
		Address:       "12 MG Road",
		City:          "Pune",
		PropertyType:  "residential",
		ReservePrice:  2500000,
		AuctionDate:   auctionDate,
		AuctionStatus: status,
		IsActive:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateUser inserts an active user with the given role
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()

	u := &models.User{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateActivity inserts an activity row with an explicit timestamp
func CreateActivity(t *testing.T, db *gorm.DB, userID *uint, action string, createdAt time.Time) *models.UserActivity {
	t.Helper()

	a := &models.UserActivity{
		UserID:    userID,
		Action:    action,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// StatusOf reloads a property's auction status
func StatusOf(t *testing.T, db *gorm.DB, id uint) models.AuctionStatus {
	t.Helper()

	var p models.Property
	require.NoError(t, db.First(&p, id).Error)
	return p.AuctionStatus
}

// UintPtr returns a pointer to v
func UintPtr(v uint) *uint {
	return &v
}
