package database

import (
	"context"
	"strings"

	"dreambid/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 1000
)

// PropertyFilter describes a public listing query
type PropertyFilter struct {
	// Status nil hides expired auctions, a pointer to "" returns every
	// status, anything else filters to that status.
	Status       *models.AuctionStatus
	City         string
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
	SortBy       string
	Page         int
	Limit        int
}

// Normalize clamps paging values into range
func (f *PropertyFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
}

// ListProperties returns one page of active properties matching the filter
// and the total number of matches
func (gdb *GormDB) ListProperties(ctx context.Context, f PropertyFilter) ([]models.Property, int64, error) {
	f.Normalize()

	query := gdb.db.WithContext(ctx).Model(&models.Property{}).Where("is_active = ?", true)

	switch {
	case f.Status == nil:
		query = query.Where("auction_status <> ?", models.AuctionStatusExpired)
	case *f.Status != "":
		query = query.Where("auction_status = ?", *f.Status)
	}
	if f.City != "" {
		query = query.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(f.City)+"%")
	}
	if f.PropertyType != "" {
		query = query.Where("property_type = ?", f.PropertyType)
	}
	if f.MinPrice != nil {
		query = query.Where("reserve_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("reserve_price <= ?", *f.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var properties []models.Property
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("image_order ASC")
		}).
		Order(orderClause(f.SortBy)).
		Order("id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&properties).Error
	if err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}

func orderClause(sortBy string) string {
	switch sortBy {
	case "reserve_price":
		return "reserve_price ASC"
	case "reserve_price_desc":
		return "reserve_price DESC"
	case "auction_date":
		return "auction_date ASC"
	default:
		return "created_at DESC"
	}
}

// IsValidSort reports whether sortBy is a supported ordering
func IsValidSort(sortBy string) bool {
	switch sortBy {
	case "", "created_at", "reserve_price", "reserve_price_desc", "auction_date":
		return true
	}
	return false
}

// GetActiveProperty retrieves a listed property with its images
func (gdb *GormDB) GetActiveProperty(ctx context.Context, id uint) (*models.Property, error) {
	var property models.Property
	err := gdb.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("image_order ASC")
		}).
		Where("id = ? AND is_active = ?", id, true).
		First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetPropertyByID retrieves a property regardless of its listing state
func (gdb *GormDB) GetPropertyByID(ctx context.Context, id uint) (*models.Property, error) {
	var property models.Property
	if err := gdb.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// CreateProperty inserts a new property
func (gdb *GormDB) CreateProperty(ctx context.Context, p *models.Property) error {
	if p.AuctionStatus == "" {
		p.AuctionStatus = models.AuctionStatusUpcoming
	}
	return gdb.db.WithContext(ctx).Create(p).Error
}

// UpdateProperty applies a partial update and returns the fresh row
func (gdb *GormDB) UpdateProperty(ctx context.Context, id uint, updates map[string]interface{}) (*models.Property, error) {
	result := gdb.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return gdb.GetActiveProperty(ctx, id)
}

// SoftDeleteProperty hides a property from every public read
func (gdb *GormDB) SoftDeleteProperty(ctx context.Context, id uint) error {
	result := gdb.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementCounter adds one to a property counter column
func (gdb *GormDB) IncrementCounter(ctx context.Context, id uint, column string) error {
	return gdb.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
}

// AllActiveProperties returns every listed property, used for search reindexing
func (gdb *GormDB) AllActiveProperties(ctx context.Context) ([]models.Property, error) {
	var properties []models.Property
	err := gdb.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&properties).Error
	return properties, err
}

// ActivePropertiesByIDs loads listed properties in the order of ids, skipping
// ids that are missing or delisted
func (gdb *GormDB) ActivePropertiesByIDs(ctx context.Context, ids []uint) ([]models.Property, error) {
	if len(ids) == 0 {
		return []models.Property{}, nil
	}

	var found []models.Property
	err := gdb.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("image_order ASC")
		}).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&found).Error
	if err != nil {
		return nil, err
	}

	byID := lo.KeyBy(found, func(p models.Property) uint { return p.ID })
	return lo.FilterMap(ids, func(id uint, _ int) (models.Property, bool) {
		p, ok := byID[id]
		return p, ok
	}), nil
}
