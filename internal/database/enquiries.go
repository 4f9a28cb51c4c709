package database

import (
	"context"

	"dreambid/internal/models"

	"gorm.io/gorm"
)

// EnquiryFilter narrows the staff enquiry list
type EnquiryFilter struct {
	Status     models.EnquiryStatus
	PropertyID uint
	Page       int
	Limit      int
}

// EnquiryListItem is an enquiry with the property it refers to
type EnquiryListItem struct {
	models.Enquiry
	PropertyTitle   string `json:"property_title"`
	PropertyAddress string `json:"property_address"`
}

// CreateEnquiry stores an enquiry and bumps the property's enquiry counter
func (gdb *GormDB) CreateEnquiry(ctx context.Context, e *models.Enquiry) error {
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if e.Status == "" {
			e.Status = models.EnquiryStatusNew
		}
		if e.EnquiryType == "" {
			e.EnquiryType = "general"
		}
		if err := tx.Create(e).Error; err != nil {
			return err
		}
		return tx.Model(&models.Property{}).
			Where("id = ?", e.PropertyID).
			UpdateColumn("enquiries_count", gorm.Expr("enquiries_count + ?", 1)).Error
	})
}

// ListEnquiries returns one page of enquiries, newest first, and the total
func (gdb *GormDB) ListEnquiries(ctx context.Context, f EnquiryFilter) ([]EnquiryListItem, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}

	query := gdb.db.WithContext(ctx).Model(&models.Enquiry{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.PropertyID != 0 {
		query = query.Where("property_id = ?", f.PropertyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enquiries []models.Enquiry
	err := query.
		Preload("Property", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "address")
		}).
		Order("created_at DESC").
		Order("id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&enquiries).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]EnquiryListItem, 0, len(enquiries))
	for _, e := range enquiries {
		item := EnquiryListItem{}
		if e.Property != nil {
			item.PropertyTitle = e.Property.Title
			item.PropertyAddress = e.Property.Address
		}
		e.Property = nil
		item.Enquiry = e
		items = append(items, item)
	}
	return items, total, nil
}

// UpdateEnquiryStatus sets the follow-up status of an enquiry
func (gdb *GormDB) UpdateEnquiryStatus(ctx context.Context, id uint, status models.EnquiryStatus) (*models.Enquiry, error) {
	result := gdb.db.WithContext(ctx).Model(&models.Enquiry{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var enquiry models.Enquiry
	if err := gdb.db.WithContext(ctx).First(&enquiry, id).Error; err != nil {
		return nil, err
	}
	return &enquiry, nil
}
