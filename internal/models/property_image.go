package models

import "time"

// PropertyImage represents an image associated with a property
type PropertyImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PropertyID uint      `gorm:"not null;index" json:"property_id"`
	ImageURL   string    `gorm:"type:text;not null" json:"image_url"`
	ImageOrder int       `gorm:"not null;default:0" json:"image_order"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for PropertyImage
func (PropertyImage) TableName() string {
	return "property_images"
}
