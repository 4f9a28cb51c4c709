package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserActivity is an immutable audit row. Rows are only ever inserted or
// purged by age.
type UserActivity struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         *uint          `gorm:"index" json:"user_id,omitempty"`
	User           *User          `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Action         string         `gorm:"type:varchar(100);not null;index" json:"action"`
	ActionCategory *string        `gorm:"type:varchar(50);index" json:"action_category,omitempty"`
	Data           datatypes.JSON `json:"data,omitempty"`
	IPAddress      string         `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent      string         `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for UserActivity
func (UserActivity) TableName() string {
	return "user_activity"
}

// Activity categories
const (
	CategoryAuth     = "auth"
	CategoryProperty = "property"
	CategoryProfile  = "profile"
	CategorySystem   = "system"
)

// AllModels returns every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Property{},
		&PropertyImage{},
		&Enquiry{},
		&PropertyInterest{},
		&UserActivity{},
	}
}
