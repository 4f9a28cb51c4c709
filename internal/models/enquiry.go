package models

import "time"

// Enquiry is a contact request left on a property
type Enquiry struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	PropertyID  uint          `gorm:"not null;index" json:"property_id"`
	Property    *Property     `gorm:"constraint:OnDelete:CASCADE" json:"property,omitempty"`
	UserID      *uint         `gorm:"index" json:"user_id,omitempty"`
	User        *User         `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Email       string        `gorm:"type:varchar(255);not null" json:"email"`
	Phone       string        `gorm:"type:varchar(20);not null" json:"phone"`
	Message     string        `gorm:"type:text" json:"message,omitempty"`
	EnquiryType string        `gorm:"type:varchar(50);not null;default:'general'" json:"enquiry_type"`
	Status      EnquiryStatus `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	CreatedAt   time.Time     `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// EnquiryStatus tracks staff follow-up on an enquiry
type EnquiryStatus string

const (
	EnquiryStatusNew       EnquiryStatus = "new"
	EnquiryStatusContacted EnquiryStatus = "contacted"
	EnquiryStatusResolved  EnquiryStatus = "resolved"
	EnquiryStatusClosed    EnquiryStatus = "closed"
)

// EnquiryStatuses lists every valid enquiry status
var EnquiryStatuses = []EnquiryStatus{
	EnquiryStatusNew,
	EnquiryStatusContacted,
	EnquiryStatusResolved,
	EnquiryStatusClosed,
}

// TableName specifies the table name for Enquiry
func (Enquiry) TableName() string {
	return "enquiries"
}
