package models

import "time"

// PropertyInterest is an append-only record of a visitor engaging with a property
type PropertyInterest struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	PropertyID   uint         `gorm:"not null;index" json:"property_id"`
	Property     *Property    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID       *uint        `gorm:"index" json:"user_id,omitempty"`
	User         *User        `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	InterestType InterestType `gorm:"type:varchar(20);not null;index" json:"interest_type"`
	IPAddress    string       `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent    string       `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
}

// InterestType is the kind of engagement recorded
type InterestType string

const (
	InterestView    InterestType = "view"
	InterestShare   InterestType = "share"
	InterestContact InterestType = "contact"
	InterestSave    InterestType = "save"
)

// InterestTypes lists every valid interest type
var InterestTypes = []InterestType{InterestView, InterestShare, InterestContact, InterestSave}

// CounterColumn returns the properties column bumped by this interest type.
// Saves have no counter.
func (t InterestType) CounterColumn() string {
	switch t {
	case InterestView:
		return "views_count"
	case InterestShare:
		return "shares_count"
	case InterestContact:
		return "enquiries_count"
	}
	return ""
}

// TableName specifies the table name for PropertyInterest
func (PropertyInterest) TableName() string {
	return "property_interests"
}
