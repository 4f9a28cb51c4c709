package models

import "time"

type Property struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Title        string `gorm:"type:varchar(255);not null" json:"title"`
	Description  string `gorm:"type:text" json:"description,omitempty"`
	PropertyType string `gorm:"type:varchar(50);index" json:"property_type,omitempty"`

	// Location
	Address   string   `gorm:"type:text;not null" json:"address"`
	City      string   `gorm:"type:varchar(100);index" json:"city"`
	State     string   `gorm:"type:varchar(100)" json:"state,omitempty"`
	ZipCode   string   `gorm:"type:varchar(20)" json:"zip_code,omitempty"`
	Country   string   `gorm:"type:varchar(100);default:'India'" json:"country"`
	Latitude  *float64 `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`

	// Specs
	AreaSqft  *float64 `gorm:"type:decimal(12,2)" json:"area_sqft,omitempty"`
	Bedrooms  *int     `json:"bedrooms,omitempty"`
	Bathrooms *int     `json:"bathrooms,omitempty"`
	Floors    *int     `json:"floors,omitempty"`

	// Auction
	ReservePrice  float64       `gorm:"type:decimal(15,2);not null;default:0;index" json:"reserve_price"`
	AuctionDate   time.Time     `gorm:"not null;index" json:"auction_date"`
	AuctionStatus AuctionStatus `gorm:"type:varchar(20);not null;default:'upcoming';index" json:"auction_status"`

	// IsActive is the soft-delete flag. It carries no column default so that
	// an explicit false survives Create.
	IsActive   bool `gorm:"not null;index" json:"is_active"`
	IsFeatured bool `gorm:"not null" json:"is_featured"`

	// Counters
	ViewsCount     int64 `gorm:"not null;default:0" json:"views_count"`
	SharesCount    int64 `gorm:"not null;default:0" json:"shares_count"`
	EnquiriesCount int64 `gorm:"not null;default:0" json:"enquiries_count"`

	CoverImageURL string `gorm:"type:text" json:"cover_image_url,omitempty"`
	PDFURL        string `gorm:"type:text" json:"pdf_url,omitempty"`

	CreatedBy *uint `gorm:"index" json:"created_by,omitempty"`
	Creator   *User `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL" json:"-"`

	Images []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"images"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// AuctionStatus is the lifecycle state of a property's auction
type AuctionStatus string

const (
	AuctionStatusUpcoming  AuctionStatus = "upcoming"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusExpired   AuctionStatus = "expired"
	AuctionStatusSold      AuctionStatus = "sold"
	AuctionStatusCancelled AuctionStatus = "cancelled"
)

// AuctionStatuses lists every valid status
var AuctionStatuses = []AuctionStatus{
	AuctionStatusUpcoming,
	AuctionStatusActive,
	AuctionStatusExpired,
	AuctionStatusSold,
	AuctionStatusCancelled,
}

// IsTerminal reports whether the reconciler must leave the status alone
func (s AuctionStatus) IsTerminal() bool {
	return s == AuctionStatusExpired || s == AuctionStatusSold || s == AuctionStatusCancelled
}

// TableName specifies the table name for Property
func (Property) TableName() string {
	return "properties"
}

// IsOpen reports whether the property is listed and its auction has not ended
func (p *Property) IsOpen() bool {
	return p.IsActive && !p.AuctionStatus.IsTerminal()
}
