package database

import (
	"context"
	"fmt"

	"dreambid/internal/models"
)

// DashboardStats holds the admin overview counts
type DashboardStats struct {
	TotalProperties    int64            `json:"total_properties"`
	PropertiesByStatus map[string]int64 `json:"properties_by_status"`
	DelistedProperties int64            `json:"delisted_properties"`
	TotalUsers         int64            `json:"total_users"`
	ActiveUsers        int64            `json:"active_users"`
	TotalEnquiries     int64            `json:"total_enquiries"`
	EnquiriesByStatus  map[string]int64 `json:"enquiries_by_status"`
}

type groupCount struct {
	Label string
	Count int64
}

// DashboardStats counts listed properties by auction status, users and
// enquiries by follow-up status
func (gdb *GormDB) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := gdb.db.WithContext(ctx)
	stats := &DashboardStats{
		PropertiesByStatus: make(map[string]int64),
		EnquiriesByStatus:  make(map[string]int64),
	}

	var propertyRows []groupCount
	err := db.Model(&models.Property{}).
		Select("auction_status AS label, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("auction_status").
		Scan(&propertyRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}
	for _, s := range models.AuctionStatuses {
		stats.PropertiesByStatus[string(s)] = 0
	}
	for _, row := range propertyRows {
		stats.PropertiesByStatus[row.Label] = row.Count
		stats.TotalProperties += row.Count
	}

	if err := db.Model(&models.Property{}).Where("is_active = ?", false).Count(&stats.DelistedProperties).Error; err != nil {
		return nil, fmt.Errorf("failed to count delisted properties: %w", err)
	}
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	var enquiryRows []groupCount
	err = db.Model(&models.Enquiry{}).
		Select("status AS label, COUNT(*) AS count").
		Group("status").
		Scan(&enquiryRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count enquiries: %w", err)
	}
	for _, s := range models.EnquiryStatuses {
		stats.EnquiriesByStatus[string(s)] = 0
	}
	for _, row := range enquiryRows {
		stats.EnquiriesByStatus[row.Label] = row.Count
		stats.TotalEnquiries += row.Count
	}

	return stats, nil
}
