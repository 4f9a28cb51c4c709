// Package activity records user and system events to the activity log and
// serves the read side of that log.
package activity

import (
	"encoding/json"
	"fmt"

	"dreambid/internal/models"

	"gorm.io/datatypes"
)

// Entry is one event to be written to the activity log
type Entry struct {
	UserID    *uint
	Action    string
	Category  string
	Data      interface{}
	IPAddress string
	UserAgent string
}

// toModel converts an entry into a row ready for insert
func (e Entry) toModel() (*models.UserActivity, error) {
	if e.Action == "" {
		return nil, fmt.Errorf("activity action is required")
	}

	row := &models.UserActivity{
		UserID:    e.UserID,
		Action:    e.Action,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
	}
	if e.Category != "" {
		category := e.Category
		row.ActionCategory = &category
	}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode activity data: %w", err)
		}
		row.Data = datatypes.JSON(raw)
	}
	return row, nil
}

// Auth events

func UserRegistered(userID uint, email, ip, userAgent string) Entry {
	return Entry{UserID: &userID, Action: "user_registered", Category: models.CategoryAuth,
		Data: map[string]interface{}{"email": email}, IPAddress: ip, UserAgent: userAgent}
}

func UserLogin(userID uint, email, ip, userAgent string) Entry {
	return Entry{UserID: &userID, Action: "user_login", Category: models.CategoryAuth,
		Data: map[string]interface{}{"email": email}, IPAddress: ip, UserAgent: userAgent}
}

func LoginFailed(userID *uint, email, reason, ip, userAgent string) Entry {
	return Entry{UserID: userID, Action: "login_failed", Category: models.CategoryAuth,
		Data: map[string]interface{}{"email": email, "reason": reason}, IPAddress: ip, UserAgent: userAgent}
}

func UserLogout(userID uint, ip, userAgent string) Entry {
	return Entry{UserID: &userID, Action: "user_logout", Category: models.CategoryAuth,
		IPAddress: ip, UserAgent: userAgent}
}

func PasswordChanged(userID uint, ip, userAgent string) Entry {
	return Entry{UserID: &userID, Action: "password_changed", Category: models.CategoryAuth,
		IPAddress: ip, UserAgent: userAgent}
}

// Profile events

func ProfileUpdated(userID uint, fields []string, ip, userAgent string) Entry {
	return Entry{UserID: &userID, Action: "profile_updated", Category: models.CategoryProfile,
		Data: map[string]interface{}{"fields": fields}, IPAddress: ip, UserAgent: userAgent}
}

// Property events

func PropertyViewed(userID *uint, propertyID uint, title, ip, userAgent string) Entry {
	return Entry{UserID: userID, Action: "property_viewed", Category: models.CategoryProperty,
		Data:      map[string]interface{}{"property_id": propertyID, "property_title": title},
		IPAddress: ip, UserAgent: userAgent}
}

func PropertyEnquiry(userID *uint, propertyID, enquiryID uint, enquiryType, ip, userAgent string) Entry {
	return Entry{UserID: userID, Action: "property_enquiry", Category: models.CategoryProperty,
		Data:      map[string]interface{}{"property_id": propertyID, "enquiry_id": enquiryID, "enquiry_type": enquiryType},
		IPAddress: ip, UserAgent: userAgent}
}

func PropertyInterest(userID *uint, propertyID uint, interestType models.InterestType, ip, userAgent string) Entry {
	return Entry{UserID: userID, Action: "property_" + string(interestType), Category: models.CategoryProperty,
		Data:      map[string]interface{}{"property_id": propertyID, "interest_type": interestType},
		IPAddress: ip, UserAgent: userAgent}
}

// System events

func SystemCleanup(kind string, deleted int64, olderThanDays int) Entry {
	return Entry{Action: "system_cleanup", Category: models.CategorySystem,
		Data: map[string]interface{}{"type": kind, "records_deleted": deleted, "older_than_days": olderThanDays}}
}
