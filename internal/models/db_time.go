package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

var dbTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// DBTime scans aggregate timestamps such as MAX(created_at). Some drivers
// lose the column type on aggregates and return the value as text.
type DBTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner
func (t *DBTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("cannot scan %T into DBTime", value)
}

// Value implements driver.Valuer. GORM needs it to treat DBTime as a column
// rather than a relation.
func (t DBTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time, nil
}

// GormDataType maps DBTime onto the time column type
func (DBTime) GormDataType() string {
	return "time"
}

func (t *DBTime) parse(s string) error {
	for _, layout := range dbTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

// Ptr returns nil for NULL values
func (t DBTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
