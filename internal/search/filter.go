package search

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterParams narrows a search to structured attributes
type FilterParams struct {
	City         string
	PropertyType string
	Status       string
	MinPrice     *float64
	MaxPrice     *float64
	FeaturedOnly bool
}

// BuildFilter renders params as a Meilisearch filter expression
func BuildFilter(params FilterParams) string {
	var filters []string

	if params.City != "" {
		filters = append(filters, fmt.Sprintf("city = %s", quote(params.City)))
	}
	if params.PropertyType != "" {
		filters = append(filters, fmt.Sprintf("property_type = %s", quote(params.PropertyType)))
	}
	if params.Status != "" {
		filters = append(filters, fmt.Sprintf("auction_status = %s", quote(params.Status)))
	}
	if params.MinPrice != nil {
		filters = append(filters, "reserve_price >= "+strconv.FormatFloat(*params.MinPrice, 'f', -1, 64))
	}
	if params.MaxPrice != nil {
		filters = append(filters, "reserve_price <= "+strconv.FormatFloat(*params.MaxPrice, 'f', -1, 64))
	}
	if params.FeaturedOnly {
		filters = append(filters, "is_featured = true")
	}

	return strings.Join(filters, " AND ")
}

// SortFor maps a listing sort key to Meilisearch sort rules. Relevance
// ordering is used when sortBy is empty or unknown.
func SortFor(sortBy string) []string {
	switch sortBy {
	case "reserve_price":
		return []string{"reserve_price:asc"}
	case "reserve_price_desc":
		return []string{"reserve_price:desc"}
	case "auction_date":
		return []string{"auction_date:asc"}
	case "created_at":
		return []string{"created_at:desc"}
	}
	return nil
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
