package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/database"
	"dreambid/internal/middleware"
	"dreambid/internal/models"
	"dreambid/internal/search"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

// PropertyHandler serves property listings
type PropertyHandler struct {
	db         *database.GormDB
	reconciler Reconciler
	search     SearchIndex
	events     ActivityLogger
	policy     *bluemonday.Policy
}

// NewPropertyHandler creates a new property handler. index may be nil when
// search is not configured.
func NewPropertyHandler(db *database.GormDB, reconciler Reconciler, index SearchIndex, events ActivityLogger) *PropertyHandler {
	return &PropertyHandler{
		db:         db,
		reconciler: reconciler,
		search:     index,
		events:     events,
		policy:     bluemonday.UGCPolicy(),
	}
}

// propertyInput is the writable part of a property. Nil fields are left unchanged.
type propertyInput struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	PropertyType  *string  `json:"property_type"`
	Address       *string  `json:"address"`
	City          *string  `json:"city"`
	State         *string  `json:"state"`
	ZipCode       *string  `json:"zip_code"`
	Country       *string  `json:"country"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	AreaSqft      *float64 `json:"area_sqft"`
	Bedrooms      *int     `json:"bedrooms"`
	Bathrooms     *int     `json:"bathrooms"`
	Floors        *int     `json:"floors"`
	ReservePrice  *float64 `json:"reserve_price"`
	AuctionDate   *string  `json:"auction_date"`
	AuctionStatus *string  `json:"auction_status"`
	IsFeatured    *bool    `json:"is_featured"`
	CoverImageURL *string  `json:"cover_image_url"`
	PDFURL        *string  `json:"pdf_url"`

	auctionDate time.Time
}

// validate checks field values; creating additionally requires the core fields
func (in *propertyInput) validate(creating bool) error {
	required := []struct {
		name  string
		value *string
	}{
		{"title", in.Title},
		{"address", in.Address},
		{"city", in.City},
		{"auction_date", in.AuctionDate},
	}
	for _, field := range required {
		if field.value == nil {
			if creating {
				return errors.New(field.name + " is required")
			}
			continue
		}
		if strings.TrimSpace(*field.value) == "" {
			return errors.New(field.name + " cannot be empty")
		}
	}
	if in.ReservePrice != nil && *in.ReservePrice < 0 {
		return errors.New("reserve_price must be non-negative")
	}
	if in.AuctionDate != nil {
		date, err := time.Parse(time.RFC3339, *in.AuctionDate)
		if err != nil {
			return errors.New("auction_date must be an RFC3339 timestamp")
		}
		in.auctionDate = date.UTC()
	}
	if in.AuctionStatus != nil && !lo.Contains(models.AuctionStatuses, models.AuctionStatus(*in.AuctionStatus)) {
		return errors.New("invalid auction_status")
	}
	return nil
}

// updates renders the provided fields as a column map
func (in *propertyInput) updates(policy *bluemonday.Policy) map[string]interface{} {
	updates := make(map[string]interface{})
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setString("title", in.Title)
	setString("property_type", in.PropertyType)
	setString("address", in.Address)
	setString("city", in.City)
	setString("state", in.State)
	setString("zip_code", in.ZipCode)
	setString("country", in.Country)
	setString("cover_image_url", in.CoverImageURL)
	setString("pdf_url", in.PDFURL)
	if in.Description != nil {
		updates["description"] = policy.Sanitize(*in.Description)
	}
	if in.Latitude != nil {
		updates["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		updates["longitude"] = *in.Longitude
	}
	if in.AreaSqft != nil {
		updates["area_sqft"] = *in.AreaSqft
	}
	if in.Bedrooms != nil {
		updates["bedrooms"] = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		updates["bathrooms"] = *in.Bathrooms
	}
	if in.Floors != nil {
		updates["floors"] = *in.Floors
	}
	if in.ReservePrice != nil {
		updates["reserve_price"] = *in.ReservePrice
	}
	if in.AuctionDate != nil {
		updates["auction_date"] = in.auctionDate
	}
	if in.AuctionStatus != nil {
		updates["auction_status"] = *in.AuctionStatus
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	return updates
}

// List handles GET /api/properties
func (h *PropertyHandler) List(c *gin.Context) {
	filter, ok := parsePropertyFilter(c)
	if !ok {
		return
	}

	// Statuses are brought up to date before every public read
	h.reconciler.Run(c.Request.Context())

	properties, total, err := h.db.ListProperties(c.Request.Context(), filter)
	if err != nil {
		serverError(c, "Failed to fetch properties", err)
		return
	}

	filter.Normalize()
	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"pagination": gin.H{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
			"pages": pageCount(total, filter.Limit),
		},
	})
}

func parsePropertyFilter(c *gin.Context) (database.PropertyFilter, bool) {
	var filter database.PropertyFilter
	badRequest := func(msg string) (database.PropertyFilter, bool) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return filter, false
	}

	if raw, present := c.GetQuery("status"); present {
		status := models.AuctionStatus(raw)
		if status != "" && !lo.Contains(models.AuctionStatuses, status) {
			return badRequest("Invalid status")
		}
		filter.Status = &status
	}
	filter.City = strings.TrimSpace(c.Query("city"))
	filter.PropertyType = strings.TrimSpace(c.Query("property_type"))

	var err error
	if filter.MinPrice, err = queryFloat(c, "min_price"); err != nil {
		return badRequest("min_price must be a number")
	}
	if filter.MaxPrice, err = queryFloat(c, "max_price"); err != nil {
		return badRequest("max_price must be a number")
	}

	filter.SortBy = c.Query("sort_by")
	if !database.IsValidSort(filter.SortBy) {
		return badRequest("Invalid sort_by")
	}

	if filter.Page, err = queryInt(c, "page", 1); err != nil || filter.Page < 1 {
		return badRequest("page must be a positive integer")
	}
	if filter.Limit, err = queryInt(c, "limit", database.DefaultPageLimit); err != nil || filter.Limit < 1 || filter.Limit > database.MaxPageLimit {
		return badRequest("limit must be between 1 and 1000")
	}
	return filter, true
}

// Search handles GET /api/properties/search
func (h *PropertyHandler) Search(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not configured"})
		return
	}

	filter, ok := parsePropertyFilter(c)
	if !ok {
		return
	}

	params := search.FilterParams{
		City:         filter.City,
		PropertyType: filter.PropertyType,
		MinPrice:     filter.MinPrice,
		MaxPrice:     filter.MaxPrice,
	}
	if filter.Status != nil {
		params.Status = string(*filter.Status)
	}

	query := strings.TrimSpace(c.Query("q"))
	result, err := h.search.Search(search.SearchRequest{
		Query:  query,
		Filter: params,
		SortBy: filter.SortBy,
		Limit:  int64(filter.Limit),
		Offset: int64((filter.Page - 1) * filter.Limit),
	})
	if err != nil {
		serverError(c, "Search failed", err)
		return
	}

	// The index can lag behind status changes, so rows are reloaded from the
	// database and expired auctions dropped unless a status was requested.
	properties, err := h.db.ActivePropertiesByIDs(c.Request.Context(), result.IDs)
	if err != nil {
		serverError(c, "Failed to load search results", err)
		return
	}
	if filter.Status == nil {
		properties = lo.Filter(properties, func(p models.Property, _ int) bool {
			return p.AuctionStatus != models.AuctionStatusExpired
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"query":              query,
		"properties":         properties,
		"total_hits":         result.TotalHits,
		"processing_time_ms": result.ProcessingTime,
		"page":               filter.Page,
		"limit":              filter.Limit,
	})
}

// Get handles GET /api/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	property, err := h.db.GetActiveProperty(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		serverError(c, "Failed to fetch property", err)
		return
	}

	if err := h.db.IncrementCounter(ctx, id, "views_count"); err != nil {
		log.Printf("API: failed to count view of property %d: %v", id, err)
	} else {
		property.ViewsCount++
	}

	ip, ua := clientInfo(c)
	h.events.Log(activity.PropertyViewed(middleware.CurrentUserID(c), property.ID, property.Title, ip, ua))

	c.JSON(http.StatusOK, gin.H{"property": property})
}

// Create handles POST /api/properties
func (h *PropertyHandler) Create(c *gin.Context) {
	var in propertyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := in.validate(true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property := &models.Property{
		AuctionDate:   in.auctionDate,
		AuctionStatus: models.AuctionStatusUpcoming,
		IsActive:      true,
		CreatedBy:     middleware.CurrentUserID(c),
	}
	applyInput(property, &in, h.policy)

	if err := h.db.CreateProperty(c.Request.Context(), property); err != nil {
		serverError(c, "Failed to create property", err)
		return
	}
	h.index(property)

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Property created successfully",
		"property": property,
	})
}

// Update handles PUT /api/properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var in propertyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := in.validate(false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := in.updates(h.policy)
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	property, err := h.db.UpdateProperty(c.Request.Context(), id, updates)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		serverError(c, "Failed to update property", err)
		return
	}
	h.index(property)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Property updated successfully",
		"property": property,
	})
}

// Delete handles DELETE /api/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.db.SoftDeleteProperty(c.Request.Context(), id); err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		serverError(c, "Failed to delete property", err)
		return
	}

	if h.search != nil {
		if err := h.search.DeleteProperty(id); err != nil {
			log.Printf("Search: failed to remove property %d: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Property deleted successfully"})
}

func (h *PropertyHandler) index(property *models.Property) {
	if h.search == nil {
		return
	}
	if err := h.search.IndexProperty(property); err != nil {
		log.Printf("Search: failed to index property %d: %v", property.ID, err)
	}
}

// applyInput copies the provided fields onto a new property
func applyInput(p *models.Property, in *propertyInput, policy *bluemonday.Policy) {
	str := func(v *string) string {
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	}
	p.Title = str(in.Title)
	p.PropertyType = str(in.PropertyType)
	p.Address = str(in.Address)
	p.City = str(in.City)
	p.State = str(in.State)
	p.ZipCode = str(in.ZipCode)
	p.Country = str(in.Country)
	p.CoverImageURL = str(in.CoverImageURL)
	p.PDFURL = str(in.PDFURL)
	if in.Description != nil {
		p.Description = policy.Sanitize(*in.Description)
	}
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
	p.AreaSqft = in.AreaSqft
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.Floors = in.Floors
	if in.ReservePrice != nil {
		p.ReservePrice = *in.ReservePrice
	}
	if in.AuctionStatus != nil {
		p.AuctionStatus = models.AuctionStatus(*in.AuctionStatus)
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
}
