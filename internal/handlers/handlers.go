package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/models"
	"dreambid/internal/search"

	"github.com/gin-gonic/gin"
)

// ActivityLogger queues activity entries without blocking the request
type ActivityLogger interface {
	Log(entry activity.Entry)
}

// Reconciler brings auction statuses up to date, logging its own failures
type Reconciler interface {
	Run(ctx context.Context) int64
}

// SearchIndex is the full-text property index
type SearchIndex interface {
	IndexProperty(property *models.Property) error
	DeleteProperty(id uint) error
	Search(req search.SearchRequest) (*search.SearchResult, error)
	Reindex(properties []models.Property) (int, error)
}

// parseIDParam reads a positive integer path parameter, writing a 400 when invalid
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter
func queryInt(c *gin.Context, key string, defaultValue int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}

// queryFloat reads an optional float query parameter
func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// serverError logs err and answers with a generic 500
func serverError(c *gin.Context, message string, err error) {
	log.Printf("API: %s %s: %s: %v", c.Request.Method, c.Request.URL.Path, message, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func pageCount(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(total) / float64(limit)))
}

// clockOrDefault falls back to the wall clock
func clockOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func clientInfo(c *gin.Context) (string, string) {
	return c.ClientIP(), c.Request.UserAgent()
}
