package search

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"dreambid/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

const (
	DefaultIndex     = "properties"
	defaultLimit     = 20
	reindexBatchSize = 500

	breakerThreshold = 3
	breakerReset     = 30 * time.Second
)

// PropertyDocument is the indexed form of a property
type PropertyDocument struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	PropertyType  string  `json:"property_type"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	ReservePrice  float64 `json:"reserve_price"`
	AuctionDate   int64   `json:"auction_date"`
	AuctionStatus string  `json:"auction_status"`
	IsFeatured    bool    `json:"is_featured"`
	CreatedAt     int64   `json:"created_at"`
}

// NewDocument converts a property into its indexed form
func NewDocument(p *models.Property) PropertyDocument {
	return PropertyDocument{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		PropertyType:  p.PropertyType,
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		ReservePrice:  p.ReservePrice,
		AuctionDate:   p.AuctionDate.Unix(),
		AuctionStatus: string(p.AuctionStatus),
		IsFeatured:    p.IsFeatured,
		CreatedAt:     p.CreatedAt.Unix(),
	}
}

type SearchClient struct {
	client  *meilisearch.Client
	index   string
	breaker *CircuitBreaker
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = DefaultIndex
	}

	return &SearchClient{
		client:  client,
		index:   index,
		breaker: NewCircuitBreaker(breakerThreshold, breakerReset),
	}
}

// Healthy reports whether the Meilisearch server answers
func (s *SearchClient) Healthy() bool {
	return s.client.IsHealthy()
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Creating an existing index only fails the async task
	if _, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("Search: create index %s: %v", s.index, err)
	}

	index := s.client.Index(s.index)
	if _, err := index.UpdateSearchableAttributes(&[]string{
		"title",
		"address",
		"city",
		"state",
		"property_type",
		"description",
	}); err != nil {
		return fmt.Errorf("failed to set searchable attributes: %w", err)
	}

	if _, err := index.UpdateFilterableAttributes(&[]string{
		"city",
		"property_type",
		"auction_status",
		"reserve_price",
		"is_featured",
	}); err != nil {
		return fmt.Errorf("failed to set filterable attributes: %w", err)
	}

	if _, err := index.UpdateSortableAttributes(&[]string{
		"reserve_price",
		"auction_date",
		"created_at",
	}); err != nil {
		return fmt.Errorf("failed to set sortable attributes: %w", err)
	}

	return nil
}

// IndexProperty adds or replaces a single property. It fails fast with
// ErrUnavailable while the breaker is open.
func (s *SearchClient) IndexProperty(property *models.Property) error {
	doc := NewDocument(property)
	return s.breaker.guard(func() error {
		_, err := s.client.Index(s.index).AddDocuments([]PropertyDocument{doc})
		return err
	})
}

// DeleteProperty removes a property from the index
func (s *SearchClient) DeleteProperty(id uint) error {
	return s.breaker.guard(func() error {
		_, err := s.client.Index(s.index).DeleteDocument(strconv.FormatUint(uint64(id), 10))
		return err
	})
}

// Reindex replaces the index content with properties
func (s *SearchClient) Reindex(properties []models.Property) (int, error) {
	index := s.client.Index(s.index)
	if _, err := index.DeleteAllDocuments(); err != nil {
		return 0, fmt.Errorf("failed to clear index: %w", err)
	}
	if len(properties) == 0 {
		return 0, nil
	}

	docs := make([]PropertyDocument, 0, len(properties))
	for i := range properties {
		docs = append(docs, NewDocument(&properties[i]))
	}
	if _, err := index.AddDocumentsInBatches(docs, reindexBatchSize); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}
	return len(docs), nil
}

// SearchRequest represents search parameters
type SearchRequest struct {
	Query  string
	Filter FilterParams
	SortBy string
	Limit  int64
	Offset int64
}

// SearchResult holds matching property ids in rank order
type SearchResult struct {
	IDs            []uint
	TotalHits      int64
	ProcessingTime int64
}

// Search runs a full-text query and returns the ranked property ids
func (s *SearchClient) Search(req SearchRequest) (*SearchResult, error) {
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:                req.Limit,
		Offset:               req.Offset,
		AttributesToRetrieve: []string{"id"},
	}
	if filter := BuildFilter(req.Filter); filter != "" {
		searchReq.Filter = filter
	}
	if sort := SortFor(req.SortBy); sort != nil {
		searchReq.Sort = sort
	}

	searchRes, err := s.client.Index(s.index).Search(req.Query, searchReq)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		IDs:            hitIDs(searchRes.Hits),
		TotalHits:      searchRes.EstimatedTotalHits,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// hitIDs extracts document ids from raw search hits
func hitIDs(hits []interface{}) []uint {
	ids := make([]uint, 0, len(hits))
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		switch id := hitMap["id"].(type) {
		case float64:
			if id > 0 {
				ids = append(ids, uint(id))
			}
		case string:
			if n, err := strconv.ParseUint(id, 10, 64); err == nil {
				ids = append(ids, uint(n))
			}
		}
	}
	return ids
}
