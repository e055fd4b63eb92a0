package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"wayfinder/models"
	"wayfinder/services/docstore"
)

const clickstreamIndex = "user-clickstream"

// ClickstreamService records shopper behavior events and answers simple
// per-user analytics over them.
type ClickstreamService struct {
	store    *docstore.Client
	products *ProductService
}

func NewClickstreamService(store *docstore.Client, products *ProductService) *ClickstreamService {
	return &ClickstreamService{store: store, products: products}
}

// Track stores one behavior event.
func (s *ClickstreamService) Track(ctx context.Context, event models.ClickEvent) error {
	doc := map[string]any{
		"user_id":   event.UserID,
		"action":    event.Action,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if event.ProductID != "" {
		doc["product_id"] = event.ProductID
	}
	if event.Tag != "" {
		doc["tag"] = event.Tag
	}

	if err := s.store.Index(ctx, clickstreamIndex, uuid.New().String(), doc); err != nil {
		return fmt.Errorf("failed to track event: %w", err)
	}
	return nil
}

// Stats aggregates a user's event counts by action.
func (s *ClickstreamService) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	result, err := s.store.Search(ctx, clickstreamIndex, map[string]any{
		"size": 0,
		"query": map[string]any{
			"term": map[string]any{"user_id.keyword": userID},
		},
		"aggs": map[string]any{
			"actions": map[string]any{
				"terms": map[string]any{"field": "action.keyword", "size": 20},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}

	stats := &models.UserStats{UserID: userID, TotalEvents: result.Total}
	agg, _ := result.Aggregations["actions"].(map[string]any)
	buckets, _ := agg["buckets"].([]any)
	for _, b := range buckets {
		bucket, _ := b.(map[string]any)
		key, _ := bucket["key"].(string)
		count, _ := bucket["doc_count"].(float64)
		switch key {
		case "view_item":
			stats.TotalViews = int(count)
		case "add_to_cart":
			stats.TotalCartAdds = int(count)
		}
	}
	return stats, nil
}

// Events lists a user's recent events, newest first, resolving product titles
// where possible.
func (s *ClickstreamService) Events(ctx context.Context, userID string, limit int) ([]models.UserEvent, error) {
	result, err := s.store.Search(ctx, clickstreamIndex, map[string]any{
		"size": limit,
		"query": map[string]any{
			"term": map[string]any{"user_id.keyword": userID},
		},
		"sort": []any{map[string]any{"timestamp": "desc"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load user events: %w", err)
	}

	titles := make(map[string]string)
	events := make([]models.UserEvent, 0, len(result.Hits))
	for _, hit := range result.Hits {
		productID, _ := hit.Source["product_id"].(string)
		action, _ := hit.Source["action"].(string)
		timestamp, _ := hit.Source["timestamp"].(string)

		name := ""
		if productID != "" {
			cached, ok := titles[productID]
			if !ok {
				if product, err := s.products.GetByID(ctx, productID); err == nil {
					cached, _ = product["title"].(string)
				} else if !errors.Is(err, ErrProductNotFound) {
					log.Printf("[WARN] Title lookup failed for %s: %v", productID, err)
				}
				titles[productID] = cached
			}
			name = cached
		}

		events = append(events, models.UserEvent{
			ProductID:   productID,
			ProductName: name,
			Timestamp:   timestamp,
			Action:      action,
		})
	}
	return events, nil
}

// ClearUser deletes all events for a user and reports how many were removed.
func (s *ClickstreamService) ClearUser(ctx context.Context, userID string) (int, error) {
	deleted, err := s.store.DeleteByQuery(ctx, clickstreamIndex, map[string]any{
		"query": map[string]any{
			"term": map[string]any{"user_id.keyword": userID},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear user events: %w", err)
	}
	log.Printf("[INFO] Cleared %d clickstream events for user %s", deleted, userID)
	return deleted, nil
}
