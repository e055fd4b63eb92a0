package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"wayfinder/models"
	"wayfinder/services/docstore"
)

const reviewIndex = "product-reviews"

// ErrInvalidRating is returned when a submitted rating falls outside 1-5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ReviewService stores reviews in the document store and keeps a rating
// rollup on the product document.
type ReviewService struct {
	store    *docstore.Client
	products *ProductService
}

func NewReviewService(store *docstore.Client, products *ProductService) *ReviewService {
	return &ReviewService{store: store, products: products}
}

// List returns reviews for a product, newest first.
func (s *ReviewService) List(ctx context.Context, productID string, limit, offset int) (*models.ReviewListResponse, error) {
	result, err := s.store.Search(ctx, reviewIndex, map[string]any{
		"size": limit,
		"from": offset,
		"query": map[string]any{
			"term": map[string]any{"product_id.keyword": productID},
		},
		"sort": []any{map[string]any{"created_at": "desc"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := lo.Map(result.Hits, func(hit docstore.SearchHit, _ int) models.Review {
		review := models.Review{}
		for k, v := range hit.Source {
			review[k] = v
		}
		review["id"] = hit.ID
		return review
	})

	return &models.ReviewListResponse{
		Reviews: reviews,
		Total:   result.Total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// Submit validates and stores a review, then refreshes the product's rating
// rollup. A rollup failure does not fail the submission.
func (s *ReviewService) Submit(ctx context.Context, productID, userID string, review models.ReviewCreate) (models.Review, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	doc := map[string]any{
		"product_id": productID,
		"user_id":    userID,
		"rating":     review.Rating,
		"title":      review.Title,
		"text":       review.Text,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.store.Index(ctx, reviewIndex, id, doc); err != nil {
		return nil, fmt.Errorf("failed to store review: %w", err)
	}

	if err := s.store.Refresh(ctx, reviewIndex); err != nil {
		log.Printf("[WARN] Review index refresh failed: %v", err)
	}
	if err := s.updateProductRollup(ctx, productID); err != nil {
		log.Printf("[WARN] Rating rollup update failed for %s: %v", productID, err)
	}

	stored := models.Review{"id": id}
	for k, v := range doc {
		stored[k] = v
	}
	return stored, nil
}

// updateProductRollup recomputes average_rating and review_count on the
// product document from all stored reviews.
func (s *ReviewService) updateProductRollup(ctx context.Context, productID string) error {
	result, err := s.store.Search(ctx, reviewIndex, map[string]any{
		"size": 1000,
		"query": map[string]any{
			"term": map[string]any{"product_id.keyword": productID},
		},
	})
	if err != nil {
		return err
	}
	if len(result.Hits) == 0 {
		return nil
	}

	ratings := lo.FilterMap(result.Hits, func(hit docstore.SearchHit, _ int) (float64, bool) {
		rating, ok := hit.Source["rating"].(float64)
		return rating, ok
	})
	if len(ratings) == 0 {
		return nil
	}

	average := lo.Sum(ratings) / float64(len(ratings))
	return s.store.Update(ctx, productIndex, productID, map[string]any{
		"average_rating": round2(average),
		"review_count":   len(ratings),
	})
}
