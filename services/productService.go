package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"

	"wayfinder/models"
	"wayfinder/services/docstore"
)

const productIndex = "product-catalog"

// ErrProductNotFound is returned when a product id is unknown to the catalog.
var ErrProductNotFound = errors.New("product not found")

// ProductService reads the catalog from the document store and adds
// did-you-mean suggestions on searches that come back empty.
type ProductService struct {
	store *docstore.Client
}

func NewProductService(store *docstore.Client) *ProductService {
	return &ProductService{store: store}
}

func hitsToProducts(hits []docstore.SearchHit) []models.Product {
	return lo.Map(hits, func(hit docstore.SearchHit, _ int) models.Product {
		product := models.Product{}
		for k, v := range hit.Source {
			product[k] = v
		}
		product["id"] = hit.ID
		if len(hit.Highlight) > 0 {
			product["highlight"] = hit.Highlight
		}
		return product
	})
}

// List returns a page of the catalog, optionally filtered by category.
func (s *ProductService) List(ctx context.Context, category string, limit, offset int) (*models.ProductListResponse, error) {
	query := map[string]any{
		"size": limit,
		"from": offset,
		"sort": []any{map[string]any{"title.keyword": "asc"}},
	}
	if category != "" {
		query["query"] = map[string]any{
			"term": map[string]any{"category.keyword": category},
		}
	} else {
		query["query"] = map[string]any{"match_all": map[string]any{}}
	}

	result, err := s.store.Search(ctx, productIndex, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &models.ProductListResponse{
		Products: hitsToProducts(result.Hits),
		Total:    result.Total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

// Search runs a semantic multi-field search across the catalog.
func (s *ProductService) Search(ctx context.Context, queryText string, limit int) (*models.ProductSearchResponse, error) {
	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  queryText,
				"fields": []string{"title^3", "description", "category^2", "brand"},
			},
		},
	}

	result, err := s.store.Search(ctx, productIndex, query)
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}

	resp := &models.ProductSearchResponse{
		Products:   hitsToProducts(result.Hits),
		Total:      result.Total,
		Query:      queryText,
		SearchType: "semantic",
	}
	if result.Total == 0 {
		resp.Suggestions = s.suggestTerms(ctx, queryText)
	}
	return resp, nil
}

// LexicalSearch runs a fuzzy match search with hit highlighting.
func (s *ProductService) LexicalSearch(ctx context.Context, queryText string, limit int) (*models.ProductSearchResponse, error) {
	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"match": map[string]any{
				"title": map[string]any{
					"query":     queryText,
					"fuzziness": "AUTO",
				},
			},
		},
		"highlight": map[string]any{
			"fields": map[string]any{
				"title":       map[string]any{},
				"description": map[string]any{},
			},
		},
	}

	result, err := s.store.Search(ctx, productIndex, query)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	resp := &models.ProductSearchResponse{
		Products:   hitsToProducts(result.Hits),
		Total:      result.Total,
		Query:      queryText,
		SearchType: "lexical",
	}
	if result.Total == 0 {
		resp.Suggestions = s.suggestTerms(ctx, queryText)
	}
	return resp, nil
}

// HybridSearch combines lexical and semantic matching in one query.
func (s *ProductService) HybridSearch(ctx context.Context, queryText string, limit int) (*models.ProductSearchResponse, error) {
	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{
						"match": map[string]any{
							"title": map[string]any{
								"query": queryText,
								"boost": 2.0,
							},
						},
					},
					map[string]any{
						"multi_match": map[string]any{
							"query":  queryText,
							"fields": []string{"description", "category", "brand"},
						},
					},
				},
			},
		},
	}

	result, err := s.store.Search(ctx, productIndex, query)
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}

	resp := &models.ProductSearchResponse{
		Products:   hitsToProducts(result.Hits),
		Total:      result.Total,
		Query:      queryText,
		SearchType: "hybrid",
	}
	if result.Total == 0 {
		resp.Suggestions = s.suggestTerms(ctx, queryText)
	}
	return resp, nil
}

// GetByID fetches a single product document.
func (s *ProductService) GetByID(ctx context.Context, productID string) (models.Product, error) {
	source, err := s.store.Get(ctx, productIndex, productID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	product := models.Product{}
	for k, v := range source {
		product[k] = v
	}
	product["id"] = productID
	return product, nil
}

// suggestTerms fuzzy-matches a missed query against the category vocabulary
// so empty searches can offer a "did you mean".
func (s *ProductService) suggestTerms(ctx context.Context, queryText string) []string {
	vocabulary, err := s.categoryVocabulary(ctx)
	if err != nil {
		log.Printf("[WARN] Could not build suggestion vocabulary: %v", err)
		return nil
	}
	return suggestFromVocabulary(queryText, vocabulary)
}

// categoryVocabulary collects the distinct category and subcategory terms in
// the catalog via a terms aggregation.
func (s *ProductService) categoryVocabulary(ctx context.Context) ([]string, error) {
	result, err := s.store.Search(ctx, productIndex, map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"categories": map[string]any{
				"terms": map[string]any{"field": "category.keyword", "size": 50},
			},
			"subcategories": map[string]any{
				"terms": map[string]any{"field": "subcategory.keyword", "size": 100},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	var terms []string
	for _, aggName := range []string{"categories", "subcategories"} {
		agg, _ := result.Aggregations[aggName].(map[string]any)
		buckets, _ := agg["buckets"].([]any)
		for _, b := range buckets {
			bucket, _ := b.(map[string]any)
			if key, ok := bucket["key"].(string); ok && key != "" {
				terms = append(terms, key)
			}
		}
	}
	return lo.Uniq(terms), nil
}

func suggestFromVocabulary(queryText string, vocabulary []string) []string {
	if queryText == "" || len(vocabulary) == 0 {
		return nil
	}

	matches := fuzzy.RankFindNormalizedFold(queryText, vocabulary)
	sort.Sort(matches)

	suggestions := lo.FilterMap(matches, func(m fuzzy.Rank, _ int) (string, bool) {
		return m.Target, !strings.EqualFold(m.Target, queryText)
	})
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}
