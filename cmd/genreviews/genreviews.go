// genreviews seeds the review index with AI-generated reviews for every
// product in the catalog, matching a target rating distribution. Intended as
// a one-shot admin tool against a fresh store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"wayfinder/config"
	"wayfinder/services/chat"
	"wayfinder/services/docstore"
)

const (
	productIndex = "product-catalog"
	reviewIndex  = "product-reviews"

	reviewsPerProduct = 5
	maxAttempts       = 2
)

// Weighted toward positive reviews the way real storefront distributions
// skew.
var ratingPool = []int{5, 5, 5, 4, 4, 4, 3, 3, 2, 1}

var sampleUsernames = []string{
	"trailblazer_tom", "summit_sarah", "basecamp_bella", "ridgeline_ray",
	"alpine_annie", "gear_junkie_gus", "wandering_wren", "peak_bagger_pete",
	"mossy_boots", "cairn_collector",
}

var fallbackReviews = map[int][]string{
	5: {"Absolutely love it. Held up through a full season of weekend trips.",
		"Exceeded expectations. Worth every penny."},
	4: {"Solid gear, does what it says. Minor nitpicks but I'd buy again.",
		"Really good overall, just a bit heavier than listed."},
	3: {"Does the job. Nothing special but nothing broken either."},
	2: {"Disappointed with the build quality for the price."},
	1: {"Failed on the first trip out. Returning it."},
}

type generatedReview struct {
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

func main() {
	cfg := config.Load()

	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	if anthropicKey == "" {
		log.Fatal("ANTHROPIC_API_KEY environment variable is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(anthropicKey))
	store := docstore.NewClient(cfg.SearchURL, cfg.SearchAPIKey)
	ctx := context.Background()

	products, err := fetchAllProducts(ctx, store)
	if err != nil {
		log.Fatalf("Failed to load product catalog: %v", err)
	}
	log.Printf("[INFO] Generating reviews for %d products", len(products))

	for _, product := range products {
		title, _ := product.Source["title"].(string)
		ratings := pickRatings(reviewsPerProduct)

		reviews := generateReviews(ctx, &client, title, ratings)
		for _, review := range reviews {
			doc := map[string]any{
				"product_id": product.ID,
				"user_id":    sampleUsernames[rand.Intn(len(sampleUsernames))],
				"rating":     review.Rating,
				"title":      review.Title,
				"text":       review.Text,
				"created_at": randomPastDate().Format(time.RFC3339),
			}
			if err := store.Index(ctx, reviewIndex, uuid.New().String(), doc); err != nil {
				log.Printf("[ERROR] Failed to index review for %s: %v", product.ID, err)
			}
		}
		log.Printf("[INFO] Indexed %d reviews for %q", len(reviews), title)
	}

	if err := store.Refresh(ctx, reviewIndex); err != nil {
		log.Printf("[WARN] Review index refresh failed: %v", err)
	}
	log.Printf("[INFO] Review seeding complete")
}

func fetchAllProducts(ctx context.Context, store *docstore.Client) ([]docstore.SearchHit, error) {
	result, err := store.Search(ctx, productIndex, map[string]any{
		"size":  1000,
		"query": map[string]any{"match_all": map[string]any{}},
	})
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

func pickRatings(count int) []int {
	ratings := make([]int, count)
	for i := range ratings {
		ratings[i] = ratingPool[rand.Intn(len(ratingPool))]
	}
	return ratings
}

// generateReviews asks the model for a batch of reviews at the given star
// ratings. Transport or parse failures retry once, then fall back to static
// review text so seeding always completes.
func generateReviews(ctx context.Context, client *anthropic.Client, productTitle string, ratings []int) []generatedReview {
	prompt := fmt.Sprintf(
		"Write %d short customer reviews for an outdoor gear product called %q. "+
			"Use exactly these star ratings in order: %s. "+
			"Respond with only a JSON array of objects with keys rating, title, text. "+
			"Keep each text under 40 words and vary the voice between reviewers.",
		len(ratings), productTitle, strings.Trim(strings.Join(strings.Fields(fmt.Sprint(ratings)), ", "), "[]"))

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.ModelClaude4Sonnet20250514,
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			log.Printf("[WARN] Review generation attempt %d failed: %v", attempt, err)
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}

		text := ""
		for _, block := range response.Content {
			if b, ok := block.AsAny().(anthropic.TextBlock); ok {
				text += b.Text
			}
		}

		reviews, err := parseReviewBatch(text, ratings)
		if err != nil {
			log.Printf("[WARN] Could not parse generated reviews (attempt %d): %v", attempt, err)
			continue
		}
		return reviews
	}

	log.Printf("[WARN] Falling back to static reviews for %q", productTitle)
	return lo.Map(ratings, func(rating int, _ int) generatedReview {
		texts := fallbackReviews[rating]
		return generatedReview{
			Rating: rating,
			Title:  fmt.Sprintf("%d star review", rating),
			Text:   texts[rand.Intn(len(texts))],
		}
	})
}

func parseReviewBatch(text string, ratings []int) ([]generatedReview, error) {
	cleaned := chat.StripMarkdownCodeBlocks(text)

	var reviews []generatedReview
	if err := json.Unmarshal([]byte(cleaned), &reviews); err != nil {
		return nil, fmt.Errorf("invalid review JSON: %w", err)
	}
	if len(reviews) == 0 {
		return nil, fmt.Errorf("model returned an empty batch")
	}

	// Force the requested ratings so the distribution holds even when the
	// model improvises.
	for i := range reviews {
		if i < len(ratings) {
			reviews[i].Rating = ratings[i]
		}
	}
	if len(reviews) > len(ratings) {
		reviews = reviews[:len(ratings)]
	}
	return reviews, nil
}

func randomPastDate() time.Time {
	daysAgo := rand.Intn(365)
	return time.Now().UTC().AddDate(0, 0, -daysAgo)
}
