package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"wayfinder/models"
)

// ErrCartItemNotFound is returned when removing a product that is not in the
// user's cart.
var ErrCartItemNotFound = errors.New("item not in cart")

// CartService keeps per-user carts in memory for the lifetime of the process.
// Pricing is resolved from the catalog at read time so price edits show up
// without touching stored carts.
type CartService struct {
	mu       sync.Mutex
	carts    map[string]map[string]int // userID -> productID -> quantity
	products *ProductService
}

func NewCartService(products *ProductService) *CartService {
	return &CartService{
		carts:    make(map[string]map[string]int),
		products: products,
	}
}

// Add puts an item in the user's cart, merging quantities for repeat adds.
func (s *CartService) Add(ctx context.Context, userID string, item models.CartItem) (*models.CartResponse, error) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if _, err := s.products.GetByID(ctx, item.ProductID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	cart, ok := s.carts[userID]
	if !ok {
		cart = make(map[string]int)
		s.carts[userID] = cart
	}
	cart[item.ProductID] += item.Quantity
	s.mu.Unlock()

	log.Printf("[INFO] Cart add: user=%s product=%s qty=%d", userID, item.ProductID, item.Quantity)
	return s.Get(ctx, userID)
}

// Remove deletes one product line from the user's cart.
func (s *CartService) Remove(ctx context.Context, userID, productID string) (*models.CartResponse, error) {
	s.mu.Lock()
	cart := s.carts[userID]
	if _, ok := cart[productID]; !ok {
		s.mu.Unlock()
		return nil, ErrCartItemNotFound
	}
	delete(cart, productID)
	s.mu.Unlock()

	return s.Get(ctx, userID)
}

// Clear empties the user's cart.
func (s *CartService) Clear(userID string) {
	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()
}

// Get prices the cart against the catalog and applies loyalty perks.
func (s *CartService) Get(ctx context.Context, userID string) (*models.CartResponse, error) {
	s.mu.Lock()
	snapshot := make(map[string]int, len(s.carts[userID]))
	for productID, qty := range s.carts[userID] {
		snapshot[productID] = qty
	}
	s.mu.Unlock()

	lines := make([]models.CartLine, 0, len(snapshot))
	subtotal := 0.0
	for productID, qty := range snapshot {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				log.Printf("[WARN] Cart references missing product %s, skipping line", productID)
				continue
			}
			return nil, fmt.Errorf("failed to price cart: %w", err)
		}

		price, _ := product["price"].(float64)
		title, _ := product["title"].(string)
		imageURL, _ := product["image_url"].(string)
		lineTotal := price * float64(qty)

		lines = append(lines, models.CartLine{
			ProductID: productID,
			Title:     title,
			Price:     price,
			Quantity:  qty,
			Subtotal:  round2(lineTotal),
			ImageURL:  imageURL,
		})
		subtotal += lineTotal
	}

	discount, perks := loyaltyDiscount(userID, subtotal)
	return &models.CartResponse{
		Items:        lines,
		Subtotal:     round2(subtotal),
		Discount:     round2(discount),
		Total:        round2(subtotal - discount),
		LoyaltyPerks: perks,
	}, nil
}

// loyaltyDiscount derives perks from the user id prefix. Tiers come from the
// storefront's demo user pool.
func loyaltyDiscount(userID string, subtotal float64) (float64, []string) {
	tiers := map[string]struct {
		rate float64
		perk string
	}{
		"platinum": {0.10, "Platinum member: 10% off every order"},
		"business": {0.15, "Business account: 15% volume discount"},
	}

	if tier, ok := tiers[tierPrefix(userID)]; ok {
		return subtotal * tier.rate, []string{tier.perk}
	}
	return 0, []string{}
}

func tierPrefix(userID string) string {
	for i := range userID {
		if userID[i] == '-' || userID[i] == '_' {
			return userID[:i]
		}
	}
	return userID
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
