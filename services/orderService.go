package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"wayfinder/models"
	"wayfinder/services/docstore"
)

const orderIndex = "customer-orders"

// OrderService creates order confirmations. The storefront is a demo; no
// payment is processed and persistence is best effort.
type OrderService struct {
	store *docstore.Client
	carts *CartService
}

func NewOrderService(store *docstore.Client, carts *CartService) *OrderService {
	return &OrderService{store: store, carts: carts}
}

// Create confirms an order from the user's current cart and clears it. Card
// numbers are masked down to the last four digits before anything is stored.
func (s *OrderService) Create(ctx context.Context, order models.OrderCreate) (*models.OrderConfirmation, error) {
	cart, err := s.carts.Get(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	orderID := uuid.New().String()
	confirmation := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	doc := map[string]any{
		"order_id":            orderID,
		"confirmation_number": confirmation,
		"user_id":             order.UserID,
		"items":               cart.Items,
		"subtotal":            cart.Subtotal,
		"discount":            cart.Discount,
		"total":               cart.Total,
		"shipping_address":    order.ShippingAddress,
		"payment_last4":       cardLast4(order.PaymentInfo),
		"status":              "confirmed",
		"created_at":          time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.store.Index(ctx, orderIndex, orderID, doc); err != nil {
		log.Printf("[WARN] Order %s not persisted: %v", orderID, err)
	}

	s.carts.Clear(order.UserID)
	log.Printf("[INFO] Order %s confirmed for user %s (total %.2f)", confirmation, order.UserID, cart.Total)

	return &models.OrderConfirmation{
		OrderID:            orderID,
		ConfirmationNumber: confirmation,
		Status:             "confirmed",
		Message:            fmt.Sprintf("Order confirmed! Your confirmation number is %s.", confirmation),
	}, nil
}

func cardLast4(paymentInfo map[string]any) string {
	number, _ := paymentInfo["card_number"].(string)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}
