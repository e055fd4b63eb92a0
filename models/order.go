package models

type OrderCreate struct {
	UserID          string         `json:"user_id"`
	ShippingAddress map[string]any `json:"shipping_address"`
	PaymentInfo     map[string]any `json:"payment_info"`
}

type OrderConfirmation struct {
	OrderID            string `json:"order_id"`
	ConfirmationNumber string `json:"confirmation_number"`
	Status             string `json:"status"`
	Message            string `json:"message"`
}
