package models

type ClickEvent struct {
	UserID    string `json:"user_id"`
	Action    string `json:"action"` // "view_item", "add_to_cart", "click_tag"
	ProductID string `json:"product_id,omitempty"`
	Tag       string `json:"tag,omitempty"`
}

type UserStats struct {
	UserID        string `json:"user_id"`
	TotalViews    int    `json:"total_views"`
	TotalCartAdds int    `json:"total_cart_adds"`
	TotalEvents   int    `json:"total_events"`
}

type UserEvent struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Timestamp   string `json:"timestamp"`
	Action      string `json:"action"`
}
