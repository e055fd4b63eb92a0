package models

type Product map[string]any

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

type ProductSearchResponse struct {
	Products    []Product `json:"products"`
	Total       int       `json:"total"`
	Query       string    `json:"query"`
	SearchType  string    `json:"search_type,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
}
