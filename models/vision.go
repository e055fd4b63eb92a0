package models

// VisionResult is the outcome of analyzing a user-supplied image. Description
// is always set; the structured fields are present only when the collaborator
// returned a product-scene classification.
type VisionResult struct {
	Description string   `json:"description"`
	ProductType string   `json:"product_type,omitempty"`
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	KeyTerms    []string `json:"key_terms,omitempty"`
}
