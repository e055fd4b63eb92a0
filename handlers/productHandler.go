package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wayfinder/models"
	"wayfinder/services"
)

type ProductHandler struct {
	service *services.ProductService
}

func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	// Search routes before the id route so "search" never matches as an id.
	router.HandleFunc("/products/search", h.Search).Methods("GET")
	router.HandleFunc("/products/search/lexical", h.LexicalSearch).Methods("GET")
	router.HandleFunc("/products/search/hybrid", h.HybridSearch).Methods("GET")
	router.HandleFunc("/products", h.List).Methods("GET")
	router.HandleFunc("/products/{product_id}", h.GetByID).Methods("GET")
}

func intQueryParam(r *http.Request, key string, fallback int) int {
	if value, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && value >= 0 {
		return value
	}
	return fallback
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit := intQueryParam(r, "limit", 20)
	offset := intQueryParam(r, "offset", 0)

	resp, err := h.service.List(r.Context(), category, limit, offset)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, h.service.Search)
}

func (h *ProductHandler) LexicalSearch(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, h.service.LexicalSearch)
}

func (h *ProductHandler) HybridSearch(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, h.service.HybridSearch)
}

func (h *ProductHandler) search(w http.ResponseWriter, r *http.Request,
	run func(ctx context.Context, query string, limit int) (*models.ProductSearchResponse, error)) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	limit := intQueryParam(r, "limit", 20)

	resp, err := run(r.Context(), query, limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Search failed")
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["product_id"]

	product, err := h.service.GetByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Product not found")
		} else {
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve product")
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, product)
}
