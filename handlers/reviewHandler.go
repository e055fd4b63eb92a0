package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"wayfinder/models"
	"wayfinder/services"
)

type ReviewHandler struct {
	service *services.ReviewService
}

func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/products/{product_id}/reviews", h.List).Methods("GET")
	router.HandleFunc("/products/{product_id}/reviews", h.Submit).Methods("POST")
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["product_id"]
	limit := intQueryParam(r, "limit", 10)
	offset := intQueryParam(r, "offset", 0)

	resp, err := h.service.List(r.Context(), productID, limit, offset)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["product_id"]
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	var review models.ReviewCreate
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	stored, err := h.service.Submit(r.Context(), productID, userID, review)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRating):
			writeErrorResponse(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrProductNotFound):
			writeErrorResponse(w, http.StatusNotFound, "Product not found")
		default:
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to store review")
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, stored)
}
