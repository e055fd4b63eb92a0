package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"wayfinder/models"
	"wayfinder/services"
)

type CartHandler struct {
	service *services.CartService
}

func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/cart/{user_id}", h.Get).Methods("GET")
	router.HandleFunc("/cart/{user_id}", h.Add).Methods("POST")
	router.HandleFunc("/cart/{user_id}", h.Clear).Methods("DELETE")
	router.HandleFunc("/cart/{user_id}/{product_id}", h.Remove).Methods("DELETE")
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	cart, err := h.service.Get(r.Context(), userID)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve cart")
		return
	}
	writeJSONResponse(w, http.StatusOK, cart)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var item models.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.ProductID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "product_id is required")
		return
	}

	cart, err := h.service.Add(r.Context(), userID, item)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Product not found")
		} else {
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to add item to cart")
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, cart)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	cart, err := h.service.Remove(r.Context(), vars["user_id"], vars["product_id"])
	if err != nil {
		if errors.Is(err, services.ErrCartItemNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Item not in cart")
		} else {
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to remove item")
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, cart)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.service.Clear(mux.Vars(r)["user_id"])
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "cleared"})
}
