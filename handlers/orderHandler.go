package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"wayfinder/models"
	"wayfinder/services"
)

type OrderHandler struct {
	service *services.OrderService
}

func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/orders", h.Create).Methods("POST")
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var order models.OrderCreate
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil || order.UserID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "user_id is required")
		return
	}

	confirmation, err := h.service.Create(r.Context(), order)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusCreated, confirmation)
}
