package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"wayfinder/models"
	"wayfinder/services"
)

type ClickstreamHandler struct {
	service *services.ClickstreamService
}

func NewClickstreamHandler(service *services.ClickstreamService) *ClickstreamHandler {
	return &ClickstreamHandler{service: service}
}

func (h *ClickstreamHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/clickstream/track", h.Track).Methods("POST")
	router.HandleFunc("/clickstream/{user_id}/stats", h.Stats).Methods("GET")
	router.HandleFunc("/clickstream/{user_id}/events", h.Events).Methods("GET")
	router.HandleFunc("/clickstream/{user_id}", h.ClearUser).Methods("DELETE")
}

func (h *ClickstreamHandler) Track(w http.ResponseWriter, r *http.Request) {
	var event models.ClickEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil || event.UserID == "" || event.Action == "" {
		writeErrorResponse(w, http.StatusBadRequest, "user_id and action are required")
		return
	}

	if err := h.service.Track(r.Context(), event); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to track event")
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]string{"status": "tracked"})
}

func (h *ClickstreamHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}
	writeJSONResponse(w, http.StatusOK, stats)
}

func (h *ClickstreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	limit := intQueryParam(r, "limit", 20)

	events, err := h.service.Events(r.Context(), userID, limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"events": events})
}

func (h *ClickstreamHandler) ClearUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	deleted, err := h.service.ClearUser(r.Context(), userID)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to clear events")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"deleted": deleted})
}
