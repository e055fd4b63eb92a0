package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"wayfinder/services/vision"
)

type VisionHandler struct {
	service *vision.Service
}

func NewVisionHandler(service *vision.Service) *VisionHandler {
	return &VisionHandler{service: service}
}

func (h *VisionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/vision/analyze", h.Analyze).Methods("POST")
	router.HandleFunc("/vision/warm", h.Warm).Methods("POST")
}

func (h *VisionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageBase64 string `json:"image_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageBase64 == "" {
		writeErrorResponse(w, http.StatusBadRequest, "image_base64 is required")
		return
	}

	result, err := h.service.Analyze(r.Context(), req.ImageBase64)
	if err != nil {
		switch {
		case errors.Is(err, vision.ErrNotConfigured):
			writeErrorResponse(w, http.StatusServiceUnavailable, "Vision service not configured")
		case errors.Is(err, vision.ErrWarmingUp):
			writeErrorResponse(w, http.StatusServiceUnavailable, "Vision model is warming up, try again in a minute")
		default:
			writeErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

func (h *VisionHandler) Warm(w http.ResponseWriter, r *http.Request) {
	status := h.service.Warm(r.Context())
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": status})
}
