package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"wayfinder/services/credentials"
	"wayfinder/services/vision"
)

type SettingsHandler struct {
	creds  *credentials.Manager
	vision *vision.Service
}

func NewSettingsHandler(creds *credentials.Manager, visionService *vision.Service) *SettingsHandler {
	return &SettingsHandler{creds: creds, vision: visionService}
}

func (h *SettingsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/settings/status", h.Status).Methods("GET")
	router.HandleFunc("/settings", h.Update).Methods("POST")
	router.HandleFunc("/settings/test/jina", h.TestJina).Methods("POST")
}

// Status reports which credentials are configured, never their values.
func (h *SettingsHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.creds.Status())
}

// Update stores runtime credential overrides. An empty value clears the
// override, falling back to the environment.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	for key, value := range req {
		if value == "" {
			h.creds.Clear(key)
		} else {
			h.creds.Set(key, value)
		}
	}
	writeJSONResponse(w, http.StatusOK, h.creds.Status())
}

func (h *SettingsHandler) TestJina(w http.ResponseWriter, r *http.Request) {
	ok, message := h.vision.TestConnection(r.Context())
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": ok,
		"message": message,
	})
}
