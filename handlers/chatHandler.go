package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"wayfinder/models"
	"wayfinder/services/chat"
)

type ChatHandler struct {
	service        *chat.Service
	defaultAgentID string
}

func NewChatHandler(service *chat.Service, defaultAgentID string) *ChatHandler {
	return &ChatHandler{service: service, defaultAgentID: defaultAgentID}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chat", h.StreamChat).Methods("POST")
	router.HandleFunc("/parse-trip-context", h.ParseTripContext).Methods("POST")
	router.HandleFunc("/extract-itinerary", h.ExtractItinerary).Methods("POST")
	router.HandleFunc("/extract-trip-entities", h.ExtractTripEntities).Methods("POST")
	router.HandleFunc("/agent-status/{agent_id}", h.AgentStatus).Methods("GET")
}

// decodeChatRequest accepts the JSON body form or the legacy query-param
// form, applying defaults for user and agent ids.
func (h *ChatHandler) decodeChatRequest(r *http.Request) *models.ChatRequest {
	var req models.ChatRequest
	if r.Body != nil {
		// A missing or non-JSON body falls through to query params.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	query := r.URL.Query()
	if req.Message == "" {
		req.Message = query.Get("message")
	}
	if req.UserID == "" {
		req.UserID = query.Get("user_id")
	}
	if req.AgentID == "" {
		req.AgentID = query.Get("agent_id")
	}

	if req.UserID == "" {
		req.UserID = "user_new"
	}
	if req.AgentID == "" {
		req.AgentID = h.defaultAgentID
	}
	return &req
}

// StreamChat proxies one chat turn as a server-sent event stream. Validation
// failures get a 400 before any streaming headers are written.
func (h *ChatHandler) StreamChat(w http.ResponseWriter, r *http.Request) {
	req := h.decodeChatRequest(r)

	if err := h.service.Validate(req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	emit := func(eventType string, data any) error {
		payload, err := chat.EncodeSSE(eventType, data)
		if err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	log.Printf("[INFO] Chat stream start: user=%s agent=%s image=%t",
		req.UserID, req.AgentID, req.ImageBase64 != "")

	if err := h.service.Stream(r.Context(), req, emit); err != nil {
		// The client connection is gone; nothing more can be written.
		log.Printf("[INFO] Chat stream ended early: %v", err)
	}
}

func (h *ChatHandler) ParseTripContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeErrorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	tripContext, err := h.service.ParseTripContext(r.Context(), req.Message)
	if err != nil {
		writeErrorResponse(w, http.StatusBadGateway, "Trip context extraction failed")
		return
	}

	writeJSONResponse(w, http.StatusOK, tripContext)
}

func (h *ChatHandler) ExtractItinerary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TripPlan string `json:"trip_plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TripPlan == "" {
		writeErrorResponse(w, http.StatusBadRequest, "trip_plan is required")
		return
	}

	itinerary, err := h.service.ExtractItinerary(r.Context(), req.TripPlan)
	if err != nil {
		writeErrorResponse(w, http.StatusBadGateway, "Itinerary extraction failed")
		return
	}

	writeJSONResponse(w, http.StatusOK, itinerary)
}

func (h *ChatHandler) ExtractTripEntities(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TripPlan string `json:"trip_plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TripPlan == "" {
		writeErrorResponse(w, http.StatusBadRequest, "trip_plan is required")
		return
	}

	entities, err := h.service.ExtractTripEntities(r.Context(), req.TripPlan)
	if err != nil {
		writeErrorResponse(w, http.StatusBadGateway, "Trip entity extraction failed")
		return
	}

	writeJSONResponse(w, http.StatusOK, entities)
}

func (h *ChatHandler) AgentStatus(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agent_id"]

	exists := h.service.AgentStatus(r.Context(), agentID)
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"exists":   exists,
		"agent_id": agentID,
	})
}
