package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"wayfinder/models"
)

const (
	tripContextAgentID  = "context-extractor-agent"
	itineraryAgentID    = "itinerary-extractor-agent"
	entityParserAgentID = "response-parser-agent"

	entityWorkflowName = "extract_trip_entities"
)

// collectMessage runs a synchronous (non-streamed to the client) upstream
// conversation and folds the frame stream down to the final message text:
// text chunks accumulate, a complete message or round response replaces the
// accumulated text.
func (s *Service) collectMessage(ctx context.Context, input, agentID string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	resp, err := s.openConverseStream(cctx, input, agentID)
	if err != nil {
		return "", fmt.Errorf("agent connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("agent returned status %d: %s", resp.StatusCode, string(body))
	}

	decoder := NewFrameDecoder()
	full := ""

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, frame := range decoder.Write(buf[:n]) {
				ev := Classify(frame.Data)
				switch ev.Kind {
				case KindTextChunk:
					full += ev.TextChunk
				case KindMessageComplete:
					full = ev.MessageContent
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("agent stream failed: %w", readErr)
		}
	}

	return full, nil
}

// ParseTripContext extracts destination, dates, and activity from a user
// message via the context-extractor agent.
func (s *Service) ParseTripContext(ctx context.Context, message string) (*models.TripContext, error) {
	full, err := s.collectMessage(ctx, message, tripContextAgentID)
	if err != nil {
		log.Printf("[ERROR] Trip context extraction failed: %v", err)
		return nil, err
	}

	parsed := ExtractJSON(full,
		[]string{"destination", "dates", "activity"},
		map[string]any{"destination": nil, "dates": nil, "activity": nil})

	return &models.TripContext{
		Destination: stringField(parsed, "destination"),
		Dates:       stringField(parsed, "dates"),
		Activity:    stringField(parsed, "activity"),
	}, nil
}

// ExtractItinerary extracts a structured day-by-day itinerary from a trip
// plan via the itinerary-extractor agent.
func (s *Service) ExtractItinerary(ctx context.Context, tripPlan string) (*models.Itinerary, error) {
	full, err := s.collectMessage(ctx, tripPlan, itineraryAgentID)
	if err != nil {
		log.Printf("[ERROR] Itinerary extraction failed: %v", err)
		return nil, err
	}

	parsed := ExtractJSON(full, []string{"days"}, map[string]any{"days": []any{}})

	days, _ := parsed["days"].([]any)
	if days == nil {
		days = []any{}
	}
	return &models.Itinerary{Days: days}, nil
}

// ExtractTripEntities extracts products, itinerary, safety notes, and weather
// from a trip plan for the sidebar panels. The upstream workflow runner is
// tried first; when it is unavailable the response-parser agent is called
// directly over the converse stream.
func (s *Service) ExtractTripEntities(ctx context.Context, tripPlan string) (*models.TripEntities, error) {
	ectx, cancel := context.WithTimeout(ctx, s.entityTimeout)
	defer cancel()

	if result, ok := s.runEntityWorkflow(ectx, tripPlan); ok {
		return parseExtractionResult(result), nil
	}

	full, err := s.collectMessage(ectx, tripPlan, entityParserAgentID)
	if err != nil {
		log.Printf("[ERROR] Trip entity extraction failed: %v", err)
		return nil, err
	}
	return parseExtractionResult(map[string]any{"response": full}), nil
}

// runEntityWorkflow invokes the upstream workflow runner. A false return means
// the caller should fall back to the direct agent call; workflow absence is an
// expected deployment state, not an error.
func (s *Service) runEntityWorkflow(ctx context.Context, tripPlan string) (map[string]any, bool) {
	payload, err := json.Marshal(map[string]any{
		"workflow_name": entityWorkflowName,
		"inputs":        map[string]any{"trip_plan_text": tripPlan},
	})
	if err != nil {
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.kibanaURL+"/api/workflows/run", bytes.NewReader(payload))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Authorization", "ApiKey "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("kbn-xsrf", "true")
	req.Header.Set("x-elastic-internal-origin", "kibana")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[WARN] Entity workflow unreachable, falling back to parser agent: %v", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[INFO] Entity workflow returned status %d, falling back to parser agent", resp.StatusCode)
		return nil, false
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("[WARN] Entity workflow response unreadable, falling back to parser agent: %v", err)
		return nil, false
	}
	return result, true
}

// parseExtractionResult digs the parser agent's message text out of the
// workflow or agent envelope and extracts the entity JSON from it.
func parseExtractionResult(result map[string]any) *models.TripEntities {
	responseText := ""
	if response, ok := result["response"].(string); ok {
		responseText = response
	} else if output, ok := result["output"]; ok {
		if outputMap, ok := output.(map[string]any); ok {
			if response, ok := outputMap["response"].(map[string]any); ok {
				responseText, _ = response["message"].(string)
			} else {
				responseText = fmt.Sprint(output)
			}
		} else {
			responseText = fmt.Sprint(output)
		}
	} else {
		responseText = fmt.Sprint(result)
	}

	parsed := ExtractJSON(responseText, []string{"products"}, map[string]any{
		"products":     []any{},
		"itinerary":    []any{},
		"safety_notes": []any{},
		"weather":      nil,
	})

	return &models.TripEntities{
		Products:    listField(parsed, "products"),
		Itinerary:   listField(parsed, "itinerary"),
		SafetyNotes: listField(parsed, "safety_notes"),
		Weather:     parsed["weather"],
	}
}

func listField(m map[string]any, key string) []any {
	if value, ok := m[key].([]any); ok {
		return value
	}
	return []any{}
}

func stringField(m map[string]any, key string) *string {
	if value, ok := m[key].(string); ok && value != "" {
		return &value
	}
	return nil
}
