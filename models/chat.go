package models

import "encoding/json"

type ChatRequest struct {
	Message        string        `json:"message"`
	UserID         string        `json:"user_id"`
	AgentID        string        `json:"agent_id"`
	ImageBase64    string        `json:"image_base64,omitempty"`
	VisionAnalysis *VisionResult `json:"vision_analysis,omitempty"`
}

// Step is one entry in the per-request transcript ledger: either a reasoning
// note or a tool invocation with its eventual results. Serialization is
// handled entirely by MarshalJSON, which picks the field set per step type.
type Step struct {
	Type       string
	Reasoning  string
	ToolCallID string
	ToolID     string
	Params     map[string]any
	Results    []any
}

const (
	StepTypeReasoning = "reasoning"
	StepTypeToolCall  = "tool_call"
)

// MarshalJSON keeps tool-call steps carrying an explicit (possibly empty)
// results array, while reasoning steps stay minimal.
func (s Step) MarshalJSON() ([]byte, error) {
	if s.Type == StepTypeReasoning {
		return json.Marshal(struct {
			Type      string `json:"type"`
			Reasoning string `json:"reasoning"`
		}{Type: s.Type, Reasoning: s.Reasoning})
	}
	results := s.Results
	if results == nil {
		results = []any{}
	}
	return json.Marshal(struct {
		Type       string         `json:"type"`
		ToolCallID string         `json:"tool_call_id"`
		ToolID     string         `json:"tool_id"`
		Params     map[string]any `json:"params"`
		Results    []any          `json:"results"`
	}{Type: s.Type, ToolCallID: s.ToolCallID, ToolID: s.ToolID, Params: s.Params, Results: results})
}

type TripContext struct {
	Destination *string `json:"destination"`
	Dates       *string `json:"dates"`
	Activity    *string `json:"activity"`
}

type Itinerary struct {
	Days []any `json:"days"`
}

// TripEntities is the structured breakdown of a trip plan used to populate
// the storefront's sidebar panels.
type TripEntities struct {
	Products    []any `json:"products"`
	Itinerary   []any `json:"itinerary"`
	SafetyNotes []any `json:"safety_notes"`
	Weather     any   `json:"weather"`
}
