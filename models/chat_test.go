package models

import (
	"encoding/json"
	"testing"
)

func TestStepMarshalReasoning(t *testing.T) {
	step := Step{Type: StepTypeReasoning, Reasoning: "checking inventory"}

	data, err := json.Marshal(step)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var decoded map[string]any
	json.Unmarshal(data, &decoded)
	if len(decoded) != 2 {
		t.Errorf("reasoning step should carry exactly type and reasoning, got %v", decoded)
	}
	if decoded["reasoning"] != "checking inventory" {
		t.Errorf("reasoning = %v", decoded["reasoning"])
	}
}

func TestStepMarshalToolCallAlwaysHasResults(t *testing.T) {
	step := Step{
		Type:       StepTypeToolCall,
		ToolCallID: "t-1",
		ToolID:     "search",
		Params:     map[string]any{"q": "tents"},
	}

	data, err := json.Marshal(step)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var decoded map[string]any
	json.Unmarshal(data, &decoded)

	results, ok := decoded["results"].([]any)
	if !ok {
		t.Fatalf("results missing or wrong type: %v", decoded["results"])
	}
	if len(results) != 0 {
		t.Errorf("nil results should marshal as empty array, got %v", results)
	}
}
