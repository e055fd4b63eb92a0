package chat

import (
	"encoding/json"
	"fmt"
)

// Client-facing event types carried in the {"type": ..., "data": ...} envelope.
const (
	EventVisionAnalyzing     = "vision_analyzing"
	EventVisionAnalysis      = "vision_analysis"
	EventVisionError         = "vision_error"
	EventConversationStarted = "conversation_started"
	EventReasoning           = "reasoning"
	EventToolCall            = "tool_call"
	EventToolResult          = "tool_result"
	EventMessageChunk        = "message_chunk"
	EventMessageComplete     = "message_complete"
	EventCompletion          = "completion"
	EventError               = "error"
)

type sseEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EncodeSSE serializes one client event as a single SSE record. Stateless;
// events are encoded on arrival in emission order, never buffered.
func EncodeSSE(eventType string, data any) ([]byte, error) {
	payload, err := json.Marshal(sseEnvelope{Type: eventType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return []byte("data: " + string(payload) + "\n\n"), nil
}
