package chat

// Kind is the closed set of semantic event kinds an upstream frame can carry.
type Kind int

const (
	// KindNone marks frames matching no classification rule; they are
	// dropped without error.
	KindNone Kind = iota
	KindError
	KindConversationID
	KindReasoning
	KindToolResult
	KindToolCall
	KindTextChunk
	KindMessageComplete
)

// Event is a classified upstream frame. Only the fields relevant to Kind are
// populated.
type Event struct {
	Kind Kind

	ConversationID string

	Reasoning string
	Transient bool

	ToolCallID string
	ToolID     string
	Params     map[string]any
	Results    []any

	TextChunk      string
	MessageContent string

	ErrorMessage string
	ErrorCode    any
}

// Classify maps a decoded frame payload to exactly one event kind. The rule
// order is load-bearing: payload shapes overlap, so a tool-result frame (which
// also carries a tool_call_id) must be checked before the bare tool-call rule,
// and an error object short-circuits everything else.
//
// The error check runs on the raw frame; the remaining rules run on the
// payload unwrapped one level from its optional "data" envelope.
func Classify(raw map[string]any) Event {
	if errVal, ok := raw["error"]; ok {
		return classifyError(errVal)
	}

	data := raw
	if nested, ok := raw["data"].(map[string]any); ok {
		data = nested
	}
	if errVal, ok := data["error"]; ok {
		return classifyError(errVal)
	}

	if id, ok := data["conversation_id"].(string); ok {
		return Event{Kind: KindConversationID, ConversationID: id}
	}

	if reasoning, ok := data["reasoning"].(string); ok {
		transient, _ := data["transient"].(bool)
		return Event{Kind: KindReasoning, Reasoning: reasoning, Transient: transient}
	}

	_, hasResults := data["results"]
	_, hasCallID := data["tool_call_id"]
	if hasResults && hasCallID {
		callID, _ := data["tool_call_id"].(string)
		results, _ := data["results"].([]any)
		return Event{Kind: KindToolResult, ToolCallID: callID, Results: results}
	}

	if hasCallID {
		callID, _ := data["tool_call_id"].(string)
		toolID, _ := data["tool_id"].(string)
		params, _ := data["params"].(map[string]any)
		return Event{Kind: KindToolCall, ToolCallID: callID, ToolID: toolID, Params: params}
	}

	if chunk, ok := data["text_chunk"].(string); ok {
		return Event{Kind: KindTextChunk, TextChunk: chunk}
	}

	if content, ok := data["message_content"].(string); ok {
		return Event{Kind: KindMessageComplete, MessageContent: content}
	}

	if round, ok := data["round"].(map[string]any); ok {
		if response, ok := round["response"].(map[string]any); ok {
			if message, ok := response["message"].(string); ok {
				return Event{Kind: KindMessageComplete, MessageContent: message}
			}
		}
	}

	return Event{Kind: KindNone}
}

func classifyError(errVal any) Event {
	if info, ok := errVal.(map[string]any); ok {
		message, _ := info["message"].(string)
		if message == "" {
			message = "Unknown error"
		}
		return Event{Kind: KindError, ErrorMessage: message, ErrorCode: info["code"]}
	}
	if msg, ok := errVal.(string); ok {
		return Event{Kind: KindError, ErrorMessage: msg}
	}
	return Event{Kind: KindError, ErrorMessage: "Unknown error"}
}
