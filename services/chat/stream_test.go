package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wayfinder/models"
	"wayfinder/services/vision"
)

type capturedEvent struct {
	Type string
	Data any
}

type eventRecorder struct {
	events []capturedEvent
}

func (r *eventRecorder) emit(eventType string, data any) error {
	r.events = append(r.events, capturedEvent{Type: eventType, Data: data})
	return nil
}

func (r *eventRecorder) types() []string {
	types := make([]string, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.Type
	}
	return types
}

func (r *eventRecorder) last() capturedEvent {
	return r.events[len(r.events)-1]
}

type fakeVision struct {
	configured bool
	result     *models.VisionResult
	err        error
	calls      int
}

func (f *fakeVision) Configured() bool { return f.configured }

func (f *fakeVision) Analyze(ctx context.Context, imageBase64 string) (*models.VisionResult, error) {
	f.calls++
	return f.result, f.err
}

// newUpstream starts a fake agent orchestration endpoint that replies to the
// converse route with the given SSE body and records the submitted input.
func newUpstream(t *testing.T, body string) (*httptest.Server, *string) {
	t.Helper()
	var lastInput string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/agent_builder/converse/async" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		lastInput = payload["input"]

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &lastInput
}

func frame(eventType string, data map[string]any) string {
	payload, _ := json.Marshal(map[string]any{"data": data})
	return "event: " + eventType + "\ndata: " + string(payload) + "\n\n"
}

func TestStreamFullConversation(t *testing.T) {
	body := frame("conversation_start", map[string]any{"conversation_id": "c-42"}) +
		frame("reasoning", map[string]any{"reasoning": "searching the catalog"}) +
		frame("tool_call", map[string]any{
			"tool_call_id": "t-1", "tool_id": "product_search",
			"params": map[string]any{"q": "tents"},
		}) +
		frame("tool_result", map[string]any{
			"tool_call_id": "t-1", "results": []any{map[string]any{"title": "Alpine Tent"}},
		}) +
		frame("message_chunk", map[string]any{"text_chunk": "Here are "}) +
		frame("message_chunk", map[string]any{"text_chunk": "some tents."}) +
		frame("message_complete", map[string]any{"message_content": "Here are some tents."})

	server, lastInput := newUpstream(t, body)
	svc := NewService(server.URL, "test-key", &fakeVision{})
	rec := &eventRecorder{}

	req := &models.ChatRequest{Message: "show me tents", UserID: "hiker-1", AgentID: "agent-1"}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	want := []string{
		EventConversationStarted, EventReasoning, EventToolCall, EventToolResult,
		EventMessageChunk, EventMessageChunk, EventMessageComplete, EventCompletion,
	}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}

	completion := rec.last().Data.(map[string]any)
	if completion["conversation_id"] != "c-42" {
		t.Errorf("completion conversation_id = %v", completion["conversation_id"])
	}
	steps := completion["steps"].([]models.Step)
	if len(steps) != 2 {
		t.Fatalf("completion steps = %d, want 2", len(steps))
	}
	if steps[1].ToolID != "product_search" || len(steps[1].Results) != 1 {
		t.Errorf("tool step not assembled: %+v", steps[1])
	}

	if !strings.Contains(*lastInput, "[User ID: hiker-1] show me tents") {
		t.Errorf("upstream input = %q", *lastInput)
	}
	if strings.Contains(*lastInput, "[Vision Context:") {
		t.Errorf("unexpected vision context in input: %q", *lastInput)
	}
}

func TestStreamUpstreamErrorEndsWithoutCompletion(t *testing.T) {
	body := frame("conversation_start", map[string]any{"conversation_id": "c-9"}) +
		"event: error\ndata: {\"error\": {\"message\": \"agent crashed\", \"code\": \"500\"}}\n\n" +
		frame("message_chunk", map[string]any{"text_chunk": "never sent"})

	server, _ := newUpstream(t, body)
	svc := NewService(server.URL, "test-key", &fakeVision{})
	rec := &eventRecorder{}

	req := &models.ChatRequest{Message: "hi", UserID: "u", AgentID: "a"}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	got := rec.types()
	want := []string{EventConversationStarted, EventError}
	if len(got) != len(want) || got[1] != EventError {
		t.Fatalf("event types = %v, want %v (error ends the stream, no completion)", got, want)
	}

	data := rec.last().Data.(map[string]any)
	if data["error"] != "agent crashed" || data["code"] != "500" {
		t.Errorf("error event data = %v", data)
	}
}

func TestStreamNon200Upstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing agent", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	svc := NewService(server.URL, "test-key", &fakeVision{})
	rec := &eventRecorder{}

	req := &models.ChatRequest{Message: "hi", UserID: "u", AgentID: "ghost"}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	if len(rec.events) != 1 || rec.events[0].Type != EventError {
		t.Fatalf("events = %v, want single error", rec.types())
	}
	data := rec.events[0].Data.(map[string]any)
	if !strings.Contains(data["error"].(string), "Agent Builder API error") {
		t.Errorf("error message = %v", data["error"])
	}
}

func TestStreamVisionPreprocess(t *testing.T) {
	server, lastInput := newUpstream(t, frame("message_complete", map[string]any{"message_content": "ok"}))
	analyzer := &fakeVision{
		configured: true,
		result:     &models.VisionResult{Description: "snowy alpine ridge", Category: "Footwear"},
	}
	svc := NewService(server.URL, "test-key", analyzer)
	rec := &eventRecorder{}

	req := &models.ChatRequest{Message: "what do I need?", UserID: "u", AgentID: "a", ImageBase64: "aGk="}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	got := rec.types()
	if got[0] != EventVisionAnalyzing || got[1] != EventVisionAnalysis {
		t.Fatalf("event types = %v, want vision_analyzing then vision_analysis first", got)
	}
	if !strings.Contains(*lastInput, "[Vision Context: snowy alpine ridge]") {
		t.Errorf("upstream input missing vision context: %q", *lastInput)
	}
}

func TestStreamVisionWarmingUpIsNonFatal(t *testing.T) {
	server, lastInput := newUpstream(t, frame("message_complete", map[string]any{"message_content": "ok"}))
	analyzer := &fakeVision{configured: true, err: vision.ErrWarmingUp}
	svc := NewService(server.URL, "test-key", analyzer)
	rec := &eventRecorder{}

	req := &models.ChatRequest{Message: "gear?", UserID: "u", AgentID: "a", ImageBase64: "aGk="}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	got := rec.types()
	if got[0] != EventVisionAnalyzing || got[1] != EventVisionError {
		t.Fatalf("event types = %v", got)
	}
	data := rec.events[1].Data.(map[string]any)
	if data["warming"] != true {
		t.Errorf("warming flag missing: %v", data)
	}

	// The stream itself still runs without vision context.
	if got[len(got)-1] != EventCompletion {
		t.Errorf("stream did not complete after vision failure: %v", got)
	}
	if strings.Contains(*lastInput, "[Vision Context:") {
		t.Errorf("failed vision still added context: %q", *lastInput)
	}
}

func TestStreamCachedVisionAnalysisSkipsAnalyzer(t *testing.T) {
	server, lastInput := newUpstream(t, frame("message_complete", map[string]any{"message_content": "ok"}))
	analyzer := &fakeVision{configured: true, result: &models.VisionResult{Description: "fresh"}}
	svc := NewService(server.URL, "test-key", analyzer)
	rec := &eventRecorder{}

	req := &models.ChatRequest{
		Message:        "more ideas",
		UserID:         "u",
		AgentID:        "a",
		ImageBase64:    "aGk=",
		VisionAnalysis: &models.VisionResult{Description: "cached canyon scene"},
	}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	if analyzer.calls != 0 {
		t.Errorf("analyzer called %d times despite cached analysis", analyzer.calls)
	}
	for _, ev := range rec.events {
		if ev.Type == EventVisionAnalyzing || ev.Type == EventVisionAnalysis {
			t.Errorf("cached analysis re-emitted vision event %q", ev.Type)
		}
	}
	if !strings.Contains(*lastInput, "[Vision Context: cached canyon scene]") {
		t.Errorf("cached context not applied: %q", *lastInput)
	}
}

func TestStreamUnconfiguredVisionIgnoresImage(t *testing.T) {
	server, _ := newUpstream(t, frame("message_complete", map[string]any{"message_content": "ok"}))
	svc := NewService(server.URL, "test-key", &fakeVision{configured: false})
	rec := &eventRecorder{}

	req := &models.ChatRequest{Message: "hello", UserID: "u", AgentID: "a", ImageBase64: "aGk="}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	for _, ev := range rec.events {
		if strings.HasPrefix(ev.Type, "vision") {
			t.Errorf("unexpected vision event %q with unconfigured analyzer", ev.Type)
		}
	}
}

func TestStreamProgressPingsAndTransientReasoningDropped(t *testing.T) {
	body := frame("reasoning", map[string]any{"reasoning": "ack", "transient": true}) +
		frame("tool_call", map[string]any{"tool_call_id": "t-1"}) +
		frame("message_complete", map[string]any{"message_content": "done"})

	server, _ := newUpstream(t, body)
	svc := NewService(server.URL, "test-key", &fakeVision{})
	rec := &eventRecorder{}

	req := &models.ChatRequest{Message: "hi", UserID: "u", AgentID: "a"}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	got := rec.types()
	want := []string{EventMessageComplete, EventCompletion}
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
}

func TestStreamValidation(t *testing.T) {
	svc := NewService("http://unused", "k", &fakeVision{})

	err := svc.Stream(context.Background(), &models.ChatRequest{UserID: "u"}, func(string, any) error {
		t.Fatal("no events should be emitted for an invalid request")
		return nil
	})
	if !errors.Is(err, ErrEmptyRequest) {
		t.Errorf("error = %v, want ErrEmptyRequest", err)
	}

	if err := svc.Validate(&models.ChatRequest{ImageBase64: "aGk="}); err != nil {
		t.Errorf("image-only request should validate, got %v", err)
	}
}

func TestStreamTimeoutSurfacesAsTimeoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	svc := NewService(server.URL, "test-key", &fakeVision{})
	svc.streamTimeout = 50 * time.Millisecond
	rec := &eventRecorder{}

	req := &models.ChatRequest{Message: "hi", UserID: "u", AgentID: "a"}
	if err := svc.Stream(context.Background(), req, rec.emit); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	if len(rec.events) != 1 || rec.events[0].Type != EventError {
		t.Fatalf("events = %v, want single error", rec.types())
	}
	data := rec.events[0].Data.(map[string]any)
	if data["error"] != "Request timeout" {
		t.Errorf("error = %v, want Request timeout", data["error"])
	}
}

func TestStreamClientCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	svc := NewService(server.URL, "test-key", &fakeVision{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	rec := &eventRecorder{}
	req := &models.ChatRequest{Message: "hi", UserID: "u", AgentID: "a"}
	err := svc.Stream(ctx, req, rec.emit)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(rec.events) != 0 {
		t.Errorf("cancelled stream emitted events: %v", rec.types())
	}
}
