package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"wayfinder/models"
	"wayfinder/services/vision"
)

const (
	// Streaming agent turns can run many tools; the stream timeout is
	// generous. Synchronous extraction calls get a much shorter budget.
	defaultStreamTimeout = 300 * time.Second
	defaultSyncTimeout   = 30 * time.Second
	defaultEntityTimeout = 60 * time.Second
	defaultVisionTimeout = 120 * time.Second

	readBufferSize = 4096
)

// ErrEmptyRequest is returned when a chat request carries neither text nor an
// image. Handlers reject this with a 4xx before any streaming begins.
var ErrEmptyRequest = errors.New("message or image is required")

// VisionAnalyzer is the vision collaborator boundary. Failures are never
// fatal to the chat flow.
type VisionAnalyzer interface {
	Configured() bool
	Analyze(ctx context.Context, imageBase64 string) (*models.VisionResult, error)
}

// EventWriter pushes one client-facing event. Implementations encode and
// flush immediately so the client sees partial progress as it happens.
type EventWriter func(eventType string, data any) error

// Service proxies chat requests to the upstream agent orchestration service,
// normalizing its frame stream into client events. One Stream call serves one
// request; all mutable state is request-scoped.
type Service struct {
	kibanaURL string
	apiKey    string
	vision    VisionAnalyzer
	client    *http.Client

	streamTimeout time.Duration
	syncTimeout   time.Duration
	entityTimeout time.Duration
	visionTimeout time.Duration
}

func NewService(kibanaURL, apiKey string, analyzer VisionAnalyzer) *Service {
	return &Service{
		kibanaURL: kibanaURL,
		apiKey:    apiKey,
		vision:    analyzer,
		// Timeouts are enforced per request via context deadlines; the
		// client itself stays unbounded so long streams are not cut off.
		client:        &http.Client{},
		streamTimeout: defaultStreamTimeout,
		syncTimeout:   defaultSyncTimeout,
		entityTimeout: defaultEntityTimeout,
		visionTimeout: defaultVisionTimeout,
	}
}

// Validate rejects requests that carry neither free text nor an image.
func (s *Service) Validate(req *models.ChatRequest) error {
	if req.Message == "" && req.ImageBase64 == "" {
		return ErrEmptyRequest
	}
	return nil
}

// Stream runs the two-phase pipeline for one chat request: an optional vision
// preprocess, then the upstream agent stream, forwarding one client event per
// upstream frame. A returned error means the client connection itself failed;
// upstream failures are reported to the client as error events and return nil.
func (s *Service) Stream(ctx context.Context, req *models.ChatRequest, emit EventWriter) error {
	if err := s.Validate(req); err != nil {
		return err
	}

	result, err := s.preprocess(ctx, req, emit)
	if err != nil {
		return err
	}

	visionContext := ""
	if result != nil && result.Description != "" {
		visionContext = fmt.Sprintf("[Vision Context: %s] ", result.Description)
	}
	contextual := fmt.Sprintf("%s[User ID: %s] %s", visionContext, req.UserID, req.Message)

	return s.streamAgentResponse(ctx, contextual, req.AgentID, emit)
}

// preprocess resolves vision context before the upstream connection opens. A
// pre-supplied analysis is reused without any network call; otherwise, with an
// image present and the collaborator configured, the analysis runs and its
// outcome is surfaced to the client. Vision failure never aborts the request.
func (s *Service) preprocess(ctx context.Context, req *models.ChatRequest, emit EventWriter) (*models.VisionResult, error) {
	if req.VisionAnalysis != nil && req.VisionAnalysis.Description != "" {
		log.Printf("[INFO] Reusing pre-supplied vision analysis (%d chars)", len(req.VisionAnalysis.Description))
		return req.VisionAnalysis, nil
	}

	if req.ImageBase64 == "" {
		return nil, nil
	}

	if !s.vision.Configured() {
		log.Printf("[INFO] Image provided but vision collaborator not configured, ignoring image")
		return nil, nil
	}

	if err := emit(EventVisionAnalyzing, map[string]any{"message": "Analyzing image..."}); err != nil {
		return nil, err
	}

	vctx, cancel := context.WithTimeout(ctx, s.visionTimeout)
	defer cancel()

	result, err := s.vision.Analyze(vctx, req.ImageBase64)
	if err != nil {
		log.Printf("[WARN] Vision analysis failed, proceeding without: %v", err)
		data := map[string]any{"error": "Image analysis failed, continuing without it."}
		if errors.Is(err, vision.ErrWarmingUp) {
			data["error"] = "The vision model is warming up, continuing without image analysis. Try again in a minute."
			data["warming"] = true
		}
		if err := emit(EventVisionError, data); err != nil {
			return nil, err
		}
		return nil, nil
	}

	log.Printf("[INFO] Vision context added (%d chars)", len(result.Description))
	if err := emit(EventVisionAnalysis, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) streamAgentResponse(ctx context.Context, input, agentID string, emit EventWriter) error {
	sctx, cancel := context.WithTimeout(ctx, s.streamTimeout)
	defer cancel()

	resp, err := s.openConverseStream(sctx, input, agentID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return emit(EventError, map[string]any{"error": transportErrorMessage(err)})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return emit(EventError, map[string]any{
			"error": fmt.Sprintf("Agent Builder API error: %s", string(body)),
		})
	}

	decoder := NewFrameDecoder()
	ledger := NewStepLedger()
	conversationID := ""

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, frame := range decoder.Write(buf[:n]) {
				done, emitErr := s.handleFrame(frame, ledger, &conversationID, emit)
				if emitErr != nil {
					return emitErr
				}
				if done {
					return nil
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// Client cancellation needs no event; the connection is gone.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return emit(EventError, map[string]any{"error": transportErrorMessage(readErr)})
		}
	}

	return emit(EventCompletion, map[string]any{
		"conversation_id": conversationID,
		"steps":           ledger.Snapshot(),
	})
}

// handleFrame classifies one frame, updates the ledger, and forwards the
// corresponding client event. done is true when the stream must stop early
// (upstream-declared error), in which case no completion event follows.
func (s *Service) handleFrame(frame Frame, ledger *StepLedger, conversationID *string, emit EventWriter) (done bool, err error) {
	ev := Classify(frame.Data)

	switch ev.Kind {
	case KindError:
		data := map[string]any{"error": ev.ErrorMessage}
		if ev.ErrorCode != nil {
			data["code"] = ev.ErrorCode
		}
		return true, emit(EventError, data)

	case KindConversationID:
		*conversationID = ev.ConversationID
		return false, emit(EventConversationStarted, map[string]any{
			"conversation_id": ev.ConversationID,
		})

	case KindReasoning:
		// Transient reasoning is conversational filler: not recorded,
		// not forwarded.
		if ev.Transient {
			return false, nil
		}
		ledger.RecordReasoning(ev.Reasoning)
		return false, emit(EventReasoning, map[string]any{"reasoning": ev.Reasoning})

	case KindToolResult:
		results := ev.Results
		if results == nil {
			results = []any{}
		}
		if !ledger.UpsertToolResult(ev.ToolCallID, results) {
			log.Printf("[WARN] Tool result for unknown call %q, forwarding without recording", ev.ToolCallID)
		}
		return false, emit(EventToolResult, map[string]any{
			"tool_call_id": ev.ToolCallID,
			"results":      results,
		})

	case KindToolCall:
		// Frames without a tool_id are progress pings.
		if ev.ToolID == "" {
			return false, nil
		}
		if !ledger.UpsertToolCall(ev.ToolCallID, ev.ToolID, ev.Params) {
			return false, nil
		}
		return false, emit(EventToolCall, map[string]any{
			"tool_call_id": ev.ToolCallID,
			"tool_id":      ev.ToolID,
			"params":       ev.Params,
		})

	case KindTextChunk:
		return false, emit(EventMessageChunk, map[string]any{"text_chunk": ev.TextChunk})

	case KindMessageComplete:
		return false, emit(EventMessageComplete, map[string]any{"message_content": ev.MessageContent})
	}

	return false, nil
}

// AgentStatus probes whether an agent exists and is reachable upstream.
func (s *Service) AgentStatus(ctx context.Context, agentID string) bool {
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet,
		s.kibanaURL+"/api/agent_builder/agents/"+agentID, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "ApiKey "+s.apiKey)
	req.Header.Set("kbn-xsrf", "true")

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (s *Service) openConverseStream(ctx context.Context, input, agentID string) (*http.Response, error) {
	payload, err := json.Marshal(map[string]string{
		"input":    input,
		"agent_id": agentID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode converse payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.kibanaURL+"/api/agent_builder/converse/async", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build converse request: %w", err)
	}
	req.Header.Set("Authorization", "ApiKey "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("kbn-xsrf", "true")

	return s.client.Do(req)
}

func transportErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timeout"
	}
	return fmt.Sprintf("Connection error: %v", err)
}
