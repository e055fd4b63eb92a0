// Package vision wraps the Jina VLM collaborator behind an OpenAI-compatible
// client. The collaborator can be unconfigured (no key) or cold ("warming
// up"); both conditions are distinguishable so callers can degrade without
// aborting the surrounding request.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"wayfinder/models"
	"wayfinder/services/credentials"
)

const (
	defaultBaseURL = "https://api-beta-vlm.jina.ai/v1"
	modelName      = "jina-vlm"

	// Max decoded image payload (4MB).
	maxImageSizeBytes = 4 * 1024 * 1024
)

const defaultScenePrompt = "Describe the terrain, weather conditions, elevation, and ground conditions " +
	"in this image for outdoor activity planning. Be specific about what gear " +
	"would be needed. Mention the likely location type (mountain, desert, forest, " +
	"coastal, arctic, etc.), season, and any hazards visible. Be concise."

var (
	// ErrNotConfigured means no API key is available for the collaborator.
	ErrNotConfigured = errors.New("vision collaborator not configured")
	// ErrWarmingUp means the model is cold-starting and will recover on
	// its own; callers should proceed without vision context.
	ErrWarmingUp = errors.New("vision model warming up")
)

type Service struct {
	creds *credentials.Manager
}

func NewService(creds *credentials.Manager) *Service {
	return &Service{creds: creds}
}

// Configured reports whether the collaborator can be called at all.
func (s *Service) Configured() bool {
	return s.creds.IsVisionReady()
}

func (s *Service) baseURL() string {
	if url := s.creds.Get("JINA_VLM_URL"); url != "" {
		return url
	}
	return defaultBaseURL
}

// productSceneParams is the schema the model fills in when it can classify
// the scene against the catalog taxonomy.
type productSceneParams struct {
	Description string   `json:"description" jsonschema:"required,description=Concise description of the terrain and conditions relevant to gear selection"`
	ProductType string   `json:"product_type,omitempty" jsonschema:"description=The single most relevant product type for this scene"`
	Category    string   `json:"category,omitempty" jsonschema:"description=Top-level catalog category"`
	Subcategory string   `json:"subcategory,omitempty" jsonschema:"description=Catalog subcategory"`
	KeyTerms    []string `json:"key_terms,omitempty" jsonschema:"description=Search terms a shopper would use for gear suited to this scene"`
}

func productSceneSchema() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(productSceneParams{})
	return map[string]any{
		"type":       "object",
		"properties": schema.Properties,
		"required":   schema.Required,
	}
}

var classifySceneTools = []llms.Tool{
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "classify_product_scene",
			Description: "Classify an outdoor scene and map it onto the gear catalog taxonomy",
			Parameters:  productSceneSchema(),
		},
	},
}

// Analyze runs vision analysis on a base64 image. When the model answers via
// the classification tool, the structured fields are populated; a plain text
// answer degrades to a description-only result.
func (s *Service) Analyze(ctx context.Context, imageBase64 string) (*models.VisionResult, error) {
	apiKey := s.creds.Get("JINA_API_KEY")
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	cleaned, err := validateImage(imageBase64)
	if err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
		openai.WithBaseURL(s.baseURL()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(defaultScenePrompt),
				llms.ImageURLPart("data:image/jpeg;base64," + cleaned),
			},
		},
	}

	resp, err := llm.GenerateContent(ctx, messages,
		llms.WithTools(classifySceneTools),
		llms.WithMaxTokens(500),
		llms.WithTemperature(0.2),
	)
	if err != nil {
		if isWarmingError(err) {
			return nil, fmt.Errorf("vision call failed: %w", ErrWarmingUp)
		}
		return nil, fmt.Errorf("vision call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision model returned no choices")
	}
	choice := resp.Choices[0]

	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil || call.FunctionCall.Name != "classify_product_scene" {
			continue
		}
		var params productSceneParams
		if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &params); err != nil {
			log.Printf("[WARN] Ignoring malformed scene classification: %v", err)
			break
		}
		if params.Description == "" {
			params.Description = choice.Content
		}
		log.Printf("[INFO] Vision analysis complete (structured, %d chars)", len(params.Description))
		return &models.VisionResult{
			Description: params.Description,
			ProductType: params.ProductType,
			Category:    params.Category,
			Subcategory: params.Subcategory,
			KeyTerms:    params.KeyTerms,
		}, nil
	}

	if choice.Content == "" {
		return nil, fmt.Errorf("vision model returned an empty description")
	}
	log.Printf("[INFO] Vision analysis complete (%d chars)", len(choice.Content))
	return &models.VisionResult{Description: choice.Content}, nil
}

// Warm pings the collaborator to wake it from cold sleep. Returns "warm",
// "warming", or "unavailable".
func (s *Service) Warm(ctx context.Context) string {
	apiKey := s.creds.Get("JINA_API_KEY")
	if apiKey == "" {
		return "unavailable"
	}

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, s.baseURL()+"/models", nil)
	if err != nil {
		return "unavailable"
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "unavailable"
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return "warm"
	case resp.StatusCode == http.StatusServiceUnavailable:
		return "warming"
	default:
		return "unavailable"
	}
}

// TestConnection verifies the configured key against the collaborator.
func (s *Service) TestConnection(ctx context.Context) (bool, string) {
	apiKey := s.creds.Get("JINA_API_KEY")
	if apiKey == "" {
		return false, "Jina API key not configured"
	}

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, s.baseURL()+"/models", nil)
	if err != nil {
		return false, fmt.Sprintf("Connection failed: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, fmt.Sprintf("Connection failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, "Jina VLM API connected successfully"
	case http.StatusUnauthorized:
		return false, "Invalid Jina API key"
	default:
		return false, fmt.Sprintf("Jina API returned status %d", resp.StatusCode)
	}
}

// validateImage strips an optional data URI prefix and enforces the size cap.
func validateImage(imageBase64 string) (string, error) {
	if strings.HasPrefix(imageBase64, "data:") {
		if _, after, found := strings.Cut(imageBase64, ","); found {
			imageBase64 = after
		}
	}

	decodedSize := len(imageBase64) * 3 / 4
	if decodedSize > maxImageSizeBytes {
		return "", fmt.Errorf("image too large (%.1fMB), maximum is %dMB",
			float64(decodedSize)/1024/1024, maxImageSizeBytes/1024/1024)
	}

	return imageBase64, nil
}

// isWarmingError recognizes the collaborator's cold-start signal. The client
// only surfaces the HTTP status in error text, so this matches on it.
func isWarmingError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") ||
		strings.Contains(msg, "warming") ||
		strings.Contains(msg, "cold start")
}
