package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"menulens/internal/logger"
	"menulens/internal/menu"
)

const (
	// visionConfidence is assigned to every dish a vision model extracts;
	// model extraction is considerably more reliable than OCR heuristics.
	visionConfidence = 0.9

	// visionMinRequestInterval spaces out requests to stay inside provider
	// rate limits.
	visionMinRequestInterval = 500 * time.Millisecond
)

// VisionConfig configures the OpenAI vision extractor.
type VisionConfig struct {
	Model       string // multimodal model, e.g. gpt-4o
	MaxRetries  int
	Temperature float32
}

// DefaultVisionConfig returns a VisionConfig with sensible defaults.
func DefaultVisionConfig() VisionConfig {
	return VisionConfig{
		Model:       "gpt-4o",
		MaxRetries:  3,
		Temperature: 0.0,
	}
}

// OpenAIVisionExtractor implements Service by asking a multimodal model to
// read the menu directly, skipping OCR and text parsing entirely.
type OpenAIVisionExtractor struct {
	client *openai.Client
	config VisionConfig
	log    zerolog.Logger

	mu              sync.Mutex
	lastRequestTime time.Time
}

// visionResponse is the schema-constrained model output.
type visionResponse struct {
	Dishes []struct {
		DishName string `json:"dish_name"`
		Price    string `json:"price"`
	} `json:"dishes"`
}

// visionResponseSchema constrains the model to the exact JSON shape the
// extractor parses.
var visionResponseSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "dishes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "dish_name": {
            "type": "string",
            "description": "Name of the dish as it appears on the menu"
          },
          "price": {
            "type": ["string", "null"],
            "description": "Price as shown on menu with currency symbol, or null if not visible"
          }
        },
        "required": ["dish_name", "price"],
        "additionalProperties": false
      }
    }
  },
  "required": ["dishes"],
  "additionalProperties": false
}`)

// NewOpenAIVisionExtractor creates the extractor with an API key.
func NewOpenAIVisionExtractor(apiKey string, config VisionConfig) (*OpenAIVisionExtractor, error) {
	const op = "NewOpenAIVisionExtractor"

	if apiKey == "" {
		return nil, menu.WrapError(op, menu.ErrNotConfigured, "OpenAI API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultVisionConfig().Model
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = DefaultVisionConfig().MaxRetries
	}

	return NewOpenAIVisionExtractorWithClient(openai.NewClient(apiKey), config), nil
}

// NewOpenAIVisionExtractorWithClient creates the extractor with an explicit
// client (for testing).
func NewOpenAIVisionExtractorWithClient(client *openai.Client, config VisionConfig) *OpenAIVisionExtractor {
	return &OpenAIVisionExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("vision-extractor"),
	}
}

// ExtractDishes identifies the dishes visible in a menu image.
func (e *OpenAIVisionExtractor) ExtractDishes(ctx context.Context, imageData []byte) ([]menu.ParsedDish, error) {
	const op = "ExtractDishes"

	e.throttle()

	imageURL := fmt.Sprintf("data:%s;base64,%s",
		sniffImageMime(imageData), base64.StdEncoding.EncodeToString(imageData))

	req := openai.ChatCompletionRequest{
		Model:       e.config.Model,
		Temperature: e.config.Temperature,
		MaxTokens:   2048,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: analysisPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: imageURL,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "menu_analysis",
				Schema: visionResponseSchema,
			},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= e.config.MaxRetries; attempt++ {
		resp, err := e.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", e.config.MaxRetries).
				Msg("Vision extraction request failed, retrying")
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from model")
			continue
		}

		content := resp.Choices[0].Message.Content
		var parsed visionResponse
		if err := json.Unmarshal([]byte(stripJSONFences(content)), &parsed); err != nil {
			lastErr = fmt.Errorf("failed to parse model response: %w", err)
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Unparseable vision response, retrying")
			continue
		}

		dishes := e.convertDishes(parsed)
		e.log.Info().
			Int("dish_count", len(dishes)).
			Int("attempt", attempt).
			Msg("Vision extraction completed")
		return dishes, nil
	}

	return nil, menu.WrapError(op, menu.ErrExtractionFailed,
		fmt.Sprintf("all %d attempts failed, last error: %v", e.config.MaxRetries, lastErr))
}

// convertDishes maps the model output to parsed dishes, dropping entries
// without a name and cleaning up "null" prices.
func (e *OpenAIVisionExtractor) convertDishes(parsed visionResponse) []menu.ParsedDish {
	dishes := make([]menu.ParsedDish, 0, len(parsed.Dishes))
	for _, d := range parsed.Dishes {
		name := strings.TrimSpace(d.DishName)
		if name == "" {
			continue
		}
		price := strings.TrimSpace(d.Price)
		if strings.EqualFold(price, "null") {
			price = ""
		}
		dishes = append(dishes, menu.ParsedDish{
			Name:       name,
			Price:      price,
			Confidence: visionConfidence,
		})
	}
	return dishes
}

// throttle enforces the minimum interval between requests.
func (e *OpenAIVisionExtractor) throttle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if wait := visionMinRequestInterval - time.Since(e.lastRequestTime); wait > 0 {
		time.Sleep(wait)
	}
	e.lastRequestTime = time.Now()
}

// stripJSONFences removes markdown code fences some models wrap around JSON.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// sniffImageMime detects the container for the data URL.
func sniffImageMime(data []byte) string {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/jpeg", "image/png", "image/webp":
		return mime
	}
	return "image/jpeg"
}

const analysisPrompt = `Analyze this menu image and extract all visible dishes with their names and prices.

IMPORTANT: Return ONLY a valid JSON object with this exact structure:
{
  "dishes": [
    {
      "dish_name": "exact dish name as shown",
      "price": "price as shown (including currency symbol if present)"
    }
  ]
}

Rules:
- Extract ONLY dishes that are clearly visible and readable
- Use exact dish names as they appear on the menu
- Include prices exactly as shown (with currency symbols, decimals, etc.)
- If no price is visible for a dish, use null for the price field
- Ignore section headers, restaurant names, or non-food items
- If no dishes are found, return {"dishes": []}
- Do not include any text outside the JSON object`
