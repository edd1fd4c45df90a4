package describe

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"menulens/internal/cache"
	"menulens/internal/logger"
	"menulens/internal/menu"
)

const (
	// DefaultModel balances description quality against per-dish cost.
	DefaultModel = "gpt-3.5-turbo"

	defaultMaxRetries  = 3
	defaultMaxTokens   = 500
	defaultTemperature = 0.7
)

const systemPrompt = "You are a helpful food expert who provides accurate, concise dish descriptions in JSON format."

// descriptionResponse mirrors the JSON shape the model is asked to return.
type descriptionResponse struct {
	Text                string   `json:"text"`
	Ingredients         []string `json:"ingredients"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	CuisineType         string   `json:"cuisine_type"`
	SpiceLevel          string   `json:"spice_level"`
	PreparationMethod   string   `json:"preparation_method"`
	Confidence          float64  `json:"confidence"`
}

// OpenAIDescriber generates dish descriptions through the OpenAI chat API.
type OpenAIDescriber struct {
	client *openai.Client
	model  string
	cache  *cache.ResultCache
	log    zerolog.Logger

	maxRetries int
}

// NewOpenAIDescriber creates a describer from an API key.
func NewOpenAIDescriber(apiKey, model string, resultCache *cache.ResultCache) (*OpenAIDescriber, error) {
	const op = "NewOpenAIDescriber"

	if apiKey == "" {
		return nil, menu.WrapError(op, menu.ErrNotConfigured, "OPENAI_API_KEY is required for description generation")
	}
	return NewOpenAIDescriberWithClient(openai.NewClient(apiKey), model, resultCache), nil
}

// NewOpenAIDescriberWithClient creates a describer with a pre-configured
// client, used in tests.
func NewOpenAIDescriberWithClient(client *openai.Client, model string, resultCache *cache.ResultCache) *OpenAIDescriber {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIDescriber{
		client:     client,
		model:      model,
		cache:      resultCache,
		log:        logger.WithComponent("describe"),
		maxRetries: defaultMaxRetries,
	}
}

// GenerateDescription produces a description for the dish. Failures degrade
// to a low-confidence fallback instead of errors.
func (d *OpenAIDescriber) GenerateDescription(ctx context.Context, dishName, price string) menu.DishDescription {
	if strings.TrimSpace(dishName) == "" {
		return menu.FallbackDescription("Unknown Dish")
	}

	if d.cache != nil {
		if cached, ok := d.cache.Description(dishName); ok {
			d.log.Debug().Str("dish", dishName).Msg("Description served from cache")
			return cached
		}
	}

	content, err := d.complete(ctx, buildPrompt(dishName, price))
	if err != nil {
		d.log.Error().Err(err).Str("dish", dishName).Msg("Description generation failed, using fallback")
		return menu.FallbackDescription(dishName)
	}

	desc := parseDescription(content, dishName)

	if d.cache != nil && desc.Confidence > menu.FallbackDescription(dishName).Confidence {
		d.cache.SetDescription(dishName, desc)
	}

	d.log.Info().
		Str("dish", dishName).
		Float64("confidence", desc.Confidence).
		Msg("Description generated")

	return desc
}

// complete runs the chat completion with retries and exponential backoff.
func (d *OpenAIDescriber) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}

	var lastErr error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := d.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			d.log.Warn().Err(err).Int("attempt", attempt+1).Msg("Description request failed, retrying")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = menu.ErrExtractionFailed
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", lastErr
}

// buildPrompt assembles the generation prompt for a dish.
func buildPrompt(dishName, price string) string {
	var b strings.Builder
	b.WriteString("You are a knowledgeable food expert helping diners understand menu items.\n")
	b.WriteString("Generate a comprehensive description for the following dish that will help someone decide whether to order it.\n\n")
	b.WriteString("Dish Name: ")
	b.WriteString(dishName)
	if price != "" {
		b.WriteString("\nPrice: ")
		b.WriteString(price)
	}
	b.WriteString(`

Please provide a JSON response with the following structure:
{
    "text": "A concise, appetizing description (2-3 sentences) that explains what the dish is and what makes it special",
    "ingredients": ["list", "of", "key", "ingredients"],
    "dietary_restrictions": ["vegetarian", "vegan", "gluten-free", "dairy-free", "nut-free", "spicy", etc.],
    "cuisine_type": "Type of cuisine (e.g., Italian, Thai, Mexican, etc.)",
    "spice_level": "mild, medium, or hot (if applicable)",
    "preparation_method": "Brief description of how it's prepared (e.g., grilled, fried, steamed, etc.)",
    "confidence": 0.85
}

Guidelines:
- Keep the main description appetizing and informative
- Only include dietary restrictions that are clearly applicable
- Be specific about ingredients when possible
- Include cultural context if the dish is from a specific tradition
- Set confidence between 0.7-0.95 based on how well-known the dish is
- If you're unsure about any field, use null or empty array
- Focus on helping diners make informed choices

Respond only with valid JSON.`)
	return b.String()
}

// parseDescription decodes the model output, falling back on parse errors.
func parseDescription(content, dishName string) menu.DishDescription {
	var parsed descriptionResponse
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &parsed); err != nil {
		return menu.FallbackDescription(dishName)
	}

	desc := menu.DishDescription{
		Text:                parsed.Text,
		Ingredients:         parsed.Ingredients,
		DietaryRestrictions: parsed.DietaryRestrictions,
		CuisineType:         cleanField(parsed.CuisineType),
		SpiceLevel:          cleanField(parsed.SpiceLevel),
		PreparationMethod:   cleanField(parsed.PreparationMethod),
		Confidence:          parsed.Confidence,
	}
	if desc.Text == "" {
		desc.Text = "A delicious " + dishName + " dish."
	}
	if desc.Ingredients == nil {
		desc.Ingredients = []string{}
	}
	if desc.DietaryRestrictions == nil {
		desc.DietaryRestrictions = []string{}
	}
	if desc.Confidence == 0 {
		desc.Confidence = 0.8
	}
	return desc
}

// stripJSONFences removes markdown code fences some models wrap around JSON.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// cleanField treats the literal "null" some models emit as absent.
func cleanField(s string) string {
	if s == "null" {
		return ""
	}
	return s
}
