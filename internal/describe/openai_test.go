package describe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menulens/internal/cache"
	"menulens/internal/menu"
)

func TestParseDescription(t *testing.T) {
	content := `{
		"text": "Stir-fried rice noodles with shrimp, tofu and peanuts.",
		"ingredients": ["rice noodles", "shrimp", "tofu", "peanuts"],
		"dietary_restrictions": ["nut-free? no", "spicy"],
		"cuisine_type": "Thai",
		"spice_level": "medium",
		"preparation_method": "stir-fried",
		"confidence": 0.9
	}`

	desc := parseDescription(content, "Pad Thai")

	assert.Equal(t, "Stir-fried rice noodles with shrimp, tofu and peanuts.", desc.Text)
	assert.Equal(t, []string{"rice noodles", "shrimp", "tofu", "peanuts"}, desc.Ingredients)
	assert.Equal(t, "Thai", desc.CuisineType)
	assert.Equal(t, "medium", desc.SpiceLevel)
	assert.Equal(t, "stir-fried", desc.PreparationMethod)
	assert.InDelta(t, 0.9, desc.Confidence, 0.001)
}

func TestParseDescriptionStripsCodeFences(t *testing.T) {
	content := "```json\n{\"text\": \"A hearty stew.\", \"confidence\": 0.8}\n```"

	desc := parseDescription(content, "Goulash")

	assert.Equal(t, "A hearty stew.", desc.Text)
	assert.InDelta(t, 0.8, desc.Confidence, 0.001)
	assert.NotNil(t, desc.Ingredients, "missing arrays default to empty, not nil")
	assert.NotNil(t, desc.DietaryRestrictions)
}

func TestParseDescriptionInvalidJSON(t *testing.T) {
	desc := parseDescription("I'm sorry, I can't help with that.", "Pad Thai")

	assert.Equal(t, menu.FallbackDescription("Pad Thai"), desc)
	assert.InDelta(t, 0.1, desc.Confidence, 0.001)
}

func TestParseDescriptionDefaults(t *testing.T) {
	desc := parseDescription(`{"ingredients": null, "cuisine_type": "null"}`, "Tom Yum")

	assert.Equal(t, "A delicious Tom Yum dish.", desc.Text)
	assert.Empty(t, desc.CuisineType, `literal "null" strings are treated as absent`)
	assert.NotNil(t, desc.Ingredients)
	assert.InDelta(t, 0.8, desc.Confidence, 0.001, "missing confidence defaults to 0.8")
}

func TestFallbackServiceDescription(t *testing.T) {
	svc := NewFallbackService()

	desc := svc.GenerateDescription(context.Background(), "Pad Thai", "$12.99")

	assert.Equal(t, "A delicious Pad Thai dish.", desc.Text)
	assert.InDelta(t, 0.1, desc.Confidence, 0.001)
	assert.NotNil(t, desc.Ingredients)
	assert.NotNil(t, desc.DietaryRestrictions)
}

func TestGenerateDescriptionEmptyName(t *testing.T) {
	d := NewOpenAIDescriberWithClient(nil, "", nil)

	desc := d.GenerateDescription(context.Background(), "   ", "")

	assert.Equal(t, menu.FallbackDescription("Unknown Dish"), desc)
}

func TestGenerateDescriptionServedFromCache(t *testing.T) {
	// A cache hit must short-circuit before any API call: the nil client
	// would panic otherwise.
	resultCache := cache.New()
	cached := menu.DishDescription{Text: "Cached description.", Confidence: 0.9}
	resultCache.SetDescription("pad thai", cached)

	d := NewOpenAIDescriberWithClient(nil, "", resultCache)

	desc := d.GenerateDescription(context.Background(), "Pad Thai", "")

	assert.Equal(t, cached, desc)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Pad Thai", "$12.99")

	assert.Contains(t, prompt, "Dish Name: Pad Thai")
	assert.Contains(t, prompt, "Price: $12.99")
	assert.Contains(t, prompt, "Respond only with valid JSON.")

	unpriced := buildPrompt("Pad Thai", "")
	assert.False(t, strings.Contains(unpriced, "Price:"))
}

func TestNewOpenAIDescriberRequiresKey(t *testing.T) {
	_, err := NewOpenAIDescriber("", "", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, menu.ErrNotConfigured)
}

func TestDefaultModelApplied(t *testing.T) {
	d := NewOpenAIDescriberWithClient(nil, "", nil)

	assert.Equal(t, DefaultModel, d.model)
}
