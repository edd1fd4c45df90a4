package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menulens/internal/menu"
)

func TestStripJSONFences(t *testing.T) {
	assert.Equal(t, `{"dishes": []}`, stripJSONFences("```json\n{\"dishes\": []}\n```"))
	assert.Equal(t, `{"dishes": []}`, stripJSONFences("```\n{\"dishes\": []}\n```"))
	assert.Equal(t, `{"dishes": []}`, stripJSONFences(`{"dishes": []}`))
	assert.Equal(t, `{"dishes": []}`, stripJSONFences("  {\"dishes\": []}  "))
}

func TestSniffImageMime(t *testing.T) {
	jpeg := append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 100)...)
	assert.Equal(t, "image/jpeg", sniffImageMime(jpeg))

	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 100)...)
	assert.Equal(t, "image/png", sniffImageMime(png))

	assert.Equal(t, "image/jpeg", sniffImageMime([]byte("plain text here instead")))
}

func TestConvertDishes(t *testing.T) {
	e := NewOpenAIVisionExtractorWithClient(nil, DefaultVisionConfig())

	var parsed visionResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"dishes": [
			{"dish_name": "Pad Thai", "price": "$12.99"},
			{"dish_name": "  ", "price": "$5.00"},
			{"dish_name": "Tom Yum", "price": "null"},
			{"dish_name": "Green Curry", "price": null}
		]
	}`), &parsed))

	dishes := e.convertDishes(parsed)

	require.Len(t, dishes, 3, "nameless entries are dropped")
	assert.Equal(t, "Pad Thai", dishes[0].Name)
	assert.Equal(t, "$12.99", dishes[0].Price)
	assert.Empty(t, dishes[1].Price, `"null" prices are cleared`)
	assert.Empty(t, dishes[2].Price)

	for _, d := range dishes {
		assert.InDelta(t, visionConfidence, d.Confidence, 0.001)
	}
}

func TestVisionResponseSchemaIsValidJSON(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal(visionResponseSchema, &schema))
	assert.Equal(t, "object", schema["type"])
}

func TestNewOpenAIVisionExtractorRequiresKey(t *testing.T) {
	_, err := NewOpenAIVisionExtractor("", DefaultVisionConfig())

	require.Error(t, err)
	assert.ErrorIs(t, err, menu.ErrNotConfigured)
}

func TestNewOpenAIVisionExtractorDefaults(t *testing.T) {
	e, err := NewOpenAIVisionExtractor("test-key", VisionConfig{})

	require.NoError(t, err)
	assert.Equal(t, DefaultVisionConfig().Model, e.config.Model)
	assert.Equal(t, DefaultVisionConfig().MaxRetries, e.config.MaxRetries)
}
