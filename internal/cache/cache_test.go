package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menulens/internal/menu"
)

func TestFingerprint(t *testing.T) {
	data := []byte("menu photo bytes")

	first := Fingerprint(data)
	second := Fingerprint(data)

	assert.Equal(t, first, second, "same bytes must produce the same fingerprint")
	assert.Len(t, first, 32, "md5 hex digest length")
	assert.NotEqual(t, first, Fingerprint([]byte("different bytes")))
}

func TestProcessingID(t *testing.T) {
	data := []byte("menu photo bytes")

	id := ProcessingID(data)

	assert.Len(t, id, ProcessingIDLength)
	assert.Equal(t, Fingerprint(data)[:ProcessingIDLength], id)
	assert.Equal(t, id, ProcessingID(data), "processing ID must be stable for the same image")
}

func TestNormalizeDishName(t *testing.T) {
	assert.Equal(t, "pad thai", NormalizeDishName("  Pad Thai  "))
	assert.Equal(t, "pad thai", NormalizeDishName("PAD THAI"))
	assert.Equal(t, "", NormalizeDishName("   "))
}

func TestResultCacheNamespaces(t *testing.T) {
	c := New()

	// The same key in different namespaces must not collide.
	key := "abc123"
	c.SetOCRResult(key, menu.OCRResult{Text: "menu text", Confidence: 0.9})
	c.SetExtraction(key, []menu.ParsedDish{{Name: "Pad Thai", Confidence: 0.9}})

	ocr, ok := c.OCRResult(key)
	require.True(t, ok)
	assert.Equal(t, "menu text", ocr.Text)

	dishes, ok := c.Extraction(key)
	require.True(t, ok)
	require.Len(t, dishes, 1)
	assert.Equal(t, "Pad Thai", dishes[0].Name)

	_, ok = c.ImageSearchResult(key)
	assert.False(t, ok, "image search namespace must be independent")
}

func TestResultCacheDishNameNormalization(t *testing.T) {
	c := New()

	c.SetDescription("Pad Thai", menu.DishDescription{Text: "Stir-fried noodles", Confidence: 0.9})

	desc, ok := c.Description("  pad thai ")
	require.True(t, ok, "lookup must normalize the dish name")
	assert.Equal(t, "Stir-fried noodles", desc.Text)

	c.SetImageSearchResult("TOM YUM", []menu.FoodImage{{URL: "http://example.com/a.jpg"}})
	images, ok := c.ImageSearchResult("tom yum")
	require.True(t, ok)
	assert.Len(t, images, 1)
}

func TestResultCacheMiss(t *testing.T) {
	c := New()

	_, ok := c.OCRResult("missing")
	assert.False(t, ok)
	_, ok = c.Extraction("missing")
	assert.False(t, ok)
	_, ok = c.ImageSearchResult("missing")
	assert.False(t, ok)
	_, ok = c.Description("missing")
	assert.False(t, ok)
}

func TestResultCacheSizesAndClear(t *testing.T) {
	c := New()

	c.SetOCRResult("a", menu.OCRResult{Text: "x"})
	c.SetExtraction("a", []menu.ParsedDish{{Name: "Dish"}})
	c.SetExtraction("b", []menu.ParsedDish{{Name: "Other"}})
	c.SetImageSearchResult("pad thai", []menu.FoodImage{{URL: "http://example.com/a.jpg"}})
	c.SetDescription("pad thai", menu.DishDescription{Text: "d"})

	sizes := c.Sizes()
	assert.Equal(t, 1, sizes.OCRResults)
	assert.Equal(t, 2, sizes.Extractions)
	assert.Equal(t, 1, sizes.ImageSearch)
	assert.Equal(t, 1, sizes.Descriptions)

	c.Clear()

	sizes = c.Sizes()
	assert.Zero(t, sizes.OCRResults)
	assert.Zero(t, sizes.Extractions)
	assert.Zero(t, sizes.ImageSearch)
	assert.Zero(t, sizes.Descriptions)

	_, ok := c.Description("pad thai")
	assert.False(t, ok)
}

func TestResultCacheOverwrite(t *testing.T) {
	c := New()

	c.SetDescription("pad thai", menu.DishDescription{Text: "first"})
	c.SetDescription("pad thai", menu.DishDescription{Text: "second"})

	desc, ok := c.Description("pad thai")
	require.True(t, ok)
	assert.Equal(t, "second", desc.Text)

	sizes := c.Sizes()
	assert.Equal(t, 1, sizes.Descriptions)
}
