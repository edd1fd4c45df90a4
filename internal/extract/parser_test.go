package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menulens/internal/menu"
)

func TestParseDishesSampleMenu(t *testing.T) {
	parser := NewMenuParser()

	ocrResult := &menu.OCRResult{
		Text: `Appetizers
Spring Rolls $6.99
Chicken Satay $8.50

Mains
Pad Thai $12.99
Tom Yum Soup $9.50
Green Curry, extra spicy $13.99

Desserts
Mango Sticky Rice $7.00`,
		Confidence: 0.9,
		Language:   "en",
	}

	dishes := parser.ParseDishes(ocrResult)

	require.Len(t, dishes, 6)

	names := make([]string, 0, len(dishes))
	for _, d := range dishes {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "Pad Thai")
	assert.Contains(t, names, "Tom Yum Soup")
	assert.NotContains(t, names, "Appetizers", "section headers must be skipped")
	assert.NotContains(t, names, "Mains")
	assert.NotContains(t, names, "Desserts")

	for _, d := range dishes {
		assert.NotEmpty(t, d.Price, "every sample dish line carries a price")
		assert.GreaterOrEqual(t, d.Confidence, minDishConfidence)
	}
}

func TestParseDishesPriceFormats(t *testing.T) {
	parser := NewMenuParser()

	tests := []struct {
		line  string
		name  string
		price string
	}{
		{"Pad Thai $12.99", "Pad Thai", "$12.99"},
		{"Wiener Schnitzel €18,50", "Wiener Schnitzel", "€18,50"},
		{"Fish and Chips £9.95", "Fish and Chips", "£9.95"},
		{"Ramen ¥1200", "Ramen", "¥1200"},
		{"Burger 11.50 USD", "Burger", "11.50 USD"},
		{"House Salad 8.00", "House Salad", "8.00"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			dishes := parser.ParseDishes(&menu.OCRResult{Text: tt.line, Confidence: 0.8})
			require.Len(t, dishes, 1)
			assert.Equal(t, tt.name, dishes[0].Name)
			assert.Equal(t, tt.price, dishes[0].Price)
		})
	}
}

func TestParseDishesUnpricedLine(t *testing.T) {
	parser := NewMenuParser()

	dishes := parser.ParseDishes(&menu.OCRResult{Text: "Chef's Special Noodles", Confidence: 0.8})

	require.Len(t, dishes, 1)
	assert.Equal(t, "Chef's Special Noodles", dishes[0].Name)
	assert.Empty(t, dishes[0].Price)
}

func TestParseDishesSkipsNoise(t *testing.T) {
	parser := NewMenuParser()

	ocrResult := &menu.OCRResult{
		Text: `MENU
----------
Hours: 11am - 10pm
Phone: 555-0123
||| 42
Pad Thai $12.99`,
		Confidence: 0.9,
	}

	dishes := parser.ParseDishes(ocrResult)

	require.Len(t, dishes, 1)
	assert.Equal(t, "Pad Thai", dishes[0].Name)
}

func TestParseDishesEmptyInput(t *testing.T) {
	parser := NewMenuParser()

	assert.Nil(t, parser.ParseDishes(nil))
	assert.Nil(t, parser.ParseDishes(&menu.OCRResult{Text: "   \n  "}))
}

func TestParseDishesConfidenceScoring(t *testing.T) {
	parser := NewMenuParser()

	priced := parser.ParseDishes(&menu.OCRResult{Text: "Pad Thai $12.99", Confidence: 0.7})
	unpriced := parser.ParseDishes(&menu.OCRResult{Text: "Pad Thai", Confidence: 0.7})

	require.Len(t, priced, 1)
	require.Len(t, unpriced, 1)
	assert.Greater(t, priced[0].Confidence, unpriced[0].Confidence,
		"a detected price must raise confidence")
	assert.LessOrEqual(t, priced[0].Confidence, 1.0)
}

func TestParseDishesDefaultsZeroOCRConfidence(t *testing.T) {
	parser := NewMenuParser()

	dishes := parser.ParseDishes(&menu.OCRResult{Text: "Pad Thai"})

	require.Len(t, dishes, 1)
	assert.InDelta(t, 0.5, dishes[0].Confidence, 0.001)
}

func TestStatistics(t *testing.T) {
	dishes := []menu.ParsedDish{
		{Name: "Pad Thai", Price: "$12.99", Confidence: 0.8},
		{Name: "Tom Yum", Confidence: 0.6},
	}

	stats := Statistics([]string{"a", "b", "c"}, dishes)

	assert.Equal(t, 3, stats.TotalLines)
	assert.Equal(t, 2, stats.DishCount)
	assert.Equal(t, 1, stats.PricedCount)
	assert.InDelta(t, 0.7, stats.MeanConfidence, 0.001)
}
