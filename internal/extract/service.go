// Package extract turns a menu photograph into a list of parsed dishes.
//
// Two implementations exist: an OpenAI vision extractor that asks a
// multimodal model for dishes directly, and an OCR-based extractor that runs
// Google OCR and then applies heuristic menu text parsing. Both satisfy the
// same narrow contract: a hard error when the provider is unreachable or
// returns garbage, an empty list when the menu legitimately contains no
// recognizable dishes.
package extract

import (
	"context"

	"menulens/internal/menu"
)

// Service defines the interface for dish extraction from a menu image.
type Service interface {
	// ExtractDishes identifies the dishes visible in a menu image.
	// It returns an empty slice, not an error, when the provider finds
	// nothing; an error means the provider itself failed.
	ExtractDishes(ctx context.Context, imageData []byte) ([]menu.ParsedDish, error)
}
