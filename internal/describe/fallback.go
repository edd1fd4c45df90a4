package describe

import (
	"context"

	"menulens/internal/menu"
)

// FallbackService is the Service used when description generation is not
// configured. Every dish gets the low-confidence fallback description.
type FallbackService struct{}

// NewFallbackService creates the no-op description service.
func NewFallbackService() *FallbackService {
	return &FallbackService{}
}

// GenerateDescription always returns the fallback description.
func (f *FallbackService) GenerateDescription(_ context.Context, dishName, _ string) menu.DishDescription {
	return menu.FallbackDescription(dishName)
}
