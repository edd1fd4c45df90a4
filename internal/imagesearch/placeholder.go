package imagesearch

import (
	"context"

	"menulens/internal/menu"
)

// PlaceholderService is the Service used when image search is not configured.
// Every dish gets the deterministic placeholder set.
type PlaceholderService struct{}

// NewPlaceholderService creates the no-op search service.
func NewPlaceholderService() *PlaceholderService {
	return &PlaceholderService{}
}

// SearchFoodImages always returns the placeholder set.
func (p *PlaceholderService) SearchFoodImages(_ context.Context, _ string, _ int) []menu.FoodImage {
	return PlaceholderImages()
}
