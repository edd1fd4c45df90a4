// Package imagesearch finds food photographs for dishes using the Google
// Custom Search API.
//
// The adapter never fails outward: any API error, quota exhaustion or empty
// result degrades to a deterministic placeholder list, because the pipeline
// treats "no images" as a normal outcome rather than an exceptional one.
//
// Required Environment Variables (consumed via config, not read here):
//   - GOOGLE_SEARCH_API_KEY: Google Custom Search API key
//   - GOOGLE_SEARCH_ENGINE_ID: Custom Search Engine ID
//
// API Limitations:
//   - Free tier: 100 queries per day
//   - The adapter additionally spaces requests at least one second apart
package imagesearch

import (
	"context"

	"menulens/internal/menu"
)

// Service defines the interface for food image search.
type Service interface {
	// SearchFoodImages returns up to maxResults images for the dish. It
	// never returns an empty slice: on any failure, quota exhaustion or
	// empty provider result it degrades to placeholder images.
	SearchFoodImages(ctx context.Context, dishName string, maxResults int) []menu.FoodImage
}

// Stats reports search usage, surfaced through the processor's service status.
type Stats struct {
	DailyQuotaUsed      int `json:"daily_quota_used"`
	DailyQuotaRemaining int `json:"daily_quota_remaining"`
}

// PlaceholderSource marks an image as the degraded fallback rather than a
// real search hit.
const PlaceholderSource = "placeholder"

// PlaceholderImages returns the deterministic fallback used when search
// fails or yields nothing usable.
func PlaceholderImages() []menu.FoodImage {
	return []menu.FoodImage{
		{
			URL:          "https://via.placeholder.com/400x300/f0f0f0/666666?text=Food+Image",
			ThumbnailURL: "https://via.placeholder.com/150x150/f0f0f0/666666?text=Food",
			Title:        "Food placeholder image",
			Source:       PlaceholderSource,
			Width:        400,
			Height:       300,
			LoadStatus:   "loaded",
		},
	}
}
