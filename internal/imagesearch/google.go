package imagesearch

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"menulens/internal/cache"
	"menulens/internal/logger"
	"menulens/internal/menu"
)

const (
	// maxDailyQuota is the Google Custom Search free-tier daily limit.
	maxDailyQuota = 100

	// minRequestInterval spaces out requests to stay under the per-second
	// rate limit.
	minRequestInterval = time.Second

	// maxResultsPerSearch is the API ceiling for a single image search page.
	maxResultsPerSearch = 10
)

// reliableSources get a scoring bonus: domains that consistently host real
// food photography rather than stock clip art.
var reliableSources = []string{
	"wikipedia.org", "wikimedia.org", "foodnetwork.com",
	"allrecipes.com", "epicurious.com", "bonappetit.com",
	"seriouseats.com", "tasteofhome.com",
}

// foodTerms in an image title indicate relevance.
var foodTerms = []string{"recipe", "dish", "food", "cuisine", "cooking", "meal"}

// GoogleImageSearch implements Service using the Google Custom Search API.
type GoogleImageSearch struct {
	service  *customsearch.Service
	engineID string
	cache    *cache.ResultCache
	log      zerolog.Logger

	mu              sync.Mutex
	lastRequestTime time.Time
	dailyQuotaUsed  int
	quotaDay        string // date the quota counter belongs to
}

// NewGoogleImageSearch creates the adapter with an API key and engine ID.
func NewGoogleImageSearch(ctx context.Context, apiKey, engineID string, resultCache *cache.ResultCache) (*GoogleImageSearch, error) {
	const op = "NewGoogleImageSearch"

	if apiKey == "" || engineID == "" {
		return nil, menu.WrapError(op, menu.ErrNotConfigured, "Google Custom Search API key and engine ID are required")
	}

	service, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, menu.WrapError(op, err, "failed to create Custom Search client")
	}

	return &GoogleImageSearch{
		service:  service,
		engineID: engineID,
		cache:    resultCache,
		log:      logger.WithComponent("image-search"),
	}, nil
}

// SearchFoodImages returns up to maxResults images for the dish, degrading
// to placeholders on any failure.
func (g *GoogleImageSearch) SearchFoodImages(ctx context.Context, dishName string, maxResults int) []menu.FoodImage {
	if strings.TrimSpace(dishName) == "" {
		g.log.Warn().Msg("Empty dish name provided for image search")
		return PlaceholderImages()
	}
	if maxResults < 1 {
		maxResults = 1
	}

	if g.cache != nil {
		if cached, ok := g.cache.ImageSearchResult(dishName); ok {
			g.log.Debug().Str("dish", dishName).Msg("Image search result served from cache")
			return clamp(cached, maxResults)
		}
	}

	if !g.reserveQuota() {
		g.log.Warn().
			Str("dish", dishName).
			Int("quota_used", g.QuotaUsed()).
			Msg("Daily search quota exceeded, returning placeholder images")
		return PlaceholderImages()
	}

	items, err := g.performSearch(ctx, dishName, maxResults)
	if err != nil {
		g.log.Error().Err(err).Str("dish", dishName).Msg("Image search request failed, returning placeholder images")
		return PlaceholderImages()
	}

	images := filterImages(items)
	if len(images) == 0 {
		g.log.Info().Str("dish", dishName).Msg("No quality images found, using placeholder")
		images = PlaceholderImages()
	}

	if g.cache != nil {
		g.cache.SetImageSearchResult(dishName, images)
	}

	g.log.Info().
		Str("dish", dishName).
		Int("image_count", len(images)).
		Msg("Image search completed")

	return clamp(images, maxResults)
}

// performSearch issues the Custom Search API request, throttled to the
// minimum request interval.
func (g *GoogleImageSearch) performSearch(ctx context.Context, dishName string, maxResults int) ([]*customsearch.Result, error) {
	g.throttle()

	num := int64(maxResults)
	if num > maxResultsPerSearch {
		num = maxResultsPerSearch
	}

	// Food-specific search terms keep irrelevant matches out.
	query := dishName + " food dish"

	resp, err := g.service.Cse.List().
		Cx(g.engineID).
		Q(query).
		SearchType("image").
		Num(num).
		ImgSize("MEDIUM").
		ImgType("photo").
		Safe("active").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	return resp.Items, nil
}

// filterImages validates raw results and orders them by quality score.
func filterImages(items []*customsearch.Result) []menu.FoodImage {
	images := make([]menu.FoodImage, 0, len(items))

	for _, item := range items {
		if item == nil || !strings.HasPrefix(item.Link, "http") {
			continue
		}
		// Reject obvious non-food content.
		if strings.Contains(strings.ToLower(item.Title), "logo") {
			continue
		}

		image := menu.FoodImage{
			URL:        item.Link,
			Title:      item.Title,
			Source:     item.DisplayLink,
			LoadStatus: "loading",
		}
		if item.Image != nil {
			image.ThumbnailURL = item.Image.ThumbnailLink
			image.Width = int(item.Image.Width)
			image.Height = int(item.Image.Height)
		}
		if image.ThumbnailURL == "" {
			image.ThumbnailURL = image.URL
		}

		images = append(images, image)
	}

	sort.SliceStable(images, func(i, j int) bool {
		return qualityScore(images[i]) > qualityScore(images[j])
	})

	return images
}

// qualityScore ranks an image by size, source reliability and title
// relevance. Higher is better.
func qualityScore(image menu.FoodImage) float64 {
	var score float64

	// Size score, capped at one megapixel
	if image.Width > 0 && image.Height > 0 {
		pixels := float64(image.Width * image.Height)
		if pixels > 1_000_000 {
			pixels = 1_000_000
		}
		score += pixels / 1_000_000 * 0.4
	}

	source := strings.ToLower(image.Source)
	for _, reliable := range reliableSources {
		if strings.Contains(source, reliable) {
			score += 0.3
			break
		}
	}

	title := strings.ToLower(image.Title)
	var relevance float64
	for _, term := range foodTerms {
		if strings.Contains(title, term) {
			relevance += 0.05
		}
	}
	if relevance > 0.3 {
		relevance = 0.3
	}
	score += relevance

	return score
}

// reserveQuota checks the daily quota and claims one request slot. The
// counter resets itself when the calendar day changes.
func (g *GoogleImageSearch) reserveQuota() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if today := time.Now().Format("2006-01-02"); today != g.quotaDay {
		g.quotaDay = today
		g.dailyQuotaUsed = 0
	}
	if g.dailyQuotaUsed >= maxDailyQuota {
		return false
	}
	g.dailyQuotaUsed++
	return true
}

// throttle enforces the minimum interval between API requests.
func (g *GoogleImageSearch) throttle() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if wait := minRequestInterval - time.Since(g.lastRequestTime); wait > 0 {
		time.Sleep(wait)
	}
	g.lastRequestTime = time.Now()
}

// QuotaUsed reports how many requests were spent today.
func (g *GoogleImageSearch) QuotaUsed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dailyQuotaUsed
}

// Statistics reports search usage.
func (g *GoogleImageSearch) Statistics() Stats {
	used := g.QuotaUsed()
	return Stats{
		DailyQuotaUsed:      used,
		DailyQuotaRemaining: maxDailyQuota - used,
	}
}

func clamp(images []menu.FoodImage, max int) []menu.FoodImage {
	if len(images) > max {
		return images[:max]
	}
	return images
}
