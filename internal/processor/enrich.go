package processor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"menulens/internal/describe"
	"menulens/internal/imagesearch"
	"menulens/internal/logger"
	"menulens/internal/menu"
)

const (
	// maxImagesPerDish bounds how many search results each dish carries.
	maxImagesPerDish = 5

	// Enrichment progress is interpolated across this window as dishes
	// complete, in completion order.
	enrichProgressStart = 50
	enrichProgressEnd   = 90
)

// enricher runs the per-dish enrichment fan-out: image search plus
// description generation for every extracted dish, bounded to a fixed number
// of concurrent workers. Failures never escape a worker; they are recorded as
// error values on the run and the dish is delivered in degraded form.
type enricher struct {
	images      imagesearch.Service
	describer   describe.Service
	tracker     *StateTracker
	concurrency int
	log         zerolog.Logger
}

// enrichAll enriches all dishes and returns them ordered by extraction
// confidence, highest first. The returned slice always has one entry per
// input dish.
func (e *enricher) enrichAll(ctx context.Context, processingID string, dishes []menu.ParsedDish) []menu.EnrichedDish {
	// A dish that failed conversion is dropped, not enriched.
	valid := dishes[:0:0]
	for _, parsed := range dishes {
		if strings.TrimSpace(parsed.Name) == "" {
			e.tracker.AppendError(processingID,
				menu.NewProcessingError(menu.ErrorTypeParsing, "extracted dish with empty name dropped"))
			continue
		}
		valid = append(valid, parsed)
	}
	dishes = valid

	if len(dishes) == 0 {
		return []menu.EnrichedDish{}
	}

	enriched := make([]menu.EnrichedDish, len(dishes))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	sem := make(chan struct{}, e.concurrency)

	for i, parsed := range dishes {
		wg.Add(1)
		go func(i int, parsed menu.ParsedDish) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				enriched[i] = e.cancelledDish(processingID, parsed)
				return
			}

			enriched[i] = e.enrichOne(ctx, processingID, parsed)

			// Progress advances in completion order, not submission order.
			mu.Lock()
			completed++
			progress := enrichProgressStart +
				(enrichProgressEnd-enrichProgressStart)*completed/len(dishes)
			mu.Unlock()
			e.tracker.Update(processingID, menu.StageEnriching, progress)
		}(i, parsed)
	}
	wg.Wait()

	e.log.Debug().Int("dish_count", len(dishes)).Msg("Enrichment fan-out completed")

	// Stable keeps extraction order for equal-confidence dishes.
	sort.SliceStable(enriched, func(a, b int) bool {
		return enriched[a].Dish.Confidence > enriched[b].Dish.Confidence
	})

	return enriched
}

// enrichOne builds one EnrichedDish. A panic in either adapter is contained
// here: the dish is delivered with placeholder content and the failure is
// recorded on the run.
func (e *enricher) enrichOne(ctx context.Context, processingID string, parsed menu.ParsedDish) (result menu.EnrichedDish) {
	dish := menu.NewDish(parsed)
	dishLog := logger.WithDish("enricher", dish.Name)

	defer func() {
		if r := recover(); r != nil {
			dishLog.Error().
				Str("processing_id", processingID).
				Interface("panic", r).
				Msg("Enrichment worker panicked")
			e.tracker.AppendError(processingID,
				menu.NewProcessingError(menu.ErrorTypeNetwork,
					fmt.Sprintf("enrichment failed for %q: %v", dish.Name, r)).WithDish(dish.ID))
			result = menu.EnrichedDish{
				Dish:             dish,
				Images:           menu.NewImageSet(imagesearch.PlaceholderImages()),
				Description:      menu.FallbackDescription(dish.Name),
				ProcessingStatus: "failed",
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return e.cancelledDish(processingID, parsed)
	}

	images := e.images.SearchFoodImages(ctx, searchKey(dish.Name), maxImagesPerDish)
	imageSet := menu.NewImageSet(images)
	if imageSet.Placeholder || isPlaceholderSet(images) {
		e.tracker.AppendError(processingID,
			menu.NewProcessingError(menu.ErrorTypeImageSearch,
				fmt.Sprintf("no images found for %q, using placeholder", dish.Name)).WithDish(dish.ID))
	}

	description := e.describer.GenerateDescription(ctx, dish.Name, dish.Price)
	fallback := description.Confidence <= menu.FallbackDescription(dish.Name).Confidence
	if fallback {
		e.tracker.AppendError(processingID,
			menu.NewProcessingError(menu.ErrorTypeDescription,
				fmt.Sprintf("description generation failed for %q, using fallback", dish.Name)).WithDish(dish.ID))
	}

	status := "complete"
	if imageSet.Placeholder || isPlaceholderSet(images) || fallback {
		status = "partial"
	}

	return menu.EnrichedDish{
		Dish:             dish,
		Images:           imageSet,
		Description:      description,
		ProcessingStatus: status,
	}
}

// cancelledDish delivers a dish in degraded form when the run was cancelled
// before its enrichment started.
func (e *enricher) cancelledDish(processingID string, parsed menu.ParsedDish) menu.EnrichedDish {
	dish := menu.NewDish(parsed)
	return menu.EnrichedDish{
		Dish:             dish,
		Images:           menu.ImageSet{Placeholder: true},
		Description:      menu.FallbackDescription(dish.Name),
		ProcessingStatus: "cancelled",
	}
}

// searchKey simplifies a dish name for image search: everything after the
// first comma is preparation detail that hurts recall.
func searchKey(name string) string {
	if idx := strings.Index(name, ","); idx > 0 {
		return strings.TrimSpace(name[:idx])
	}
	return name
}

// isPlaceholderSet reports whether the result is the degraded placeholder
// set rather than real search hits.
func isPlaceholderSet(images []menu.FoodImage) bool {
	return len(images) > 0 && images[0].Source == imagesearch.PlaceholderSource
}
