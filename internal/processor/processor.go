// Package processor orchestrates the menu analysis pipeline.
//
// A run moves a menu photo through validation, dish extraction, and a
// bounded-concurrency enrichment fan-out (image search + description
// generation per dish), publishing progress along the way and collecting
// failures as values rather than aborting. State for a run exists only while
// it is in flight; completed runs release their state unconditionally.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"menulens/internal/cache"
	"menulens/internal/config"
	"menulens/internal/describe"
	"menulens/internal/extract"
	"menulens/internal/imagesearch"
	"menulens/internal/logger"
	"menulens/internal/menu"
	"menulens/internal/ocr"
)

// Progress anchors for the sequential stages. Enrichment interpolates from
// 50 to 90 in enrich.go; completion pins 100.
const (
	progressUpload      = 0
	progressExtracting  = 10
	progressExtracted   = 30
	progressEnrichStart = enrichProgressStart
	progressComplete    = 100
)

// Deps are the collaborators a Processor orchestrates. All fields except
// Fallback are required; zero limits fall back to defaults.
type Deps struct {
	// Extractor is the primary dish extraction path.
	Extractor extract.Service

	// Fallback is tried when the primary extractor fails outright.
	// Optional.
	Fallback extract.Service

	// ImageSearch finds food photos per dish.
	ImageSearch imagesearch.Service

	// Describer generates dish descriptions.
	Describer describe.Service

	// Cache holds cross-request results. Optional.
	Cache *cache.ResultCache

	// MaxConcurrentEnrichment bounds the enrichment fan-out. Defaults to 3.
	MaxConcurrentEnrichment int

	// ProcessingTimeout bounds a whole run. Defaults to 5 minutes.
	ProcessingTimeout time.Duration
}

// Processor coordinates one or more concurrent menu analysis runs.
type Processor struct {
	extractor extract.Service
	fallback  extract.Service
	images    imagesearch.Service
	describer describe.Service
	cache     *cache.ResultCache
	tracker   *StateTracker

	concurrency int
	timeout     time.Duration
	log         zerolog.Logger
}

// New wires a Processor from configuration, constructing the concrete
// adapters each configured provider supports. OpenAI vision is preferred for
// extraction when available, with the OCR+parse path as fallback; either
// Document AI or Google Vision backs OCR depending on what is configured.
func New(ctx context.Context, cfg *config.Config) (*Processor, error) {
	const op = "NewProcessor"

	resultCache := cache.New()

	var primary, fallback extract.Service

	ocrService, err := newOCRService(ctx, cfg, resultCache)
	if err != nil {
		return nil, err
	}
	if ocrService != nil {
		fallback = extract.NewOCRExtractor(ocrService)
	}

	if cfg.IsConfigured(config.ProviderOpenAI) {
		visionCfg := extract.DefaultVisionConfig()
		visionCfg.Model = cfg.OpenAIVisionModel
		primary, err = extract.NewOpenAIVisionExtractor(cfg.OpenAIAPIKey, visionCfg)
		if err != nil {
			return nil, menu.WrapError(op, err, "failed to create vision extractor")
		}
	} else {
		primary, fallback = fallback, nil
	}
	if primary == nil {
		return nil, menu.WrapError(op, menu.ErrNotConfigured, "no extraction provider available")
	}

	var images imagesearch.Service
	if cfg.IsConfigured(config.ProviderGoogleSearch) {
		images, err = imagesearch.NewGoogleImageSearch(ctx, cfg.GoogleSearchAPIKey, cfg.GoogleSearchEngineID, resultCache)
		if err != nil {
			return nil, menu.WrapError(op, err, "failed to create image search service")
		}
	} else {
		images = imagesearch.NewPlaceholderService()
	}

	var describer describe.Service
	if cfg.IsConfigured(config.ProviderOpenAI) {
		describer, err = describe.NewOpenAIDescriber(cfg.OpenAIAPIKey, cfg.OpenAIModel, resultCache)
		if err != nil {
			return nil, menu.WrapError(op, err, "failed to create description service")
		}
	} else {
		describer = describe.NewFallbackService()
	}

	return NewWithDeps(Deps{
		Extractor:               primary,
		Fallback:                fallback,
		ImageSearch:             images,
		Describer:               describer,
		Cache:                   resultCache,
		MaxConcurrentEnrichment: cfg.MaxConcurrentEnrichment,
		ProcessingTimeout:       cfg.ProcessingTimeout,
	}), nil
}

// newOCRService picks an OCR backend from configuration: Document AI when a
// processor ID is configured, Google Vision when credentials exist, nil when
// neither is available.
func newOCRService(ctx context.Context, cfg *config.Config, resultCache *cache.ResultCache) (ocr.Service, error) {
	const op = "NewProcessor"

	if cfg.IsConfigured(config.ProviderDocumentAI) {
		svc, err := ocr.NewDocumentAIService(ctx, ocr.DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
			Timeout:          cfg.RequestTimeout,
		}, resultCache)
		if err != nil {
			return nil, menu.WrapError(op, err, "failed to create Document AI service")
		}
		return svc, nil
	}
	if cfg.IsConfigured(config.ProviderGoogleVision) {
		svc, err := ocr.NewGoogleVisionService(ctx, resultCache)
		if err != nil {
			return nil, menu.WrapError(op, err, "failed to create Vision OCR service")
		}
		return svc, nil
	}
	return nil, nil
}

// NewWithDeps wires a Processor from explicit collaborators, used in tests.
func NewWithDeps(deps Deps) *Processor {
	if deps.MaxConcurrentEnrichment < 1 {
		deps.MaxConcurrentEnrichment = 3
	}
	if deps.ProcessingTimeout <= 0 {
		deps.ProcessingTimeout = 5 * time.Minute
	}
	return &Processor{
		extractor:   deps.Extractor,
		fallback:    deps.Fallback,
		images:      deps.ImageSearch,
		describer:   deps.Describer,
		cache:       deps.Cache,
		tracker:     NewStateTracker(),
		concurrency: deps.MaxConcurrentEnrichment,
		timeout:     deps.ProcessingTimeout,
		log:         logger.WithComponent("processor"),
	}
}

// ProcessingIDFor derives the stable identifier a Process call for this
// image will run under, so callers can poll GetState or Cancel concurrently.
func (p *Processor) ProcessingIDFor(imageData []byte) string {
	return cache.ProcessingID(imageData)
}

// Process runs the full pipeline for one menu photo under an ID derived from
// the image fingerprint. It always returns a non-nil result carrying every
// error observed during the run; err is non-nil only when the run failed
// outright (invalid image, no dishes, cancellation, internal failure). The
// run's tracked state is released before Process returns, whatever the
// outcome.
func (p *Processor) Process(ctx context.Context, imageData []byte, callback ProgressCallback) (*menu.MenuAnalysisResult, error) {
	return p.ProcessWithID(ctx, cache.ProcessingID(imageData), imageData, callback)
}

// ProcessWithID runs the pipeline under a caller-supplied processing ID, so
// callers that track requests by their own identifiers can poll GetState and
// Cancel with them. An empty ID falls back to the fingerprint-derived one.
// Starting a second run under an ID that is still in flight fails with
// ErrAlreadyProcessing and leaves the running request untouched.
func (p *Processor) ProcessWithID(ctx context.Context, processingID string, imageData []byte, callback ProgressCallback) (result *menu.MenuAnalysisResult, err error) {
	const op = "Process"

	if processingID == "" {
		processingID = cache.ProcessingID(imageData)
	}
	start := time.Now()
	log := logger.WithProcessingID("processor", processingID)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)

	if !p.tracker.Create(processingID, cancel, callback) {
		cancel()
		log.Warn().Msg("Rejected duplicate processing request")
		return &menu.MenuAnalysisResult{
			Dishes: []menu.EnrichedDish{},
			Errors: []menu.ProcessingError{
				menu.NewFatalError(menu.ErrorTypeValidation, "processing is already in progress for this ID"),
			},
			Success: false,
		}, menu.WrapError(op, menu.ErrAlreadyProcessing, processingID)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Processing panicked")
			p.tracker.AppendError(processingID,
				menu.NewFatalError(menu.ErrorTypeNetwork, fmt.Sprintf("internal failure: %v", r)))
			result = p.failedResult(processingID, start)
			err = menu.WrapError(op, menu.ErrExtractionFailed, fmt.Sprintf("internal failure: %v", r))
		}
		// State is released unconditionally, whatever path got us here.
		p.tracker.Remove(processingID)
		cancel()
	}()

	log.Info().Int("image_bytes", len(imageData)).Msg("Processing started")

	if verr := ValidateImage(imageData); verr != nil {
		p.tracker.AppendError(processingID,
			menu.NewFatalError(menu.ErrorTypeValidation, verr.Error()))
		log.Warn().Err(verr).Msg("Image validation failed")
		return p.failedResult(processingID, start), verr
	}

	p.tracker.Update(processingID, menu.StageExtracting, progressExtracting)

	dishes, err := p.extractDishes(ctx, processingID, imageData)
	if err != nil {
		return p.failedResult(processingID, start), err
	}
	if len(dishes) == 0 {
		p.tracker.AppendError(processingID,
			menu.NewFatalError(menu.ErrorTypeParsing, "no dishes could be identified in the menu"))
		log.Warn().Msg("Extraction found no dishes")
		return p.failedResult(processingID, start), menu.WrapError(op, menu.ErrNoDishesFound, "")
	}

	p.tracker.Update(processingID, menu.StageExtracting, progressExtracted)
	log.Info().Int("dish_count", len(dishes)).Msg("Dishes extracted")

	p.tracker.Update(processingID, menu.StageEnriching, progressEnrichStart)

	worker := &enricher{
		images:      p.images,
		describer:   p.describer,
		tracker:     p.tracker,
		concurrency: p.concurrency,
		log:         log,
	}
	enriched := worker.enrichAll(ctx, processingID, dishes)

	if cerr := ctx.Err(); cerr != nil {
		log.Warn().Err(cerr).Msg("Processing aborted")
		if errors.Is(cerr, context.DeadlineExceeded) {
			p.tracker.AppendError(processingID,
				menu.NewFatalError(menu.ErrorTypeNetwork, "processing deadline exceeded"))
			result = p.failedResult(processingID, start)
			result.Dishes = enriched
			return result, menu.WrapError(op, cerr, "processing timed out")
		}
		// Cancel already removed the tracked state, so the cancellation
		// error is carried on the result directly.
		result = p.failedResult(processingID, start)
		result.Dishes = enriched
		result.Errors = append(result.Errors,
			menu.NewFatalError(menu.ErrorTypeNetwork, "processing cancelled by caller"))
		return result, menu.WrapError(op, menu.ErrCancelled, "")
	}

	p.tracker.Update(processingID, menu.StageComplete, progressComplete)

	result = &menu.MenuAnalysisResult{
		Dishes:         enriched,
		ProcessingTime: time.Since(start),
		Errors:         p.tracker.Errors(processingID),
		Success:        len(enriched) > 0,
	}

	log.Info().
		Int("dish_count", len(result.Dishes)).
		Int("error_count", len(result.Errors)).
		Dur("elapsed", result.ProcessingTime).
		Msg("Processing completed")

	return result, nil
}

// extractDishes runs the primary extractor, consulting the cross-request
// cache first and falling back to the secondary path when the primary fails.
// Provider errors are recorded on the run; only total failure propagates.
func (p *Processor) extractDishes(ctx context.Context, processingID string, imageData []byte) ([]menu.ParsedDish, error) {
	const op = "extractDishes"

	fingerprint := cache.Fingerprint(imageData)
	if p.cache != nil {
		if cached, ok := p.cache.Extraction(fingerprint); ok {
			p.log.Debug().Str("processing_id", processingID).Msg("Extraction served from cache")
			return cached, nil
		}
	}

	dishes, err := p.extractor.ExtractDishes(ctx, imageData)
	if err != nil {
		if ctx.Err() != nil {
			return nil, menu.WrapError(op, ctx.Err(), "extraction interrupted")
		}
		p.tracker.AppendError(processingID,
			menu.NewProcessingError(menu.ErrorTypeOCR, err.Error()))
		if p.fallback == nil {
			return nil, menu.WrapError(op, err, "dish extraction failed")
		}
		p.log.Warn().Err(err).Str("processing_id", processingID).Msg("Primary extraction failed, trying fallback")
		dishes, err = p.fallback.ExtractDishes(ctx, imageData)
		if err != nil {
			p.tracker.AppendError(processingID,
				menu.NewProcessingError(menu.ErrorTypeOCR, err.Error()))
			return nil, menu.WrapError(op, err, "all extraction paths failed")
		}
	}

	if p.cache != nil && len(dishes) > 0 {
		p.cache.SetExtraction(fingerprint, dishes)
	}
	return dishes, nil
}

// failedResult assembles the terminal result for a run that did not complete.
func (p *Processor) failedResult(processingID string, start time.Time) *menu.MenuAnalysisResult {
	return &menu.MenuAnalysisResult{
		Dishes:         []menu.EnrichedDish{},
		ProcessingTime: time.Since(start),
		Errors:         p.tracker.Errors(processingID),
		Success:        false,
	}
}

// GetState returns a snapshot of an in-flight run's state. The second return
// is false for unknown IDs, which covers both never-started and completed
// runs; the processor keeps no history.
func (p *Processor) GetState(processingID string) (menu.ProcessingState, bool) {
	return p.tracker.Get(processingID)
}

// Cancel aborts an in-flight run: its state is removed immediately and its
// context is cancelled, so GetState returns false as soon as Cancel returns.
// It reports whether an active run with that ID was found. In-flight adapter
// calls are not interrupted beyond the context cancellation; the processing
// goroutine finishes with a cancellation result on its own.
func (p *Processor) Cancel(processingID string) bool {
	return p.tracker.Cancel(processingID)
}

// ClearCache drops all cached cross-request results.
func (p *Processor) ClearCache() {
	if p.cache != nil {
		p.cache.Clear()
	}
}
