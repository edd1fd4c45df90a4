// Package menu defines the core data model for the menu analysis pipeline.
//
// The types in this package flow between the extraction, enrichment and
// orchestration layers: a menu photo yields ParsedDish values, enrichment
// turns each into an EnrichedDish, and a completed run is summarized as a
// MenuAnalysisResult. All types are plain values; none of them carry
// goroutine-safety guarantees of their own.
package menu

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies a phase of the processing pipeline. Transitions are
// forward-only: Upload → Extracting → Enriching → Complete.
type Stage string

const (
	StageUpload     Stage = "upload"
	StageExtracting Stage = "extracting"
	StageEnriching  Stage = "enriching"
	StageComplete   Stage = "complete"
)

// order returns the position of the stage in the pipeline, used to reject
// backward transitions.
func (s Stage) order() int {
	switch s {
	case StageUpload:
		return 0
	case StageExtracting:
		return 1
	case StageEnriching:
		return 2
	case StageComplete:
		return 3
	}
	return -1
}

// Before reports whether s comes strictly before other in pipeline order.
func (s Stage) Before(other Stage) bool {
	return s.order() < other.order()
}

// ErrorType classifies a ProcessingError.
type ErrorType string

const (
	ErrorTypeOCR         ErrorType = "ocr"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeImageSearch ErrorType = "image_search"
	ErrorTypeDescription ErrorType = "description"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeValidation  ErrorType = "validation"
)

// ProcessingError records a single failure observed during a run. Errors are
// append-only: once created they are never mutated.
type ProcessingError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	DishID      string    `json:"dish_id,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewProcessingError creates a recoverable error of the given type, stamped
// with the current time.
func NewProcessingError(kind ErrorType, message string) ProcessingError {
	return ProcessingError{
		Type:        kind,
		Message:     message,
		Recoverable: true,
		Timestamp:   time.Now(),
	}
}

// NewFatalError creates a non-recoverable error of the given type.
func NewFatalError(kind ErrorType, message string) ProcessingError {
	e := NewProcessingError(kind, message)
	e.Recoverable = false
	return e
}

// WithDish returns a copy of the error tagged with the dish it relates to.
func (e ProcessingError) WithDish(dishID string) ProcessingError {
	e.DishID = dishID
	return e
}

// ProcessingState is the mutable per-request state tracked while a run is in
// flight. It is owned by the processor's state tracker; callers receive
// snapshot copies.
type ProcessingState struct {
	Stage     Stage             `json:"stage"`
	Progress  int               `json:"progress"` // 0-100, monotonically non-decreasing
	Errors    []ProcessingError `json:"errors"`
	StartTime time.Time         `json:"start_time"`
}

// Elapsed returns the time since the request started.
func (s ProcessingState) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

// OCRResult is the raw text extraction from a menu image, produced by one of
// the OCR backends and consumed by the menu text parser.
type OCRResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0-1.0
	Language   string  `json:"language"`
}

// ParsedDish is a dish as produced by the extraction stage, before identity
// assignment and enrichment.
type ParsedDish struct {
	Name        string  `json:"name"`
	Price       string  `json:"price"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"` // 0.0-1.0
}

// Dish is the canonical identity of a menu item.
type Dish struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name"`
	Price        string  `json:"price"`
	Confidence   float64 `json:"confidence"` // 0.0-1.0
}

// NewDish assigns an identity to a parsed dish. The original extracted name
// is preserved even if the display name is normalized later.
func NewDish(parsed ParsedDish) Dish {
	return Dish{
		ID:           uuid.NewString(),
		Name:         parsed.Name,
		OriginalName: parsed.Name,
		Price:        parsed.Price,
		Confidence:   parsed.Confidence,
	}
}

// FoodImage is an image search result for a dish. Immutable value object.
type FoodImage struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Title        string `json:"title"`
	Source       string `json:"source"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	LoadStatus   string `json:"load_status"`
}

// ImageSet bundles the images attached to an enriched dish. When search
// produced nothing usable, Placeholder is set and Primary is nil.
type ImageSet struct {
	Primary     *FoodImage  `json:"primary,omitempty"`
	Secondary   []FoodImage `json:"secondary,omitempty"`
	Placeholder bool        `json:"placeholder,omitempty"`
}

// NewImageSet builds an ImageSet from ordered search results. An empty input
// yields a placeholder set.
func NewImageSet(images []FoodImage) ImageSet {
	if len(images) == 0 {
		return ImageSet{Placeholder: true}
	}
	set := ImageSet{Primary: &images[0]}
	if len(images) > 1 {
		set.Secondary = images[1:]
	}
	return set
}

// DishDescription is the generated description of a dish. A fully populated
// fallback value stands in when generation is unavailable, so consumers never
// see a missing description.
type DishDescription struct {
	Text                string   `json:"text"`
	Ingredients         []string `json:"ingredients"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	CuisineType         string   `json:"cuisine_type,omitempty"`
	SpiceLevel          string   `json:"spice_level,omitempty"`
	PreparationMethod   string   `json:"preparation_method,omitempty"`
	Confidence          float64  `json:"confidence"` // 0.0-1.0
}

// FallbackDescription returns the low-confidence placeholder used when the
// description service fails or is not configured.
func FallbackDescription(dishName string) DishDescription {
	return DishDescription{
		Text:                "A delicious " + dishName + " dish.",
		Ingredients:         []string{},
		DietaryRestrictions: []string{},
		Confidence:          0.1,
	}
}

// EnrichedDish is the aggregate of a dish, its images and its description.
// Built once, atomically, by the enrichment worker that owns it.
type EnrichedDish struct {
	Dish             Dish            `json:"dish"`
	Images           ImageSet        `json:"images"`
	Description      DishDescription `json:"description"`
	ProcessingStatus string          `json:"processing_status"`
}

// MenuAnalysisResult is the terminal output of one processing run.
type MenuAnalysisResult struct {
	Dishes         []EnrichedDish    `json:"dishes"`
	ProcessingTime time.Duration     `json:"processing_time"`
	Errors         []ProcessingError `json:"errors"`
	Success        bool              `json:"success"`
}
