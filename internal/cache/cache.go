// Package cache provides the process-wide result cache for external service
// calls.
//
// The cache holds independent namespaces for OCR text, extraction results,
// image search results and generated descriptions, so identical inputs never
// trigger duplicate external calls within the process lifetime. It is a
// performance cache, not a store of record: there is no eviction beyond an
// explicit Clear, and a content hash collision merely serves a stale artifact.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"

	"menulens/internal/menu"
)

// ProcessingIDLength is the width of a content-derived processing identifier.
const ProcessingIDLength = 16

// Fingerprint returns the content hash used as a cache key for image bytes.
// MD5 is deliberate: this is a dedupe key, not a security boundary.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// ProcessingID derives a fixed-width processing identifier from image bytes,
// so identical uploads are traceable to the same id.
func ProcessingID(data []byte) string {
	return Fingerprint(data)[:ProcessingIDLength]
}

// NormalizeDishName canonicalizes a dish name for use as a cache key, so
// "Pad Thai" and "pad thai " hit the same entry.
func NormalizeDishName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Sizes reports the number of entries in each namespace.
type Sizes struct {
	OCRResults   int `json:"ocr_results"`
	Extractions  int `json:"extractions"`
	ImageSearch  int `json:"image_search_results"`
	Descriptions int `json:"descriptions"`
}

// ResultCache is a concurrency-safe, process-wide cache keyed by content
// fingerprint or normalized dish name. The zero value is not usable; call New.
type ResultCache struct {
	mu           sync.RWMutex
	ocrResults   map[string]menu.OCRResult
	extractions  map[string][]menu.ParsedDish
	imageSearch  map[string][]menu.FoodImage
	descriptions map[string]menu.DishDescription
}

// New creates an empty ResultCache.
func New() *ResultCache {
	return &ResultCache{
		ocrResults:   make(map[string]menu.OCRResult),
		extractions:  make(map[string][]menu.ParsedDish),
		imageSearch:  make(map[string][]menu.FoodImage),
		descriptions: make(map[string]menu.DishDescription),
	}
}

// OCRResult returns the cached OCR extraction for an image fingerprint.
func (c *ResultCache) OCRResult(fingerprint string) (menu.OCRResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.ocrResults[fingerprint]
	return result, ok
}

// SetOCRResult caches an OCR extraction by image fingerprint.
func (c *ResultCache) SetOCRResult(fingerprint string, result menu.OCRResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ocrResults[fingerprint] = result
}

// Extraction returns the cached dish extraction for an image fingerprint.
func (c *ResultCache) Extraction(fingerprint string) ([]menu.ParsedDish, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dishes, ok := c.extractions[fingerprint]
	return dishes, ok
}

// SetExtraction caches a dish extraction by image fingerprint.
func (c *ResultCache) SetExtraction(fingerprint string, dishes []menu.ParsedDish) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extractions[fingerprint] = dishes
}

// ImageSearchResult returns cached image search results for a dish name.
// The name is normalized before lookup.
func (c *ResultCache) ImageSearchResult(dishName string) ([]menu.FoodImage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	images, ok := c.imageSearch[NormalizeDishName(dishName)]
	return images, ok
}

// SetImageSearchResult caches image search results by normalized dish name.
func (c *ResultCache) SetImageSearchResult(dishName string, images []menu.FoodImage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageSearch[NormalizeDishName(dishName)] = images
}

// Description returns the cached description for a dish name. The name is
// normalized before lookup.
func (c *ResultCache) Description(dishName string) (menu.DishDescription, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.descriptions[NormalizeDishName(dishName)]
	return desc, ok
}

// SetDescription caches a description by normalized dish name.
func (c *ResultCache) SetDescription(dishName string, desc menu.DishDescription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptions[NormalizeDishName(dishName)] = desc
}

// Sizes reports per-namespace entry counts.
func (c *ResultCache) Sizes() Sizes {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Sizes{
		OCRResults:   len(c.ocrResults),
		Extractions:  len(c.extractions),
		ImageSearch:  len(c.imageSearch),
		Descriptions: len(c.descriptions),
	}
}

// Clear drops all cached entries in every namespace.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ocrResults = make(map[string]menu.OCRResult)
	c.extractions = make(map[string][]menu.ParsedDish)
	c.imageSearch = make(map[string][]menu.FoodImage)
	c.descriptions = make(map[string]menu.DishDescription)
}
