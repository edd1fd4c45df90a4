// Package ocr provides OCR text extraction from menu photographs.
//
// Two backends are supported: Google Cloud Vision document text detection
// (the default) and a Google Document AI OCR processor. Both consume raw
// image bytes and produce the aggregated text with an average confidence
// score, caching results by image fingerprint so repeated uploads of the
// same photo never trigger a second API call.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID (Document AI backend)
//
// Cloud Vision API Limitations:
//   - Maximum image size: 20MB for synchronous annotation
//   - Supported formats: JPEG, PNG, WebP (the pipeline rejects anything else
//     during upload validation, before OCR is reached)
package ocr

import (
	"context"

	"menulens/internal/menu"
)

// Service defines the interface for OCR text extraction from menu images.
type Service interface {
	// ExtractText extracts all readable text from a menu image.
	// Returns the aggregated text with confidence and language metadata.
	ExtractText(ctx context.Context, imageData []byte) (*menu.OCRResult, error)
}
