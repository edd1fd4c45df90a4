package extract

import (
	"context"

	"github.com/rs/zerolog"

	"menulens/internal/logger"
	"menulens/internal/menu"
	"menulens/internal/ocr"
)

// OCRExtractor implements Service by running OCR text detection and then
// heuristic menu text parsing. It is the fallback path for deployments
// without a multimodal model.
type OCRExtractor struct {
	ocrService ocr.Service
	parser     *MenuParser
	log        zerolog.Logger
}

// NewOCRExtractor creates the extractor on top of an OCR backend.
func NewOCRExtractor(ocrService ocr.Service) *OCRExtractor {
	return &OCRExtractor{
		ocrService: ocrService,
		parser:     NewMenuParser(),
		log:        logger.WithComponent("ocr-extractor"),
	}
}

// ExtractDishes identifies the dishes visible in a menu image.
func (e *OCRExtractor) ExtractDishes(ctx context.Context, imageData []byte) ([]menu.ParsedDish, error) {
	const op = "ExtractDishes"

	result, err := e.ocrService.ExtractText(ctx, imageData)
	if err != nil {
		return nil, menu.WrapError(op, err, "OCR text extraction failed")
	}

	dishes := e.parser.ParseDishes(result)
	e.log.Info().
		Int("dish_count", len(dishes)).
		Float64("ocr_confidence", result.Confidence).
		Str("language", result.Language).
		Msg("OCR-based extraction completed")

	return dishes, nil
}
