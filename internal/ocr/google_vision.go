package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"menulens/internal/cache"
	"menulens/internal/logger"
	"menulens/internal/menu"
)

// MaxImageSizeBytes is the maximum image size for synchronous annotation (20MB).
const MaxImageSizeBytes = 20 * 1024 * 1024

// GoogleVisionService implements Service using Google Cloud Vision API
// document text detection.
type GoogleVisionService struct {
	client *vision.ImageAnnotatorClient
	cache  *cache.ResultCache
	log    zerolog.Logger
}

// NewGoogleVisionService creates an OCR service with credentials from the
// environment. It expects either GOOGLE_APPLICATION_CREDENTIALS path or
// GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionService(ctx context.Context, resultCache *cache.ResultCache) (Service, error) {
	const op = "NewGoogleVisionService"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return NewGoogleVisionServiceWithClient(client, resultCache), nil
}

// NewGoogleVisionServiceWithClient creates an OCR service with an explicit
// client (for testing).
func NewGoogleVisionServiceWithClient(client *vision.ImageAnnotatorClient, resultCache *cache.ResultCache) Service {
	return &GoogleVisionService{
		client: client,
		cache:  resultCache,
		log:    logger.WithComponent("ocr-google-vision"),
	}
}

// ExtractText extracts all readable text from a menu image.
func (g *GoogleVisionService) ExtractText(ctx context.Context, imageData []byte) (*menu.OCRResult, error) {
	const op = "ExtractText"

	if len(imageData) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(imageData)))
	}

	fingerprint := cache.Fingerprint(imageData)
	if g.cache != nil {
		if cached, ok := g.cache.OCRResult(fingerprint); ok {
			g.log.Debug().Str("fingerprint", fingerprint[:8]).Msg("OCR result served from cache")
			return &cached, nil
		}
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", annotation.Error.Message))
	}

	result, err := g.processAnnotation(annotation)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	if g.cache != nil {
		g.cache.SetOCRResult(fingerprint, *result)
	}

	g.log.Info().
		Int("text_length", len(result.Text)).
		Float64("confidence", result.Confidence).
		Str("language", result.Language).
		Msg("OCR extraction completed")

	return result, nil
}

// processAnnotation extracts text, confidence and language from the Vision
// API response.
func (g *GoogleVisionService) processAnnotation(annotation *visionpb.AnnotateImageResponse) (*menu.OCRResult, error) {
	fullText := annotation.FullTextAnnotation
	if fullText == nil || strings.TrimSpace(fullText.Text) == "" {
		return nil, ErrEmptyImage
	}

	// Average confidence across detected blocks; the page-level language with
	// the highest share of symbols wins.
	var confidenceSum float64
	var confidenceCount int
	languageVotes := make(map[string]float32)

	for _, page := range fullText.Pages {
		if page.Property != nil {
			for _, lang := range page.Property.DetectedLanguages {
				if lang.LanguageCode != "" {
					languageVotes[lang.LanguageCode] += lang.Confidence
				}
			}
		}
		for _, block := range page.Blocks {
			if block.Confidence > 0 {
				confidenceSum += float64(block.Confidence)
				confidenceCount++
			}
		}
	}

	var avgConfidence float64
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float64(confidenceCount)
	}

	language := "unknown"
	var best float32
	for code, votes := range languageVotes {
		if votes > best {
			best = votes
			language = code
		}
	}

	return &menu.OCRResult{
		Text:       fullText.Text,
		Confidence: avgConfidence,
		Language:   language,
	}, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
