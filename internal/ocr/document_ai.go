package ocr

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"menulens/internal/cache"
	"menulens/internal/logger"
	"menulens/internal/menu"
)

// DocumentAIConfig holds configuration for the Document AI OCR backend.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the Document AI OCR processor ID.
	ProcessorID string

	// ProcessorVersion specifies a particular processor version.
	// If empty, uses the default version.
	ProcessorVersion string

	// Timeout is the maximum time to wait for processing. Default: 60 seconds.
	Timeout time.Duration
}

// DocumentAIService implements Service using a Google Document AI OCR
// processor. It is an alternative backend to Cloud Vision for deployments
// that already run Document AI.
type DocumentAIService struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	cache  *cache.ResultCache
	log    zerolog.Logger
}

// NewDocumentAIService creates the backend with credentials from the
// environment. Requires GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID.
func NewDocumentAIService(ctx context.Context, config DocumentAIConfig, resultCache *cache.ResultCache) (Service, error) {
	const op = "NewDocumentAIService"

	if config.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "project ID is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "processor ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption

	// Regional endpoint for non-US locations
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIService{
		client: client,
		config: config,
		cache:  resultCache,
		log:    logger.WithComponent("ocr-document-ai"),
	}, nil
}

// ExtractText extracts all readable text from a menu image.
func (d *DocumentAIService) ExtractText(ctx context.Context, imageData []byte) (*menu.OCRResult, error) {
	const op = "ExtractText"

	if len(imageData) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(imageData)))
	}

	fingerprint := cache.Fingerprint(imageData)
	if d.cache != nil {
		if cached, ok := d.cache.OCRResult(fingerprint); ok {
			d.log.Debug().Str("fingerprint", fingerprint[:8]).Msg("OCR result served from cache")
			return &cached, nil
		}
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  imageData,
				MimeType: detectMimeType(imageData),
			},
		},
	}

	resp, err := d.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI call failed: %v", err))
	}

	doc := resp.GetDocument()
	if doc == nil || strings.TrimSpace(doc.GetText()) == "" {
		return nil, WrapOCRError(op, ErrEmptyImage, "")
	}

	result := &menu.OCRResult{
		Text:       doc.GetText(),
		Confidence: pageConfidence(doc),
		Language:   pageLanguage(doc),
	}

	if d.cache != nil {
		d.cache.SetOCRResult(fingerprint, *result)
	}

	d.log.Info().
		Int("text_length", len(result.Text)).
		Float64("confidence", result.Confidence).
		Str("language", result.Language).
		Msg("Document AI extraction completed")

	return result, nil
}

// processorName builds the fully qualified processor resource name.
func (d *DocumentAIService) processorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
	if d.config.ProcessorVersion != "" {
		name = fmt.Sprintf("%s/processorVersions/%s", name, d.config.ProcessorVersion)
	}
	return name
}

// pageConfidence averages the per-page detected-language confidence, the
// closest thing Document AI reports to an overall OCR confidence.
func pageConfidence(doc *documentaipb.Document) float64 {
	var sum float64
	var count int
	for _, page := range doc.GetPages() {
		for _, lang := range page.GetDetectedLanguages() {
			if lang.GetConfidence() > 0 {
				sum += float64(lang.GetConfidence())
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// pageLanguage picks the dominant detected language across pages.
func pageLanguage(doc *documentaipb.Document) string {
	votes := make(map[string]float32)
	for _, page := range doc.GetPages() {
		for _, lang := range page.GetDetectedLanguages() {
			if lang.GetLanguageCode() != "" {
				votes[lang.GetLanguageCode()] += lang.GetConfidence()
			}
		}
	}
	language := "unknown"
	var best float32
	for code, v := range votes {
		if v > best {
			best = v
			language = code
		}
	}
	return language
}

// detectMimeType sniffs the image container; upload validation has already
// limited the input to JPEG, PNG and WebP.
func detectMimeType(data []byte) string {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/jpeg", "image/png", "image/webp":
		return mime
	}
	return "image/jpeg"
}

// Close closes the underlying Document AI client.
func (d *DocumentAIService) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
