package processor

import (
	"menulens/internal/cache"
	"menulens/internal/describe"
	"menulens/internal/extract"
	"menulens/internal/imagesearch"
)

// ServiceStatus is a point-in-time snapshot of the pipeline's configuration
// and workload, for health endpoints and the status command.
type ServiceStatus struct {
	VisionExtraction bool `json:"vision_extraction"`
	OCRExtraction    bool `json:"ocr_extraction"`
	ImageSearch      bool `json:"image_search"`
	Descriptions     bool `json:"descriptions"`

	ActiveRequests int `json:"active_requests"`

	SearchStats *imagesearch.Stats `json:"search_stats,omitempty"`
	CacheSizes  *cache.Sizes       `json:"cache_sizes,omitempty"`
}

// Status reports which adapters are live and how busy the pipeline is.
func (p *Processor) Status() ServiceStatus {
	status := ServiceStatus{
		ActiveRequests: p.tracker.ActiveCount(),
	}

	switch p.extractor.(type) {
	case *extract.OpenAIVisionExtractor:
		status.VisionExtraction = true
	case *extract.OCRExtractor:
		status.OCRExtraction = true
	}
	if _, ok := p.fallback.(*extract.OCRExtractor); ok {
		status.OCRExtraction = true
	}

	if _, ok := p.images.(*imagesearch.PlaceholderService); !ok && p.images != nil {
		status.ImageSearch = true
	}
	if _, ok := p.describer.(*describe.FallbackService); !ok && p.describer != nil {
		status.Descriptions = true
	}

	if s, ok := p.images.(interface{ Statistics() imagesearch.Stats }); ok {
		stats := s.Statistics()
		status.SearchStats = &stats
	}
	if p.cache != nil {
		sizes := p.cache.Sizes()
		status.CacheSizes = &sizes
	}

	return status
}
