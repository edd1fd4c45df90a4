package extract

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"menulens/internal/logger"
	"menulens/internal/menu"
)

// minDishConfidence is the threshold below which a parsed candidate is
// discarded as OCR noise.
const minDishConfidence = 0.3

// pricePatterns match prices across common currencies and formats, most
// specific first.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\d+(?:\.\d{2})?`),                                    // $12.99, $12
	regexp.MustCompile(`€\d+(?:[.,]\d{2})?`),                                   // €12.99, €12,99
	regexp.MustCompile(`£\d+(?:\.\d{2})?`),                                     // £12.99
	regexp.MustCompile(`¥\d+`),                                                 // ¥1200
	regexp.MustCompile(`\d+(?:[.,]\d{2})?\s*(?:USD|EUR|GBP|CAD|AUD)`),          // 12.99 USD
	regexp.MustCompile(`(?i)\d+(?:[.,]\d{2})?\s*(?:dollars?|euros?|pounds?)`),  // 12.99 dollars
	regexp.MustCompile(`\d+[.,]\d{2}`),                                         // 12.99 (bare amount)
}

// skipPatterns match menu lines that are never dishes: section headers,
// contact details, separators.
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:appetizers?|starters?|salads?|soups?|mains?|entrees?|desserts?|drinks?|beverages?|sides?)$`),
	regexp.MustCompile(`(?i)^(?:menu|today's special|chef's recommendation)$`),
	regexp.MustCompile(`(?i)^(?:hours?|phone|address|website)`),
	regexp.MustCompile(`^\s*[-=_]{3,}\s*$`),
}

// ocrArtifacts strips recognition noise before parsing.
var ocrArtifacts = []*regexp.Regexp{
	regexp.MustCompile(`[|]{2,}`),
	regexp.MustCompile(`[.]{4,}`),
	regexp.MustCompile(`\s{3,}`),
}

var letterPattern = regexp.MustCompile(`[a-zA-Z]`)

// ParserStats summarizes a parsing pass, logged for diagnostics.
type ParserStats struct {
	TotalLines     int
	DishCount      int
	PricedCount    int
	MeanConfidence float64
}

// MenuParser extracts dishes from OCR text using pattern matching and
// heuristic line analysis.
type MenuParser struct {
	log zerolog.Logger
}

// NewMenuParser creates a parser.
func NewMenuParser() *MenuParser {
	return &MenuParser{log: logger.WithComponent("menu-parser")}
}

// ParseDishes extracts dishes and their prices from an OCR result. Lines
// that match no dish heuristics are silently skipped; an empty return means
// the text contained no recognizable dishes, not that parsing failed.
func (p *MenuParser) ParseDishes(ocrResult *menu.OCRResult) []menu.ParsedDish {
	if ocrResult == nil || strings.TrimSpace(ocrResult.Text) == "" {
		p.log.Warn().Msg("Empty OCR text provided for parsing")
		return nil
	}

	lines := p.cleanLines(ocrResult.Text)

	var dishes []menu.ParsedDish
	for _, line := range lines {
		if dish, ok := p.parseLine(line, ocrResult.Confidence); ok && dish.Confidence >= minDishConfidence {
			dishes = append(dishes, dish)
		}
	}

	stats := Statistics(lines, dishes)
	p.log.Info().
		Int("dish_count", stats.DishCount).
		Int("line_count", stats.TotalLines).
		Msg("Menu parsing completed")
	p.log.Debug().
		Int("priced", stats.PricedCount).
		Float64("mean_confidence", stats.MeanConfidence).
		Msg("Parsing statistics")

	return dishes
}

// cleanLines splits OCR text into parseable lines, dropping empties, section
// headers and recognition artifacts.
func (p *MenuParser) cleanLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))

	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if matchesAny(skipPatterns, line) {
			continue
		}
		for _, artifact := range ocrArtifacts {
			line = artifact.ReplaceAllString(line, " ")
		}
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseLine splits one menu line into a dish name and price.
func (p *MenuParser) parseLine(line string, ocrConfidence float64) (menu.ParsedDish, bool) {
	price := ""
	name := line

	for _, pattern := range pricePatterns {
		if loc := pattern.FindStringIndex(line); loc != nil {
			price = strings.TrimSpace(line[loc[0]:loc[1]])
			name = strings.TrimSpace(line[:loc[0]] + line[loc[1]:])
			break
		}
	}

	name = strings.Trim(name, ".-–— \t")
	if len(name) < 3 || !letterPattern.MatchString(name) {
		return menu.ParsedDish{}, false
	}

	// Confidence: start from the OCR confidence, reward a detected price,
	// penalize suspiciously long lines that are probably merged entries.
	confidence := ocrConfidence
	if confidence == 0 {
		confidence = 0.5
	}
	if price != "" {
		confidence += 0.2
	}
	if len(name) > 80 {
		confidence -= 0.2
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}

	return menu.ParsedDish{
		Name:       name,
		Price:      price,
		Confidence: confidence,
	}, true
}

// Statistics computes summary statistics over a parsing pass.
func Statistics(lines []string, dishes []menu.ParsedDish) ParserStats {
	stats := ParserStats{
		TotalLines: len(lines),
		DishCount:  len(dishes),
	}
	var sum float64
	for _, d := range dishes {
		if d.Price != "" {
			stats.PricedCount++
		}
		sum += d.Confidence
	}
	if len(dishes) > 0 {
		stats.MeanConfidence = sum / float64(len(dishes))
	}
	return stats
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}
