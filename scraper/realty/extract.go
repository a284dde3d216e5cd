package realty

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"realty-scraper/models"
	"realty-scraper/utils"
)

// SelectorChains is the data-driven fallback configuration for extraction.
// The site's class names churn across deployments, so every lookup is an
// ordered list tried front to back; the first selector with a non-empty
// match set wins. New fallbacks are added here, not in extraction logic.
type SelectorChains struct {
	Container []string
	Title     []string
	Price     []string
	Link      []string
}

// DefaultSelectors returns the chains known to match the target site's
// current and recently-seen markup variants.
func DefaultSelectors() SelectorChains {
	return SelectorChains{
		Container: []string{
			".OffersSerpItem",
			".CardComponent",
			".Card",
			".OfferCard",
			`[data-test="offer-card"]`,
			`[class*="offer-card"]`,
			`[class*="OfferCard"]`,
		},
		Title: []string{
			".OffersSerpItemTitle__text",
			`[class*="title"]`,
			"h3",
			"h2",
		},
		Price: []string{
			".OffersSerpItemPrice__price",
			`[class*="price"]`,
			`[data-test="price"]`,
		},
		Link: []string{
			".OffersSerpItem__link",
			"a",
			"[href]",
		},
	}
}

// ExtractStats counts per-page extraction outcomes.
type ExtractStats struct {
	Containers int
	Emitted    int
	Skipped    int
	// Fallback is the container selector that matched when the primary
	// one did not, empty otherwise.
	Fallback string
}

// Extractor turns rendered markup into listing candidates.
type Extractor struct {
	chains SelectorChains
	logger *utils.Logger
}

// NewExtractor creates an Extractor using the given selector chains.
func NewExtractor(chains SelectorChains, logger *utils.Logger) *Extractor {
	return &Extractor{chains: chains, logger: logger}
}

// Extract parses one page's markup into candidates. A candidate is emitted
// only when the title, price, and link chains all matched something; whether
// the price text parses is the normalizer's problem. Unparseable markup
// yields zero candidates rather than an error.
func (e *Extractor) Extract(html, sourceURL string) ([]*models.Candidate, ExtractStats) {
	var stats ExtractStats

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Error("[extract] Unparseable markup from %s: %v", sourceURL, err)
		return nil, stats
	}

	containers := e.findContainers(doc, sourceURL, &stats)
	if containers == nil {
		e.logger.Warn("[extract] No listing containers found on %s", sourceURL)
		return nil, stats
	}

	var candidates []*models.Candidate
	containers.Each(func(_ int, item *goquery.Selection) {
		titleEl := firstMatch(item, e.chains.Title)
		priceEl := firstMatch(item, e.chains.Price)
		linkEl := firstMatch(item, e.chains.Link)

		if titleEl == nil || priceEl == nil || linkEl == nil {
			stats.Skipped++
			return
		}

		href, _ := linkEl.Attr("href")
		candidates = append(candidates, &models.Candidate{
			TitleText: titleEl.Text(),
			PriceText: priceEl.Text(),
			Href:      href,
			SourceURL: sourceURL,
		})
		stats.Emitted++
	})

	if stats.Skipped > 0 {
		e.logger.Warn("[extract] Skipped %d containers with missing fields on %s",
			stats.Skipped, sourceURL)
	}
	e.logger.Info("[extract] %s — %d containers, %d candidates",
		sourceURL, stats.Containers, stats.Emitted)
	return candidates, stats
}

// findContainers walks the container chain and returns the first non-empty
// match set, recording when a fallback selector was needed.
func (e *Extractor) findContainers(doc *goquery.Document, sourceURL string, stats *ExtractStats) *goquery.Selection {
	for i, selector := range e.chains.Container {
		found := doc.Find(selector)
		if found.Length() == 0 {
			if i == 0 {
				e.logger.Warn("[extract] Primary selector %q matched nothing on %s, trying fallbacks",
					selector, sourceURL)
			}
			continue
		}
		if i > 0 {
			stats.Fallback = selector
			e.logger.Info("[extract] Using fallback selector %q — %d containers", selector, found.Length())
		}
		stats.Containers = found.Length()
		return found
	}
	return nil
}

// firstMatch returns the first element matched by the first selector in
// the chain that matches anything, or nil when the whole chain misses.
func firstMatch(scope *goquery.Selection, chain []string) *goquery.Selection {
	for _, selector := range chain {
		if found := scope.Find(selector); found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}
