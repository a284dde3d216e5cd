package services

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"realty-scraper/models"
	"realty-scraper/utils"
)

// Currency and unit tokens stripped from price text before digit filtering.
var priceTokens = []string{"₽/мес.", "₽", " "}

// NormalizeStats counts per-item normalization outcomes.
type NormalizeStats struct {
	Rejected int
	Unpriced int
}

// Normalizer turns raw candidates into canonical listings, rejecting the
// unusable ones. Rejections never abort a run.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize processes candidates in order. Every usable candidate becomes
// a listing, repeated links included: the raw audit trail records each
// observation verbatim, and a second price seen for the same advert within
// one run is a distinct (id, price) pair that history must accrue.
// Collapsing duplicates is the reconciler's job.
func (n *Normalizer) Normalize(candidates []*models.Candidate) ([]*models.Listing, NormalizeStats) {
	var stats NormalizeStats
	result := make([]*models.Listing, 0, len(candidates))

	for _, c := range candidates {
		title := strings.TrimSpace(c.TitleText)
		if title == "" {
			n.logger.Warn("[normalize] Dropping candidate with empty title (from %s)", c.SourceURL)
			stats.Rejected++
			continue
		}

		link := resolveLink(c.Href, c.SourceURL)
		if link == "" {
			n.logger.Warn("[normalize] Dropping candidate with empty link: %q", title)
			stats.Rejected++
			continue
		}

		price := n.parsePrice(c.PriceText)
		if price == nil {
			stats.Unpriced++
		}

		result = append(result, &models.Listing{
			ID:        HashLink(link),
			Title:     title,
			Price:     price,
			Link:      link,
			ScrapedAt: time.Now().Truncate(time.Second),
		})
	}

	n.logger.Info("[normalize] %d candidates → %d listings (%d rejected, %d without price)",
		len(candidates), len(result), stats.Rejected, stats.Unpriced)
	return result, stats
}

// parsePrice strips currency tokens and every non-digit rune, then parses
// the remainder as a whole-unit integer. nil means unparsable; zero and
// negative values never occur past this point.
func (n *Normalizer) parsePrice(raw string) *int {
	s := raw
	for _, tok := range priceTokens {
		s = strings.ReplaceAll(s, tok, "")
	}

	var digits strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		n.logger.Warn("[normalize] Could not parse price from %q", raw)
		return nil
	}

	v, err := strconv.Atoi(digits.String())
	if err != nil || v <= 0 {
		n.logger.Warn("[normalize] Could not parse price from %q", raw)
		return nil
	}
	return &v
}

// HashLink computes the content-derived listing identity: an md5 hex digest
// of the resolved link. Price and title are deliberately excluded so an
// advert keeps its id across price changes.
func HashLink(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

// resolveLink makes root-relative hrefs absolute against the source page's
// origin; anything else passes through unchanged.
func resolveLink(href, sourceURL string) string {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, "/") {
		return href
	}
	u, err := url.Parse(sourceURL)
	if err != nil || u.Host == "" {
		return href
	}
	return u.Scheme + "://" + u.Host + href
}
