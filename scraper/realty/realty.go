package realty

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"realty-scraper/config"
	"realty-scraper/models"
	"realty-scraper/services"
	"realty-scraper/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is the rendered markup of one target URL.
type Page struct {
	URL  string
	HTML string
}

// Scraper drives a headless browser over the configured target pages and
// turns the rendered markup into normalized listings. It holds no retry
// policy of its own; the runner owns retries.
type Scraper struct {
	cfg        *config.Config
	logger     *utils.Logger
	pool       *utils.WorkerPool
	extractor  *Extractor
	normalizer *services.Normalizer
}

// New creates a ready-to-use Scraper with the default selector chains.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:        cfg,
		logger:     logger,
		pool:       utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		extractor:  NewExtractor(DefaultSelectors(), logger),
		normalizer: services.NewNormalizer(logger),
	}
}

// Check verifies that a usable browser binary exists. A miss is a
// configuration error, not a transient one.
func (s *Scraper) Check() error {
	if findBrowserBinary(s.cfg.ChromeBin) == "" {
		return fmt.Errorf("no Chrome/Chromium binary found (set CHROME_BIN)")
	}
	return nil
}

// Collect runs one fetch/extract/normalize pass over all target URLs and
// returns the combined listing set in target-URL order.
func (s *Scraper) Collect(ctx context.Context) ([]*models.Listing, models.CollectStats, error) {
	var stats models.CollectStats

	pages, err := s.fetchPages(ctx, &stats)
	if err != nil {
		return nil, stats, err
	}

	var listings []*models.Listing
	for _, page := range pages {
		if page == nil {
			continue
		}
		candidates, exStats := s.extractor.Extract(page.HTML, page.URL)
		stats.Candidates += len(candidates)
		stats.SkippedCandidates += exStats.Skipped

		normalized, nStats := s.normalizer.Normalize(candidates)
		stats.Rejected += nStats.Rejected
		stats.Unpriced += nStats.Unpriced
		listings = append(listings, normalized...)
	}

	s.logger.Info("[realty] Collect complete — %d pages, %d candidates, %d listings",
		stats.PagesFetched, stats.Candidates, len(listings))
	return listings, stats, nil
}

// fetchPages launches the browser session and loads every target URL,
// returning rendered pages slotted by target index so the combined result
// order is deterministic regardless of fetch completion order. A failed
// page leaves a nil slot; a failed browser launch fails the whole phase.
func (s *Scraper) fetchPages(ctx context.Context, stats *models.CollectStats) ([]*Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if bin := findBrowserBinary(s.cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser up front so a launch failure is distinguishable
	// from an individual page failure.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("browser launch: %w", err)
	}
	s.logger.Info("[realty] Browser session started")

	// Slots are written by index; only the shared counters need the lock.
	pages := make([]*Page, len(s.cfg.TargetURLs))
	targets := utils.NewLinkSet()
	var mu sync.Mutex
	for i, target := range s.cfg.TargetURLs {
		i, target := i, target
		if !targets.Add(target) {
			s.logger.Warn("[realty] Duplicate target URL configured, fetching once: %s", target)
			continue
		}
		s.pool.Submit(ctx, func() {
			html, err := s.fetchOne(browserCtx, target)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("[realty] Page load failed, skipping %s: %v", target, err)
				stats.PagesFailed++
				return
			}
			stats.PagesFetched++
			pages[i] = &Page{URL: target, HTML: html}
		})
	}
	s.pool.Wait()

	return pages, nil
}

// fetchOne loads a single target URL in its own tab and waits a jittered
// settle interval for client-side rendering before capturing the markup.
func (s *Scraper) fetchOne(browserCtx context.Context, target string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.cfg.PageTimeout)
	defer cancelTimeout()

	settle := s.cfg.SettleMin + time.Duration(rand.Int63n(int64(s.cfg.SettleJitter)+1))
	s.logger.Info("[realty] Opening %s (settle %.2fs)", target, settle.Seconds())

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp navigate: %w", err)
	}
	return html, nil
}

// findBrowserBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findBrowserBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
