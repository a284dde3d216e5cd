package realty

import (
	"testing"

	"realty-scraper/utils"
)

const pageURL = "https://realty.yandex.ru/moskva_i_moskovskaya_oblast/snyat/kvartira/"

const primaryMarkup = `
<html><body>
  <div class="OffersSerpItem">
    <a class="OffersSerpItem__link" href="/offer/1/">
      <span class="OffersSerpItemTitle__text">1-комнатная квартира, 35 м²</span>
      <span class="OffersSerpItemPrice__price">45 000 ₽/мес.</span>
    </a>
  </div>
  <div class="OffersSerpItem">
    <a class="OffersSerpItem__link" href="/offer/2/">
      <span class="OffersSerpItemTitle__text">Студия, 22 м²</span>
      <span class="OffersSerpItemPrice__price">32 000 ₽/мес.</span>
    </a>
  </div>
</body></html>`

const fallbackMarkup = `
<html><body>
  <div class="OfferCard">
    <h3>Квартира A</h3>
    <span data-test="price">40 000</span>
    <a href="/offer/a/">card</a>
  </div>
  <div class="OfferCard">
    <h3>Квартира B</h3>
    <span data-test="price">41 000</span>
    <a href="/offer/b/">card</a>
  </div>
  <div class="OfferCard">
    <h3>Квартира C</h3>
    <span data-test="price">42 000</span>
    <a href="/offer/c/">card</a>
  </div>
</body></html>`

func newExtractor() *Extractor {
	return NewExtractor(DefaultSelectors(), utils.NewLogger())
}

func TestExtractPrimarySelector(t *testing.T) {
	candidates, stats := newExtractor().Extract(primaryMarkup, pageURL)

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if stats.Fallback != "" {
		t.Errorf("primary selector matched, Fallback should be empty, got %q", stats.Fallback)
	}
	if candidates[0].Href != "/offer/1/" {
		t.Errorf("href: got %q, want /offer/1/", candidates[0].Href)
	}
	if candidates[1].PriceText != "32 000 ₽/мес." {
		t.Errorf("price text: got %q", candidates[1].PriceText)
	}
}

func TestExtractFallbackSelector(t *testing.T) {
	candidates, stats := newExtractor().Extract(fallbackMarkup, pageURL)

	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates via fallback, got %d", len(candidates))
	}
	if stats.Fallback == "" {
		t.Error("fallback container selector should be recorded")
	}
	if candidates[2].TitleText != "Квартира C" {
		t.Errorf("title: got %q", candidates[2].TitleText)
	}
}

func TestExtractSkipsContainersMissingFields(t *testing.T) {
	markup := `
	<html><body>
	  <div class="OffersSerpItem">
	    <span class="OffersSerpItemTitle__text">Без цены и ссылки</span>
	  </div>
	  <div class="OffersSerpItem">
	    <a class="OffersSerpItem__link" href="/offer/3/">
	      <span class="OffersSerpItemTitle__text">Полная карточка</span>
	      <span class="OffersSerpItemPrice__price">50 000 ₽/мес.</span>
	    </a>
	  </div>
	</body></html>`

	candidates, stats := newExtractor().Extract(markup, pageURL)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped: got %d, want 1", stats.Skipped)
	}
}

func TestExtractNoContainers(t *testing.T) {
	candidates, stats := newExtractor().Extract("<html><body><p>пусто</p></body></html>", pageURL)
	if len(candidates) != 0 {
		t.Errorf("expected 0 candidates, got %d", len(candidates))
	}
	if stats.Containers != 0 {
		t.Errorf("Containers: got %d, want 0", stats.Containers)
	}
}

func TestExtractChainIsDataDriven(t *testing.T) {
	// A chain extended with a brand-new selector picks up markup that the
	// default chains know nothing about, without extraction-logic changes.
	chains := DefaultSelectors()
	chains.Container = append(chains.Container, ".FutureCard")

	markup := `
	<html><body>
	  <div class="FutureCard">
	    <h2>Новая разметка</h2>
	    <span data-test="price">60 000</span>
	    <a href="/offer/z/">x</a>
	  </div>
	</body></html>`

	candidates, _ := NewExtractor(chains, utils.NewLogger()).Extract(markup, pageURL)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate from extended chain, got %d", len(candidates))
	}
}
