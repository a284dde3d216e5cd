package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"realty-scraper/models"
)

func intPtr(v int) *int { return &v }

func sampleListing(id string, price *int) *models.Listing {
	return &models.Listing{
		ID:        id,
		Title:     "1-комнатная квартира",
		Price:     price,
		Link:      "https://realty.yandex.ru/offer/" + id + "/",
		ScrapedAt: time.Date(2026, 8, 28, 12, 30, 45, 0, time.Local),
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	in := []*models.Listing{
		sampleListing("aaa", intPtr(45000)),
		sampleListing("bbb", nil),
	}

	if err := WriteListings(path, in); err != nil {
		t.Fatalf("WriteListings: %v", err)
	}

	out, err := ReadListings(path)
	if err != nil {
		t.Fatalf("ReadListings: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("rows: got %d, want 2", len(out))
	}
	if out[0].ID != "aaa" || *out[0].Price != 45000 {
		t.Errorf("first row mismatch: %+v", out[0])
	}
	if out[1].Price != nil {
		t.Errorf("nil price should survive the round trip, got %d", *out[1].Price)
	}
	if !out[0].ScrapedAt.Equal(in[0].ScrapedAt) {
		t.Errorf("timestamp: got %v, want %v", out[0].ScrapedAt, in[0].ScrapedAt)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.csv")
	if err := WriteListings(path, []*models.Listing{sampleListing("aaa", intPtr(1000))}); err != nil {
		t.Fatalf("WriteListings: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "listings.csv" {
		t.Errorf("expected only the target file, got %v", entries)
	}
}

func TestReadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.csv")
	if err := os.WriteFile(path, []byte("id,title,price,link,scraped_at\naaa,t,not-a-price,l,2026-08-28 12:00:00\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadListings(path); err == nil || !strings.Contains(err.Error(), "bad price") {
		t.Errorf("expected bad price error, got %v", err)
	}
}

func TestReadRejectsWrongHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.csv")
	if err := os.WriteFile(path, []byte("id,title,price\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadListings(path); err == nil {
		t.Error("expected header error for short header")
	}
}
