package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"realty-scraper/models"
)

// Artifact column layout, shared by every persisted file.
var csvHeader = []string{"id", "title", "price", "link", "scraped_at"}

const timeLayout = "2006-01-02 15:04:05"

// WriteListings persists listings to path atomically: rows are written to
// a temp file in the same directory which is then renamed over the target,
// so a crash mid-write never leaves a truncated artifact behind.
func WriteListings(path string, listings []*models.Listing) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("csv: create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("csv: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, l := range listings {
		price := ""
		if l.Price != nil {
			price = strconv.Itoa(*l.Price)
		}
		row := []string{l.ID, l.Title, price, l.Link, l.ScrapedAt.Format(timeLayout)}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("csv: flush %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("csv: replace %q: %w", path, err)
	}
	return nil
}

// ReadListings loads a persisted artifact. A malformed file (bad header,
// short rows, unparsable price or timestamp) is an error; the caller
// decides whether that is fatal.
func ReadListings(path string) ([]*models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header of %q: %w", path, err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("csv: %q has %d columns, want %d", path, len(header), len(csvHeader))
	}

	var listings []*models.Listing
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read %q: %w", path, err)
		}

		l := &models.Listing{ID: row[0], Title: row[1], Link: row[3]}
		if row[2] != "" {
			v, err := strconv.Atoi(row[2])
			if err != nil {
				return nil, fmt.Errorf("csv: bad price %q in %q: %w", row[2], path, err)
			}
			l.Price = &v
		}
		ts, err := time.ParseInLocation(timeLayout, row[4], time.Local)
		if err != nil {
			return nil, fmt.Errorf("csv: bad timestamp %q in %q: %w", row[4], path, err)
		}
		l.ScrapedAt = ts

		listings = append(listings, l)
	}
	return listings, nil
}
