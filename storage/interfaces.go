package storage

import "realty-scraper/models"

// HistoryMirror is a secondary sink for reconciled history rows. A mirror
// failure is never fatal to a run; the CSV artifacts are authoritative.
type HistoryMirror interface {
	Write(listings []*models.Listing) error
	Close() error
}
