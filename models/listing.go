package models

import "time"

// Candidate holds the raw text fields pulled out of one listing card
// before any cleaning. Fields may be empty or garbage at this stage.
type Candidate struct {
	TitleText string
	PriceText string
	Href      string
	SourceURL string
}

// Listing is the canonical normalized record. ID is derived from Link
// alone, so the same advert keeps its identity across price changes.
// Price is nil when the price text could not be parsed; such listings
// survive only in the raw audit artifact.
type Listing struct {
	ID        string
	Title     string
	Price     *int
	Link      string
	ScrapedAt time.Time
}

// Priced reports whether the listing carries a parsed price.
func (l *Listing) Priced() bool {
	return l.Price != nil
}

// CollectStats aggregates counters from the fetch/extract/normalize phase.
type CollectStats struct {
	PagesFetched      int
	PagesFailed       int
	Candidates        int
	SkippedCandidates int
	Rejected          int
	Unpriced          int
}

// RunSummary is the structured end-of-run report logged for operators.
type RunSummary struct {
	StartedAt time.Time
	Elapsed   time.Duration

	Collect CollectStats

	RawSize      int
	SnapshotSize int
	Duplicates   int
	HistorySize  int
	NoOp         bool

	RawPath      string
	FilteredPath string
	HistoryPath  string
	LatestPath   string
}
