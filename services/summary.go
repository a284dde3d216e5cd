package services

import (
	"fmt"
	"strings"

	"realty-scraper/models"
	"realty-scraper/utils"
)

// SummaryService prints the structured end-of-run report every run emits,
// success or not.
type SummaryService struct {
	logger *utils.Logger
}

// NewSummaryService creates a SummaryService with the given logger.
func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Print writes the run summary block to stdout.
func (s *SummaryService) Print(r *models.RunSummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  RUN SUMMARY — %s\033[0m\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Collection\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Pages fetched / failed : \033[1m%d / %d\033[0m\n", r.Collect.PagesFetched, r.Collect.PagesFailed)
	fmt.Printf("  Candidates extracted   : \033[1m%d\033[0m (%d skipped)\n", r.Collect.Candidates, r.Collect.SkippedCandidates)
	fmt.Printf("  Listings normalized    : \033[1m%d\033[0m (%d rejected, %d unpriced)\n",
		r.RawSize, r.Collect.Rejected, r.Collect.Unpriced)
	fmt.Println()

	fmt.Printf("\033[1;33m  Reconciliation\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.NoOp {
		fmt.Printf("  Empty snapshot — history and latest view untouched\n")
		fmt.Printf("  Raw audit : %s\n", r.RawPath)
	} else {
		fmt.Printf("  Snapshot size : \033[1m%d\033[0m (%d same-run duplicates collapsed)\n",
			r.SnapshotSize, r.Duplicates)
		fmt.Printf("  History size  : \033[1m%d\033[0m\n", r.HistorySize)
		fmt.Printf("  Raw audit : %s\n", r.RawPath)
		fmt.Printf("  Filtered  : %s\n", r.FilteredPath)
		fmt.Printf("  History   : %s\n", r.HistoryPath)
		fmt.Printf("  Latest    : %s\n", r.LatestPath)
	}
	fmt.Printf("\n  Elapsed : %.2fs\n", r.Elapsed.Seconds())

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// Log emits the same information as single log lines, for scheduled runs
// where a log collector is the primary consumer.
func (s *SummaryService) Log(r *models.RunSummary) {
	s.logger.Info("[summary] pages=%d/%d candidates=%d normalized=%d snapshot=%d history=%d noop=%t elapsed=%.2fs",
		r.Collect.PagesFetched, r.Collect.PagesFetched+r.Collect.PagesFailed,
		r.Collect.Candidates, r.RawSize, r.SnapshotSize, r.HistorySize, r.NoOp, r.Elapsed.Seconds())
}
