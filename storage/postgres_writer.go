package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"realty-scraper/models"
)

// PostgresWriter mirrors reconciled history rows into PostgreSQL for ad-hoc
// querying. The CSV artifacts remain the source of truth; the table carries
// the same (listing_id, price) uniqueness the reconciler enforces, so
// re-mirroring the same rows is a no-op.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listing_history (
			listing_id  VARCHAR(32) NOT NULL,
			title       TEXT        NOT NULL,
			price       BIGINT      NOT NULL,
			link        TEXT        NOT NULL,
			scraped_at  TIMESTAMPTZ NOT NULL,
			UNIQUE (listing_id, price)
		);

		CREATE INDEX IF NOT EXISTS idx_listing_history_price ON listing_history(price);
		CREATE INDEX IF NOT EXISTS idx_listing_history_id    ON listing_history(listing_id);
	`)
	return err
}

// Write mirrors priced listings into the history table. Pairs already
// present are left untouched, preserving their first-seen timestamps.
func (pw *PostgresWriter) Write(listings []*models.Listing) error {
	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*5)

	n := 0
	for _, l := range batch {
		if !l.Priced() {
			continue
		}
		base := n * 5
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		valueArgs = append(valueArgs, l.ID, l.Title, *l.Price, l.Link, l.ScrapedAt)
		n++
	}
	if n == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO listing_history (listing_id, title, price, link, scraped_at)
		VALUES %s
		ON CONFLICT (listing_id, price) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// Count returns the number of mirrored history rows.
func (pw *PostgresWriter) Count() (int, error) {
	var n int
	if err := pw.db.QueryRow("SELECT COUNT(*) FROM listing_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
