package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"sitter-scraper/models"
	"sitter-scraper/utils"
)

// PostgresWriter mirrors exported sitters into PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS sitters (
			identity            TEXT             PRIMARY KEY,
			name                TEXT             NOT NULL DEFAULT '',
			url                 TEXT             NOT NULL DEFAULT '',
			price               NUMERIC(10,2)    NOT NULL DEFAULT 0,
			distance_miles      DOUBLE PRECISION NOT NULL DEFAULT 0,
			reviews_count       INTEGER          NOT NULL DEFAULT 0,
			ratings_average     DOUBLE PRECISION NOT NULL DEFAULT 0,
			years_experience    INTEGER          NOT NULL DEFAULT 0,
			repeat_client_count INTEGER          NOT NULL DEFAULT 0,
			exported_at         TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_sitters_price    ON sitters(price);
		CREATE INDEX IF NOT EXISTS idx_sitters_distance ON sitters(distance_miles);
	`)
	return err
}

// Write batch-inserts records. Sitters already mirrored by an earlier export
// keep their first row.
func (pw *PostgresWriter) Write(records []models.ExportRecord) error {
	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(records[i:end]); err != nil {
			return fmt.Errorf("postgres: insert batch: %w", err)
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []models.ExportRecord) error {
	query, args := buildInsert(batch)
	_, err := pw.db.Exec(query, args...)
	return err
}

const insertColumns = 9

func buildInsert(batch []models.ExportRecord) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*insertColumns)

	for idx, r := range batch {
		base := idx * insertColumns
		placeholders := make([]string, insertColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			r.Identity, r.Name, r.URL, r.Price, r.DistanceMiles,
			r.ReviewsCount, r.RatingsAverage, r.YearsOfExperience, r.RepeatClientCount)
	}

	query := fmt.Sprintf(`
		INSERT INTO sitters (identity, name, url, price, distance_miles,
			reviews_count, ratings_average, years_experience, repeat_client_count)
		VALUES %s
		ON CONFLICT (identity) DO NOTHING
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
