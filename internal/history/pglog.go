package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/playreply/pkg/models"
)

// PostgresLog persists history entries in a reply_history table. Used
// when several service instances share one history; the file log covers
// the single-machine CLI case.
type PostgresLog struct {
	db *sql.DB
}

// NewPostgresLog connects to databaseURL and ensures the history table
// exists.
func NewPostgresLog(databaseURL string) (*PostgresLog, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	log := &PostgresLog{db: db}
	if err := log.ensureSchema(); err != nil {
		return nil, err
	}
	return log, nil
}

func (p *PostgresLog) ensureSchema() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS reply_history (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			review_id TEXT NOT NULL,
			review_text TEXT NOT NULL,
			rating INT NOT NULL,
			language TEXT NOT NULL,
			raw_response TEXT NOT NULL,
			final_response TEXT NOT NULL,
			character_count INT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reply_history table: %w", err)
	}
	return nil
}

// Append inserts one entry.
func (p *PostgresLog) Append(ctx context.Context, entry models.HistoryEntry) error {
	query := `
		INSERT INTO reply_history (ts, review_id, review_text, rating, language, raw_response, final_response, character_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := p.db.ExecContext(ctx, query,
		entry.Timestamp,
		entry.ReviewID,
		entry.ReviewText,
		entry.Rating,
		entry.Language,
		entry.RawResponse,
		entry.FinalResponse,
		entry.CharacterCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Load reads all entries in append order.
func (p *PostgresLog) Load(ctx context.Context) ([]models.HistoryEntry, error) {
	query := `
		SELECT ts, review_id, review_text, rating, language, raw_response, final_response, character_count
		FROM reply_history
		ORDER BY id ASC
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reply history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		if err := rows.Scan(
			&entry.Timestamp,
			&entry.ReviewID,
			&entry.ReviewText,
			&entry.Rating,
			&entry.Language,
			&entry.RawResponse,
			&entry.FinalResponse,
			&entry.CharacterCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reply history: %w", err)
	}
	return entries, nil
}

// Close releases the database connection.
func (p *PostgresLog) Close() error {
	return p.db.Close()
}
