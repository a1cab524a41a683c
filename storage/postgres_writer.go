package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arenda-scraper/config"
	"arenda-scraper/models"
)

// PostgresWriter mirrors harvested listings into Postgres for querying.
// The CSV sink stays the durable record of truth; the mirror is optional
// and enabled by setting db_host in the config.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

func NewPostgresWriter(cfg *config.Config) (*PostgresWriter, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return &PostgresWriter{pool: pool}, nil
}

func (w *PostgresWriter) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

func (w *PostgresWriter) EnsureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	sql := `
	CREATE TABLE IF NOT EXISTS arenda_listings (
		id BIGSERIAL PRIMARY KEY,
		listing_id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		title TEXT,
		property_type TEXT,
		price TEXT,
		price_azn TEXT,
		location TEXT,
		address TEXT,
		rooms TEXT,
		area TEXT,
		floor TEXT,
		total_floors TEXT,
		description TEXT,
		features TEXT,
		agent_name TEXT,
		phone TEXT,
		date_posted TEXT,
		listing_code TEXT,
		view_count TEXT,
		has_document TEXT,
		is_credit_available TEXT,
		latitude TEXT,
		longitude TEXT,
		scraped_at TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_arenda_listings_location ON arenda_listings(location);
	CREATE INDEX IF NOT EXISTS idx_arenda_listings_price_azn ON arenda_listings(price_azn);
	`

	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}

func (w *PostgresWriter) WriteBatch(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	insertSQL := `
	INSERT INTO arenda_listings (
		listing_id, url, title, property_type, price, price_azn,
		location, address, rooms, area, floor, total_floors,
		description, features, agent_name, phone, date_posted,
		listing_code, view_count, has_document, is_credit_available,
		latitude, longitude, scraped_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	ON CONFLICT (listing_id) DO NOTHING;
	`

	enqueued := 0
	for _, l := range listings {
		id := strings.TrimSpace(l.ListingID)
		url := strings.TrimSpace(l.URL)
		if id == "" || url == "" {
			continue
		}

		row := l.Row()
		args := make([]interface{}, len(row))
		for i, v := range row {
			args[i] = v
		}
		batch.Queue(insertSQL, args...)
		enqueued++
	}

	if enqueued == 0 {
		return nil
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < enqueued; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}

	return nil
}
