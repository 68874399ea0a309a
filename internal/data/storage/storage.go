package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/songzhibin97/tokenlab/internal/data"
	"github.com/songzhibin97/tokenlab/internal/models"

	_ "github.com/lib/pq"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStorage{db: db}

	if err := s.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

// SaveScan implements ScanStorage interface
func (s *PostgresStorage) SaveScan(ctx context.Context, rec *data.ScanRecord) error {
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to serialize scan result: %w", err)
	}

	query := `
        INSERT INTO token_scans (
            token, chain_id, score, risk_level, confidence,
            data_quality, result, scanned_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8
        )
    `

	_, err = s.db.ExecContext(ctx, query,
		strings.ToLower(rec.Token),
		rec.ChainID,
		rec.Score,
		string(rec.RiskLevel),
		rec.Confidence,
		string(rec.Quality),
		payload,
		rec.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}

	return nil
}

// GetScanHistory implements ScanStorage interface
func (s *PostgresStorage) GetScanHistory(ctx context.Context, token, chainID string, limit int) ([]data.ScanRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
        SELECT id, token, chain_id, score, risk_level, confidence,
               data_quality, result, scanned_at
        FROM token_scans
        WHERE token = $1 AND chain_id = $2
        ORDER BY scanned_at DESC
        LIMIT $3
    `

	rows, err := s.db.QueryContext(ctx, query, strings.ToLower(token), chainID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var result []data.ScanRecord
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan rows: %w", err)
	}

	return result, nil
}

// GetLatestScan implements ScanStorage interface
func (s *PostgresStorage) GetLatestScan(ctx context.Context, token, chainID string) (*data.ScanRecord, error) {
	query := `
        SELECT id, token, chain_id, score, risk_level, confidence,
               data_quality, result, scanned_at
        FROM token_scans
        WHERE token = $1 AND chain_id = $2
        ORDER BY scanned_at DESC
        LIMIT 1
    `

	row := s.db.QueryRowContext(ctx, query, strings.ToLower(token), chainID)
	rec, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(row rowScanner) (*data.ScanRecord, error) {
	var (
		rec       data.ScanRecord
		level     string
		quality   string
		payload   []byte
		scannedAt time.Time
	)
	err := row.Scan(
		&rec.ID,
		&rec.Token,
		&rec.ChainID,
		&rec.Score,
		&level,
		&rec.Confidence,
		&quality,
		&payload,
		&scannedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	rec.RiskLevel = models.RiskLevel(level)
	rec.Quality = models.DataQuality(quality)
	rec.ScannedAt = scannedAt

	if len(payload) > 0 {
		var result models.RiskResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("failed to deserialize scan result: %w", err)
		}
		rec.Result = &result
	}
	return &rec, nil
}

func (s *PostgresStorage) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS token_scans (
			id SERIAL PRIMARY KEY,
			token VARCHAR(120) NOT NULL,
			chain_id VARCHAR(40) NOT NULL,
			score INT NOT NULL,
			risk_level VARCHAR(20) NOT NULL,
			confidence INT NOT NULL,
			data_quality VARCHAR(20) NOT NULL,
			result JSONB,
			scanned_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_token_scans_lookup
			ON token_scans (token, chain_id, scanned_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
