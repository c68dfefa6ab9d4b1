package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	domrepo "github.com/MetaStark/vision-IoS-sub013/internal/domain/repository"
	pkgch "github.com/MetaStark/vision-IoS-sub013/pkg/clickhouse"
	applogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
)

const vectorTable = "vision.state_vectors"

// CHVectorStore implements the append-only VectorStore on ClickHouse. The
// full sealed vector travels as a JSON payload column; the filter columns
// are denormalized for range scans. There is no UPDATE or DELETE path by
// construction.
type CHVectorStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHVectorStore(ch *pkgch.Client) *CHVectorStore {
	return &CHVectorStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHVectorStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.VectorStore = (*CHVectorStore)(nil)

// Init ensures the database and table exist. Idempotent.
func (s *CHVectorStore) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE DATABASE IF NOT EXISTS vision",
		`CREATE TABLE IF NOT EXISTS ` + vectorTable + ` (
            asset LowCardinality(String),
            ts DateTime64(9, 'UTC'),
            id String,
            safety LowCardinality(String),
            mapping_version LowCardinality(String),
            digest String,
            payload String
        ) ENGINE = MergeTree ORDER BY (asset, ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init vector schema: %w", err)
		}
	}
	return nil
}

func (s *CHVectorStore) Insert(ctx context.Context, v *models.StateVector) error {
	start := time.Now()
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	const q = `
        INSERT INTO ` + vectorTable + ` (asset, ts, id, safety, mapping_version, digest, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	if _, err := s.db.ExecContext(ctx, q,
		v.AssetID, v.Timestamp, v.ID, string(v.SafetyLevel), v.MappingVersion, v.Digest, string(payload),
	); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse vector insert error",
				applogger.String("asset", v.AssetID),
				applogger.String("vector", v.ID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("insert vector: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse vector insert ok",
			applogger.String("asset", v.AssetID),
			applogger.String("vector", v.ID),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHVectorStore) Latest(ctx context.Context, assetID string) (*models.StateVector, error) {
	const q = `
        SELECT payload FROM ` + vectorTable + `
        WHERE asset = ?
        ORDER BY ts DESC
        LIMIT 1
    `
	return s.queryOne(ctx, q, assetID)
}

func (s *CHVectorStore) Before(ctx context.Context, assetID string, ts time.Time) (*models.StateVector, error) {
	const q = `
        SELECT payload FROM ` + vectorTable + `
        WHERE asset = ? AND ts < ?
        ORDER BY ts DESC
        LIMIT 1
    `
	return s.queryOne(ctx, q, assetID, ts)
}

func (s *CHVectorStore) At(ctx context.Context, assetID string, ts time.Time) (*models.StateVector, error) {
	const q = `
        SELECT payload FROM ` + vectorTable + `
        WHERE asset = ? AND ts = ?
        LIMIT 1
    `
	return s.queryOne(ctx, q, assetID, ts)
}

func (s *CHVectorStore) Range(ctx context.Context, assetID string, from, to time.Time, limit int) ([]*models.StateVector, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 1000
	}
	const q = `
        SELECT payload FROM ` + vectorTable + `
        WHERE asset = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, assetID, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse vector range query error",
				applogger.String("asset", assetID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("range vectors: %w", err)
	}
	defer rows.Close()

	out := make([]*models.StateVector, 0, 64)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		v, err := decodeVector(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse vector range ok",
			applogger.String("asset", assetID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHVectorStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHVectorStore) Close() error { return nil } // pool owned by pkg client

func (s *CHVectorStore) queryOne(ctx context.Context, q string, args ...interface{}) (*models.StateVector, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query vector: %w", err)
	}
	return decodeVector(payload)
}

func decodeVector(payload string) (*models.StateVector, error) {
	var v models.StateVector
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, fmt.Errorf("decode vector payload: %w", err)
	}
	return &v, nil
}
