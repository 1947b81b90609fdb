package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"correspondence/embedding"
	apperrors "correspondence/errors"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// PostgresStore is the PostgreSQL + pgvector implementation of corpus.Store.
type PostgresStore struct {
	DB        *sql.DB
	dimension int
	logger    *zap.Logger
}

// NewPostgresStore opens and pings the database. dimension is the width of
// the embedding column created by EnsureSchema.
func NewPostgresStore(ctx context.Context, connStr string, dimension int, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dimension <= 0 {
		dimension = embedding.DefaultDimension
	}
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: open failed: %v", apperrors.ErrDatabaseOperation, err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping failed: %v", apperrors.ErrDatabaseOperation, err)
	}
	logger.Info("Successfully connected to the database")
	return &PostgresStore{DB: db, dimension: dimension, logger: logger}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// schemaStatements returns the DDL for a documents table with an embedding
// column of the given width.
func schemaStatements(dimension int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
            id UUID PRIMARY KEY,
            letter_no TEXT NOT NULL DEFAULT '',
            internal_no TEXT NOT NULL DEFAULT '',
            letter_date DATE,
            letter_type TEXT NOT NULL DEFAULT '',
            short_desc TEXT NOT NULL DEFAULT '',
            content TEXT NOT NULL DEFAULT '',
            keywords TEXT NOT NULL DEFAULT '',
            ref_letters TEXT NOT NULL DEFAULT '',
            inc_out TEXT NOT NULL DEFAULT '',
            severity_rate TEXT NOT NULL DEFAULT '',
            embedding vector(%d),
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`, dimension),
		`CREATE INDEX IF NOT EXISTS idx_documents_letter_date ON documents(letter_date DESC NULLS LAST)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_letter_no_norm ON documents(lower(regexp_replace(letter_no, '\s', '', 'g')))`,
	}
}

// EnsureSchema creates the vector extension and the documents table if they
// do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dimension) {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: failed to execute schema statement: %v", apperrors.ErrDatabaseOperation, err)
		}
	}
	s.logger.Info("Database schema ensured", zap.Int("embedding_dimension", s.dimension))
	return nil
}
