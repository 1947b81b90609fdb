package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"correspondence/corpus"
	apperrors "correspondence/errors"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

var _ corpus.Store = (*PostgresStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument reads documentColumns, followed by extra destinations.
func scanDocument(row rowScanner, extra ...any) (corpus.Document, error) {
	var (
		doc  corpus.Document
		date sql.NullTime
	)
	dest := []any{
		&doc.ID, &doc.LetterNo, &doc.InternalNo, &date, &doc.LetterType, &doc.ShortDesc,
		&doc.Content, &doc.Keywords, &doc.RefLetters, &doc.IncOut, &doc.SeverityRate,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return corpus.Document{}, err
	}
	if date.Valid {
		t := date.Time
		doc.LetterDate = &t
	}
	return doc, nil
}

func (s *PostgresStore) queryDocuments(ctx context.Context, query string, args []any) ([]corpus.Document, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDatabaseOperation, err)
	}
	defer rows.Close()

	var docs []corpus.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", apperrors.ErrDatabaseOperation, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDatabaseOperation, err)
	}
	return docs, nil
}

// HasEmbeddings reports whether any row has a non-null embedding.
func (s *PostgresStore) HasEmbeddings(ctx context.Context) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM documents WHERE embedding IS NOT NULL)`

	var exists bool
	if err := s.DB.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: embedding probe: %v", apperrors.ErrDatabaseOperation, err)
	}
	return exists, nil
}

// Find returns documents matching p, newest first.
func (s *PostgresStore) Find(ctx context.Context, p corpus.Predicate) ([]corpus.Document, error) {
	query, args := buildFindQuery(p)
	start := time.Now()
	docs, err := s.queryDocuments(ctx, query, args)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Find query complete",
		zap.Int("rows", len(docs)),
		zap.Duration("elapsed", time.Since(start)))
	return docs, nil
}

// FindByLetterNos returns documents whose normalized letter_no is one of ids.
func (s *PostgresStore) FindByLetterNos(ctx context.Context, ids []string) ([]corpus.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args := buildLetterNoQuery(ids)
	return s.queryDocuments(ctx, query, args)
}

// NearestByEmbedding returns documents with cosine similarity above
// threshold, most similar first.
func (s *PostgresStore) NearestByEmbedding(ctx context.Context, vec []float32, threshold float64, limit int, p corpus.Predicate) ([]corpus.Similar, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	query, args := buildNearestQuery(pgvector.NewVector(vec), threshold, limit, p)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: vector lookup: %v", apperrors.ErrDatabaseOperation, err)
	}
	defer rows.Close()

	var out []corpus.Similar
	for rows.Next() {
		var sim float64
		doc, err := scanDocument(rows, &sim)
		if err != nil {
			return nil, fmt.Errorf("%w: scan similar document: %v", apperrors.ErrDatabaseOperation, err)
		}
		out = append(out, corpus.Similar{Document: doc, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDatabaseOperation, err)
	}
	return out, nil
}

// Relations returns every document without its embedding.
func (s *PostgresStore) Relations(ctx context.Context) ([]corpus.Document, error) {
	return s.queryDocuments(ctx, "SELECT "+documentColumns+" FROM documents"+orderByDateDesc, nil)
}

// UpsertDocuments inserts or replaces documents in one transaction. A
// document without an ID gets a fresh one. A nil embedding stores NULL.
func (s *PostgresStore) UpsertDocuments(ctx context.Context, docs []corpus.Document) (int, error) {
	const query = `
        INSERT INTO documents (id, letter_no, internal_no, letter_date, letter_type, short_desc,
            content, keywords, ref_letters, inc_out, severity_rate, embedding)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (id)
        DO UPDATE SET letter_no = EXCLUDED.letter_no, internal_no = EXCLUDED.internal_no,
            letter_date = EXCLUDED.letter_date, letter_type = EXCLUDED.letter_type,
            short_desc = EXCLUDED.short_desc, content = EXCLUDED.content,
            keywords = EXCLUDED.keywords, ref_letters = EXCLUDED.ref_letters,
            inc_out = EXCLUDED.inc_out, severity_rate = EXCLUDED.severity_rate,
            embedding = EXCLUDED.embedding
    `

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", apperrors.ErrDatabaseOperation, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare upsert: %v", apperrors.ErrDatabaseOperation, err)
	}
	defer stmt.Close()

	for i := range docs {
		doc := &docs[i]
		if doc.ID == uuid.Nil {
			doc.ID = uuid.New()
		}
		var date sql.NullTime
		if doc.LetterDate != nil {
			date = sql.NullTime{Time: *doc.LetterDate, Valid: true}
		}
		var vec any
		if len(doc.Embedding) > 0 {
			if len(doc.Embedding) != s.dimension {
				return 0, apperrors.InvalidInputf("document %s has embedding of width %d, column is %d",
					doc.LetterNo, len(doc.Embedding), s.dimension)
			}
			vec = pgvector.NewVector(doc.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.LetterNo, doc.InternalNo, date, doc.LetterType,
			doc.ShortDesc, doc.Content, doc.Keywords, doc.RefLetters, doc.IncOut, doc.SeverityRate, vec); err != nil {
			return 0, fmt.Errorf("%w: upsert %s: %v", apperrors.ErrDatabaseOperation, doc.LetterNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", apperrors.ErrDatabaseOperation, err)
	}
	s.logger.Info("Upserted documents", zap.Int("count", len(docs)))
	return len(docs), nil
}
