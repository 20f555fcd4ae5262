package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"spacemarket/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const documentsSchema = `
	CREATE EXTENSION IF NOT EXISTS vector;
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		data       JSONB NOT NULL DEFAULT '{}'::jsonb,
		embedding  vector,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING GIN (data jsonb_path_ops);
`

// PostgresStore keeps documents as JSONB rows, one table for all collections
type PostgresStore struct {
	db *sqlx.DB
}

type documentRow struct {
	ID   string        `db:"id"`
	Data model.JSONMap `db:"data"`
}

// NewPostgresStore connects to PostgreSQL and makes sure the schema exists
func NewPostgresStore(dsn string, maxConn, maxIdleConn int) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(documentsSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) selectDocuments(ctx context.Context, query string, args ...interface{}) ([]Document, error) {
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, Document{ID: row.ID, Data: row.Data})
	}
	return docs, nil
}

// FetchAll returns every document of a collection
func (s *PostgresStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	docs, err := s.selectDocuments(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at, id`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return docs, nil
}

// FetchWhere uses JSONB containment, so values keep their JSON type
func (s *PostgresStore) FetchWhere(ctx context.Context, collection string, eq ...Equality) ([]Document, error) {
	filter, err := json.Marshal(nestFields(eq))
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}
	docs, err := s.selectDocuments(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY created_at, id`,
		collection, string(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return docs, nil
}

// FetchRange compares numeric fields extracted from the document
func (s *PostgresStore) FetchRange(ctx context.Context, collection string, ranges ...Range) ([]Document, error) {
	whereClauses := []string{"collection = $1"}
	args := []interface{}{collection}
	argIndex := 2

	for _, r := range ranges {
		switch r.Op {
		case OpGTE, OpLTE, OpGT, OpLT:
		default:
			return nil, fmt.Errorf("unsupported range operator %q", r.Op)
		}
		whereClauses = append(whereClauses,
			fmt.Sprintf("(data #>> $%d)::double precision %s $%d", argIndex, r.Op, argIndex+1))
		args = append(args, pq.Array(strings.Split(r.Field, ".")), r.Value)
		argIndex += 2
	}

	query := fmt.Sprintf(`SELECT id, data FROM documents WHERE %s ORDER BY created_at, id`,
		strings.Join(whereClauses, " AND "))
	docs, err := s.selectDocuments(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return docs, nil
}

// Get retrieves a single document by its id
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, data FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return &Document{ID: row.ID, Data: row.Data}, nil
}

// Insert stores data under a new id
func (s *PostgresStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	payload, err := jsonParam(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, payload)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return id, nil
}

// Set creates or replaces the document with the given id
func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	payload, err := jsonParam(data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, collection, id, payload)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges top-level fields into an existing document
func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	payload, err := jsonParam(fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET data = data || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		collection, id, payload)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s/%s does not exist", collection, id)
	}
	return nil
}

// Delete removes a document
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// SetVector updates the feature vector for a document
func (s *PostgresStore) SetVector(ctx context.Context, collection, id string, vec []float32) error {
	query := `UPDATE documents SET embedding = $3, updated_at = NOW() WHERE collection = $1 AND id = $2`
	_, err := s.db.ExecContext(ctx, query, collection, id, pgvector.NewVector(vec))
	if err != nil {
		return fmt.Errorf("failed to update vector: %w", err)
	}
	return nil
}

// Nearest returns the documents whose vectors are closest to the vector of id.
// Only vectors of the same dimension are compared.
func (s *PostgresStore) Nearest(ctx context.Context, collection, id string, limit int) ([]Document, error) {
	query := `
		SELECT d.id, d.data
		FROM documents d
		JOIN documents t ON t.collection = d.collection AND t.id = $2
		WHERE d.collection = $1
			AND d.id <> $2
			AND d.embedding IS NOT NULL
			AND t.embedding IS NOT NULL
			AND vector_dims(d.embedding) = vector_dims(t.embedding)
		ORDER BY d.embedding <-> t.embedding, d.id
		LIMIT $3
	`
	docs, err := s.selectDocuments(ctx, query, collection, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nearest documents: %w", err)
	}
	return docs, nil
}

// jsonParam encodes document data as a text parameter for a ::jsonb cast
func jsonParam(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(b), nil
}
