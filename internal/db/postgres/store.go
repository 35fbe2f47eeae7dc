// Package postgres stores documents in PostgreSQL with the pgvector extension.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// codeUndefinedFunction is SQLSTATE 42883, raised when the match function is not installed.
const codeUndefinedFunction = "42883"

// Config holds connection and naming parameters.
type Config struct {
	DSN      string
	Table    string
	Function string
	MaxConns int32
}

// Store implements db.Store over a pgx pool.
// Similarity is delegated to a SQL function with the signature
// (query_embedding vector, match_threshold float, max_limit int) -> (id, content, match_score).
type Store struct {
	pool     *pgxpool.Pool
	table    string
	function string
}

// NewStore opens a connection pool. It does not wait for the server.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newStore(pool, cfg), nil
}

func newStore(pool *pgxpool.Pool, cfg Config) *Store {
	s := &Store{pool: pool, table: cfg.Table, function: cfg.Function}
	if s.table == "" {
		s.table = "documents"
	}
	if s.function == "" {
		s.function = "match_documents"
	}
	return s
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

// Insert adds a row and returns its bigserial id.
func (s *Store) Insert(ctx context.Context, content string, embedding []float32) (string, error) {
	q := fmt.Sprintf(`INSERT INTO %s (content, embedding) VALUES ($1, $2) RETURNING id`, s.tableIdent())
	var id int64
	if err := s.pool.QueryRow(ctx, q, content, pgvector.NewVector(embedding)).Scan(&id); err != nil {
		return "", &db.Error{Op: db.OpInsert, Err: mapError(err)}
	}
	return strconv.FormatInt(id, 10), nil
}

// UpdateEmbedding overwrites the embedding column only.
func (s *Store) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return db.ErrRecordNotFound
	}
	q := fmt.Sprintf(`UPDATE %s SET embedding = $1 WHERE id = $2`, s.tableIdent())
	tag, err := s.pool.Exec(ctx, q, pgvector.NewVector(embedding), n)
	if err != nil {
		return &db.Error{Op: db.OpUpdate, Err: mapError(err)}
	}
	if tag.RowsAffected() == 0 {
		return db.ErrRecordNotFound
	}
	return nil
}

// SelectAll reads the requested columns ordered by id.
func (s *Store) SelectAll(ctx context.Context, cols ...db.Column) ([]db.Record, error) {
	proj := db.NewProjection(cols)
	rows, err := s.pool.Query(ctx, selectAllSQL(s.tableIdent(), proj))
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: mapError(err)}
	}
	defer rows.Close()

	var out []db.Record
	for rows.Next() {
		var (
			id      int64
			content string
			emb     *pgvector.Vector
		)
		dest := []any{&id}
		if proj.Content {
			dest = append(dest, &content)
		}
		if proj.Embedding {
			dest = append(dest, &emb)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: fmt.Errorf("scan row: %w", err)}
		}
		rec := db.Record{ID: strconv.FormatInt(id, 10), Content: content}
		if emb != nil {
			rec.Embedding = emb.Slice()
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: mapError(err)}
	}
	return out, nil
}

// SimilaritySearch calls the match function. A missing function yields db.ErrOperatorNotFound.
func (s *Store) SimilaritySearch(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityRow, error) {
	sql := fmt.Sprintf(`SELECT id, content, match_score FROM %s($1, $2, $3)`, pgx.Identifier{s.function}.Sanitize())
	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(q.Embedding), q.Threshold, q.Limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: mapError(err)}
	}
	defer rows.Close()

	var out []db.SimilarityRow
	for rows.Next() {
		var (
			id  int64
			row db.SimilarityRow
		)
		if err := rows.Scan(&id, &row.Content, &row.Score); err != nil {
			return nil, &db.Error{Op: db.OpMatch, Err: fmt.Errorf("scan row: %w", err)}
		}
		row.ID = strconv.FormatInt(id, 10)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: mapError(err)}
	}
	return out, nil
}

func (s *Store) tableIdent() string { return pgx.Identifier{s.table}.Sanitize() }

func selectAllSQL(table string, p db.Projection) string {
	cols := "id"
	if p.Content {
		cols += ", content"
	}
	if p.Embedding {
		cols += ", embedding"
	}
	return fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, cols, table)
}

// mapError tags a missing match function; other errors pass through.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUndefinedFunction {
		return fmt.Errorf("%w: %w", db.ErrOperatorNotFound, err)
	}
	return err
}
