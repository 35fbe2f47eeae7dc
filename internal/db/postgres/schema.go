package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

// The embedding column is an unconstrained vector so documents of any width can be
// stored and later repaired; the match function only compares equal-width vectors.
const schemaTemplate = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS {{table}} (
	id        bigserial PRIMARY KEY,
	content   text NOT NULL,
	embedding vector
);

CREATE OR REPLACE FUNCTION {{function}}(
	query_embedding vector,
	match_threshold float,
	max_limit int
) RETURNS TABLE (id bigint, content text, match_score float)
LANGUAGE sql STABLE AS $$
	SELECT d.id, d.content, 1 - (d.embedding <=> query_embedding) AS match_score
	FROM {{table}} d
	WHERE d.embedding IS NOT NULL
	  AND vector_dims(d.embedding) = vector_dims(query_embedding)
	  AND 1 - (d.embedding <=> query_embedding) > match_threshold
	ORDER BY match_score DESC, d.id
	LIMIT max_limit;
$$;
`

// SchemaSQL renders the DDL for the configured table and function names.
func (s *Store) SchemaSQL() string {
	r := strings.NewReplacer(
		"{{table}}", pgx.Identifier{s.table}.Sanitize(),
		"{{function}}", pgx.Identifier{s.function}.Sanitize(),
	)
	return r.Replace(schemaTemplate)
}

// EnsureSchema installs the extension, the documents table and the match function.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, s.SchemaSQL()); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf("ensure schema: %w", err)}
	}
	return nil
}
