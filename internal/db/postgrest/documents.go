package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

type insertRow struct {
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

type updateRow struct {
	Embedding []float32 `json:"embedding"`
}

type documentRow struct {
	ID        rowID           `json:"id"`
	Content   string          `json:"content"`
	Embedding json.RawMessage `json:"embedding"`
}

type matchRequest struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MaxLimit       int       `json:"max_limit"`
}

type matchRow struct {
	ID         rowID   `json:"id"`
	Content    string  `json:"content"`
	MatchScore float64 `json:"match_score"`
}

// rowID accepts numeric (bigserial) and string (uuid) primary keys.
type rowID string

func (id *rowID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = rowID(n.String())
	return nil
}

func representation() http.Header {
	return http.Header{"Prefer": []string{"return=representation"}}
}

// Insert posts one row and returns the id from the representation.
func (s *Store) Insert(ctx context.Context, content string, embedding []float32) (string, error) {
	var rows []documentRow
	path := "/" + s.table + "?select=id"
	if err := s.call(ctx, http.MethodPost, path, representation(), insertRow{content, embedding}, &rows); err != nil {
		return "", &db.Error{Op: db.OpInsert, Err: err}
	}
	if len(rows) == 0 {
		return "", &db.Error{Op: db.OpInsert, Err: fmt.Errorf("empty representation")}
	}
	return string(rows[0].ID), nil
}

// UpdateEmbedding patches the embedding of the row with the given id.
func (s *Store) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	var rows []documentRow
	path := "/" + s.table + "?select=id&id=eq." + url.QueryEscape(id)
	if err := s.call(ctx, http.MethodPatch, path, representation(), updateRow{embedding}, &rows); err != nil {
		return &db.Error{Op: db.OpUpdate, Err: err}
	}
	if len(rows) == 0 {
		return db.ErrRecordNotFound
	}
	return nil
}

// SelectAll pages through the table with Range headers, ordered by id.
func (s *Store) SelectAll(ctx context.Context, cols ...db.Column) ([]db.Record, error) {
	proj := db.NewProjection(cols)
	sel := []string{string(db.ColumnID)}
	if proj.Content {
		sel = append(sel, string(db.ColumnContent))
	}
	if proj.Embedding {
		sel = append(sel, string(db.ColumnEmbedding))
	}
	path := "/" + s.table + "?select=" + strings.Join(sel, ",") + "&order=id.asc"

	var out []db.Record
	for offset := 0; ; offset += s.pageSize {
		h := http.Header{
			"Range-Unit": []string{"items"},
			"Range":      []string{strconv.Itoa(offset) + "-" + strconv.Itoa(offset+s.pageSize-1)},
		}
		var page []documentRow
		if err := s.call(ctx, http.MethodGet, path, h, nil, &page); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		for _, r := range page {
			emb, err := parseEmbedding(r.Embedding)
			if err != nil {
				return nil, &db.Error{Op: db.OpSelect, Err: fmt.Errorf("document %s: %w", string(r.ID), err)}
			}
			out = append(out, db.Record{ID: string(r.ID), Content: r.Content, Embedding: emb})
		}
		if len(page) < s.pageSize {
			return out, nil
		}
	}
}

// SimilaritySearch calls the match RPC. PGRST202 yields db.ErrOperatorNotFound.
func (s *Store) SimilaritySearch(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityRow, error) {
	var rows []matchRow
	body := matchRequest{QueryEmbedding: q.Embedding, MatchThreshold: q.Threshold, MaxLimit: q.Limit}
	if err := s.call(ctx, http.MethodPost, "/rpc/"+s.function, nil, body, &rows); err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: err}
	}
	out := make([]db.SimilarityRow, len(rows))
	for i, r := range rows {
		out[i] = db.SimilarityRow{ID: string(r.ID), Content: r.Content, Score: r.MatchScore}
	}
	return out, nil
}

// parseEmbedding accepts a JSON array or the pgvector text form "[1,2,3]" wrapped in a JSON string.
func parseEmbedding(raw json.RawMessage) ([]float32, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		raw = json.RawMessage(s)
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}
	return v, nil
}
