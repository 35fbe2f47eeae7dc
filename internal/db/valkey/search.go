package valkey

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

// SimilaritySearch runs a KNN query via FT.SEARCH and keeps rows with similarity above the threshold.
// The index uses COSINE distance; similarity is 1 - distance.
func (s *Store) SimilaritySearch(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityRow, error) {
	if len(q.Embedding) == 0 {
		return nil, fmt.Errorf("embedding is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	knn := fmt.Sprintf("*=>[KNN %d @%s $BLOB", q.Limit, fieldEmbedding)
	if s.algo == db.VectorHNSW && s.efRuntime > 0 {
		knn += " EF_RUNTIME " + strconv.Itoa(s.efRuntime)
	}
	knn += "]"

	args := []string{
		s.IndexName(), knn,
		"RETURN", "2", fieldContent, fieldScore,
		"PARAMS", "2", "BLOB", encodeVector(q.Embedding),
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndex(err) {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: %w", db.ErrOperatorNotFound, err)}
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	rows, err := s.parseKNNResult(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	kept := rows[:0]
	for _, r := range rows {
		if r.Score > q.Threshold {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > q.Limit {
		kept = kept[:q.Limit]
	}
	return kept, nil
}

// parseKNNResult reads the RESP2 reply [total, key1, fields1, key2, fields2, ...].
func (s *Store) parseKNNResult(raw []rueidis.RedisMessage) ([]db.SimilarityRow, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	rows := make([]db.SimilarityRow, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		m := parseFieldPairs(fields)

		dist, err := strconv.ParseFloat(m[fieldScore], 64)
		if err != nil {
			return nil, fmt.Errorf("parse score for %s: %w", key, err)
		}
		rows = append(rows, db.SimilarityRow{
			ID:      strings.TrimPrefix(key, s.docPrefix()),
			Content: m[fieldContent],
			Score:   1.0 - dist,
		})
	}
	return rows, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
