package valkey

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

const fetchBatch = 100

// Insert stores a new document hash under a random UUID.
func (s *Store) Insert(ctx context.Context, content string, embedding []float32) (string, error) {
	id := uuid.NewString()
	cmd := s.b().Hset().Key(s.docKey(id)).FieldValue().
		FieldValue(fieldContent, content).
		FieldValue(fieldEmbedding, encodeVector(embedding)).
		Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return "", &db.Error{Op: db.OpHSet, Err: err}
	}
	return id, nil
}

// UpdateEmbedding overwrites the embedding field of an existing document.
func (s *Store) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	key := s.docKey(id)
	n, err := s.do(ctx, s.b().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpExists, Err: err}
	}
	if n == 0 {
		return db.ErrRecordNotFound
	}
	cmd := s.b().Hset().Key(key).FieldValue().FieldValue(fieldEmbedding, encodeVector(embedding)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// SelectAll scans every document key and loads the hashes in pipelined batches.
// Records are ordered by id.
func (s *Store) SelectAll(ctx context.Context, cols ...db.Column) ([]db.Record, error) {
	keys, err := s.scan(ctx, s.docPrefix()+"*")
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	proj := db.NewProjection(cols)
	out := make([]db.Record, 0, len(keys))
	for start := 0; start < len(keys); start += fetchBatch {
		end := min(start+fetchBatch, len(keys))
		hashes, err := s.hgetAllMulti(ctx, keys[start:end])
		if err != nil {
			return nil, err
		}
		for i, h := range hashes {
			// key vanished between SCAN and HGETALL
			if len(h) == 0 {
				continue
			}
			rec, err := s.toRecord(keys[start+i], h)
			if err != nil {
				return nil, err
			}
			out = append(out, proj.Apply(rec))
		}
	}
	return out, nil
}

func (s *Store) toRecord(key string, h map[string]string) (db.Record, error) {
	rec := db.Record{
		ID:      strings.TrimPrefix(key, s.docPrefix()),
		Content: h[fieldContent],
	}
	if blob, ok := h[fieldEmbedding]; ok && blob != "" {
		vec, err := decodeVector(blob)
		if err != nil {
			return db.Record{}, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", key, err)}
		}
		rec.Embedding = vec
	}
	return rec, nil
}

func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (s *Store) hgetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	cmds := make(rueidis.Commands, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]map[string]string, len(results))
	for i, res := range results {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = m
	}
	return out, nil
}
