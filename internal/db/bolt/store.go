// Package bolt is an embedded single-file document store on bbolt.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

// Compile-time checks.
var (
	_ db.Store   = (*Store)(nil)
	_ db.KVStore = (*Store)(nil)
)

var (
	bucketDocuments = []byte("documents")
	bucketKV        = []byte("kv")
)

// Store keeps documents under big-endian sequence keys, so iteration order is id order.
// Similarity is ranked in process.
type Store struct {
	db *bbolt.DB
}

type docValue struct {
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Open opens or creates the database file.
func Open(path string) (*Store, error) {
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocuments, bucketKV} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}

	return &Store{db: bdb}, nil
}

// Ping reports whether the file is still open.
func (s *Store) Ping(_ context.Context) error {
	return s.db.View(func(_ *bbolt.Tx) error { return nil })
}

// Close closes the database file.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns immediately for an embedded store.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Insert stores a document under the next bucket sequence.
func (s *Store) Insert(_ context.Context, content string, embedding []float32) (string, error) {
	var id uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = seq
		return put(b, seq, docValue{Content: content, Embedding: embedding})
	})
	if err != nil {
		return "", &db.Error{Op: db.OpInsert, Err: err}
	}
	return strconv.FormatUint(id, 10), nil
}

// UpdateEmbedding rewrites the embedding of an existing document.
func (s *Store) UpdateEmbedding(_ context.Context, id string, embedding []float32) error {
	seq, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return db.ErrRecordNotFound
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		raw := b.Get(itob(seq))
		if raw == nil {
			return db.ErrRecordNotFound
		}
		var v docValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		v.Embedding = embedding
		return put(b, seq, v)
	})
	if err == db.ErrRecordNotFound { //nolint:errorlint // sentinel returned as is from the closure
		return err
	}
	if err != nil {
		return &db.Error{Op: db.OpUpdate, Err: err}
	}
	return nil
}

// SelectAll iterates the documents bucket in key order.
func (s *Store) SelectAll(ctx context.Context, cols ...db.Column) ([]db.Record, error) {
	proj := db.NewProjection(cols)
	var out []db.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, raw []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var v docValue
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decode document %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, proj.Apply(db.Record{
				ID:        strconv.FormatUint(binary.BigEndian.Uint64(k), 10),
				Content:   v.Content,
				Embedding: v.Embedding,
			}))
			return nil
		})
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return out, nil
}

// SimilaritySearch ranks the whole corpus by cosine similarity.
func (s *Store) SimilaritySearch(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityRow, error) {
	recs, err := s.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	return db.Rank(recs, q), nil
}

// Get retrieves a value from the kv bucket.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketKV).Get([]byte(key))
		if v == nil {
			return db.ErrKeyNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err == db.ErrKeyNotFound { //nolint:errorlint // sentinel returned as is from the closure
		return nil, err
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value in the kv bucket.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKV).Put([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

func put(b *bbolt.Bucket, seq uint64, v docValue) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(itob(seq), data)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
