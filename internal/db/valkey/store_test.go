package valkey

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestKeyLayout(t *testing.T) {
	s := newStore(nil, Config{KeyPrefix: "t:"})
	if s.IndexName() != "t:idx" {
		t.Errorf("IndexName() = %q", s.IndexName())
	}
	if s.docKey("abc") != "t:doc:abc" {
		t.Errorf("docKey() = %q", s.docKey("abc"))
	}
	if NewStoreForTest(nil).prefix != DefaultKeyPrefix {
		t.Error("expected default prefix")
	}
}

// --- documents.go tests ---

func TestInsert_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var key string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "HSET" || len(cmd) != 6 {
				return false
			}
			key = cmd[1]
			return cmd[2] == fieldContent && cmd[3] == "hello" &&
				cmd[4] == fieldEmbedding && cmd[5] == encodeVector([]float32{1, 2})
		})).
		Return(mock.Result(mock.RedisInt64(2)))

	s := NewStoreForTest(c)
	id, err := s.Insert(context.Background(), "hello", []float32{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" || key != "corpus:doc:"+id {
		t.Errorf("id=%q key=%q", id, key)
	}
}

func TestInsert_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HSET" })).
		Return(mock.Result(mock.RedisError("OOM command not allowed")))

	s := NewStoreForTest(c)
	_, err := s.Insert(context.Background(), "hello", []float32{1})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpHSet {
		t.Errorf("expected db.Error HSET, got %v", err)
	}
}

func TestUpdateEmbedding_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXISTS", "corpus:doc:1")).
			Return(mock.Result(mock.RedisInt64(1))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("HSET", "corpus:doc:1", fieldEmbedding, encodeVector([]float32{0.5}))).
			Return(mock.Result(mock.RedisInt64(0))),
	)

	s := NewStoreForTest(c)
	if err := s.UpdateEmbedding(context.Background(), "1", []float32{0.5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateEmbedding_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "corpus:doc:missing")).
		Return(mock.Result(mock.RedisInt64(0)))

	s := NewStoreForTest(c)
	err := s.UpdateEmbedding(context.Background(), "missing", []float32{1})
	if !errors.Is(err, db.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSelectAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN" && cmd[3] == "corpus:doc:*"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(mock.RedisString("corpus:doc:b"), mock.RedisString("corpus:doc:a")),
		)))
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				fieldContent:   mock.RedisString("first"),
				fieldEmbedding: mock.RedisString(encodeVector([]float32{1, 0, 0})),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				fieldContent: mock.RedisString("second"),
			})),
		})

	s := NewStoreForTest(c)
	recs, err := s.SelectAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	// sorted by key: a before b
	if recs[0].ID != "a" || recs[0].Content != "first" || len(recs[0].Embedding) != 3 {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if recs[1].ID != "b" || recs[1].Embedding != nil {
		t.Errorf("recs[1] = %+v", recs[1])
	}
}

func TestSelectAll_ScanError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		Return(mock.ErrorResult(errors.New("connection reset")))

	s := NewStoreForTest(c)
	_, err := s.SelectAll(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpScan {
		t.Errorf("expected db.Error SCAN, got %v", err)
	}
}

// --- index.go tests ---

func TestEnsureIndex_Creates(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var created []string
	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "corpus:idx")).
			Return(mock.Result(mock.RedisError("Unknown Index name"))),
		c.EXPECT().
			Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
				created = cmd
				return cmd[0] == "FT.CREATE"
			})).
			Return(mock.Result(mock.RedisString("OK"))),
	)

	s := NewStoreForTest(c)
	if err := s.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, created, "HNSW")
	assertContains(t, created, "1536")
	assertContains(t, created, "COSINE")
	assertContains(t, created, "corpus:doc:")
}

func TestEnsureIndex_Exists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "corpus:idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("corpus:idx"))))

	s := NewStoreForTest(c)
	if err := s.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildCreateArgs_Flat(t *testing.T) {
	s := newStore(nil, Config{Algorithm: "flat", EmbeddingDimension: 8})
	def, err := s.IndexDefinition()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, args, "FLAT")
	assertContains(t, args, "8")
	for _, a := range args {
		if a == "M" || a == "EF_CONSTRUCTION" {
			t.Errorf("FLAT index must not carry %s", a)
		}
	}
}

func assertContains(t *testing.T, args []string, want string) {
	t.Helper()
	for _, a := range args {
		if a == want {
			return
		}
	}
	t.Errorf("expected %q in %v", want, args)
}

// --- search.go tests ---

func TestSimilaritySearch_FiltersAndOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "corpus:idx"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(3),
			mock.RedisString("corpus:doc:far"),
			mock.RedisArray(
				mock.RedisString(fieldContent), mock.RedisString("far"),
				mock.RedisString(fieldScore), mock.RedisString("0.95"), // similarity 0.05
			),
			mock.RedisString("corpus:doc:near"),
			mock.RedisArray(
				mock.RedisString(fieldContent), mock.RedisString("near"),
				mock.RedisString(fieldScore), mock.RedisString("0.1"), // similarity 0.9
			),
			mock.RedisString("corpus:doc:mid"),
			mock.RedisArray(
				mock.RedisString(fieldContent), mock.RedisString("mid"),
				mock.RedisString(fieldScore), mock.RedisString("0.5"),
			),
		)))

	s := NewStoreForTest(c)
	rows, err := s.SimilaritySearch(context.Background(), &db.SimilarityQuery{
		Embedding: []float32{0.1, 0.2},
		Threshold: 0.1,
		Limit:     5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows above threshold, got %d", len(rows))
	}
	if rows[0].ID != "near" || rows[1].ID != "mid" {
		t.Errorf("order = %s, %s", rows[0].ID, rows[1].ID)
	}
	if rows[0].Score < 0.89 || rows[0].Score > 0.91 {
		t.Errorf("expected score ~0.9, got %f", rows[0].Score)
	}
}

func TestSimilaritySearch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	rows, err := s.SimilaritySearch(context.Background(), &db.SimilarityQuery{
		Embedding: []float32{0.1},
		Limit:     5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(rows))
	}
}

func TestSimilaritySearch_MissingIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	_, err := s.SimilaritySearch(context.Background(), &db.SimilarityQuery{
		Embedding: []float32{0.1},
		Limit:     5,
	})
	if !errors.Is(err, db.ErrOperatorNotFound) {
		t.Errorf("expected ErrOperatorNotFound, got %v", err)
	}
}

func TestSimilaritySearch_Validation(t *testing.T) {
	s := NewStoreForTest(nil)
	if _, err := s.SimilaritySearch(context.Background(), &db.SimilarityQuery{Limit: 1}); err == nil {
		t.Error("expected error for empty embedding")
	}
	if _, err := s.SimilaritySearch(context.Background(), &db.SimilarityQuery{Embedding: []float32{1}}); err == nil {
		t.Error("expected error for zero limit")
	}
}

// --- kv.go tests ---

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "mykey", "val")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "mykey", []byte("val")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- codec.go tests ---

func TestVectorCodec_RoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3e-7}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("component %d: %v != %v", i, in[i], out[i])
		}
	}
	if _, err := decodeVector("abc"); err == nil {
		t.Error("expected error for truncated blob")
	}
}
