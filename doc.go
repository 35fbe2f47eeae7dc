// Package corpusdex is an embedding-backed document corpus with similarity search.
//
// Documents are text plus a 1536-dimension embedding held in a document store
// (Postgres with pgvector, PostgREST, Valkey with the search module, bbolt or memory).
// Queries are embedded with the same model and matched by cosine similarity.
//
//	c, _ := corpusdex.New(ctx,
//	    corpusdex.WithPostgres("postgres://localhost/corpus"),
//	    corpusdex.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer c.Close()
//
//	res, _ := c.Ingest(ctx, "The quick brown fox")
//	matches, _ := c.Search(ctx, "fox", corpusdex.Threshold(0.3), corpusdex.Limit(3))
//
// Maintenance keeps stored embeddings at the canonical dimension:
//
//	report, _ := c.Verify(ctx)
//	if !report.Healthy {
//	    _, _ = c.Truncate(ctx)
//	}
package corpusdex
