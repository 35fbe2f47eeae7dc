package db

import (
	"sort"

	"github.com/kailas-cloud/corpusdex/internal/domain/vector"
)

// Rank is the brute-force similarity operator used by drivers without a native one.
// Rows with score <= threshold or a dimension different from the query are dropped;
// ties keep corpus order.
func Rank(records []Record, q *SimilarityQuery) []SimilarityRow {
	if q == nil || q.Limit <= 0 || len(q.Embedding) == 0 {
		return nil
	}
	rows := make([]SimilarityRow, 0, len(records))
	for i := range records {
		score, ok := vector.Cosine(q.Embedding, records[i].Embedding)
		if !ok || score <= q.Threshold {
			continue
		}
		rows = append(rows, SimilarityRow{ID: records[i].ID, Content: records[i].Content, Score: score})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows
}
