// Package vector holds the float32 vector arithmetic shared by maintenance and ranking.
package vector

import "math"

// Truncate returns a copy of the first n components. Vectors not longer than n are copied as is.
func Truncate(v []float32, n int) []float32 {
	if n < 0 {
		n = 0
	}
	if len(v) < n {
		n = len(v)
	}
	out := make([]float32, n)
	copy(out, v[:n])
	return out
}

// Normalize returns an L2-normalized copy. A zero vector is returned unchanged (copied).
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	norm := Norm(v)
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out
}

// Norm returns the L2 norm.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b.
// Mismatched lengths or a zero vector yield ok=false.
func Cosine(a, b []float32) (score float64, ok bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// Head returns up to n leading components, for diagnostics.
func Head(v []float32, n int) []float32 {
	return Truncate(v, n)
}
