package vector

import "math"

// InnerProduct returns the dot product of two vectors, or 0 if their lengths differ.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns dot(a,b) / (|a| * |b|) in [-1, 1].
// If either norm is zero (or the lengths differ) the similarity is 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// clamp keeps rounding error from pushing a score outside [-1, 1].
func clamp(s float64) float64 {
	return math.Max(-1, math.Min(1, s))
}
