package tensor

import "math/rand"

// Zeros creates a zero-filled tensor. Panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	return MustNew(shape)
}

// Full creates a tensor with every element set to v.
func Full(shape Shape, v float32) *Tensor {
	t := MustNew(shape)
	t.Fill(v)
	return t
}

// Randn creates a tensor with elements drawn from N(0, stddev^2)
// using the supplied source of randomness.
func Randn(shape Shape, stddev float64, rng *rand.Rand) *Tensor {
	t := MustNew(shape)
	for i := range t.data {
		t.data[i] = float32(rng.NormFloat64() * stddev)
	}
	return t
}
