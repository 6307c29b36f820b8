// Package data generates the synthetic datasets used by the demo pipeline
// and the end-to-end tests: a two-class Gaussian-blob classification set for
// training the MLP, and a scalar two-component mixture for prior-recovery
// checks.
package data

import (
	"math"
	randv2 "math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/softshare-ml/softshare/internal/tensor"
)

// Classification is a labeled dataset: X is [n, dim], Y holds class indices.
type Classification struct {
	X *tensor.Tensor
	Y []int
}

// Len returns the number of examples.
func (c Classification) Len() int {
	return len(c.Y)
}

// Batch returns the half-open example range [start, start+size) as a tensor
// plus its targets. The batch is clipped at the end of the dataset.
func (c Classification) Batch(start, size int) (*tensor.Tensor, []int) {
	n := c.Len()
	if start >= n {
		return nil, nil
	}
	end := min(start+size, n)
	dim := c.X.Shape()[1]

	xb, err := tensor.FromSlice(c.X.Data()[start*dim:end*dim], tensor.Shape{end - start, dim})
	if err != nil {
		panic(err)
	}
	return xb, c.Y[start:end]
}

// Split partitions the dataset into a training head and evaluation tail.
func (c Classification) Split(trainFrac float64) (Classification, Classification) {
	n := c.Len()
	cut := int(float64(n) * trainFrac)
	dim := c.X.Shape()[1]

	head, err := tensor.FromSlice(c.X.Data()[:cut*dim], tensor.Shape{cut, dim})
	if err != nil {
		panic(err)
	}
	tail, err := tensor.FromSlice(c.X.Data()[cut*dim:], tensor.Shape{n - cut, dim})
	if err != nil {
		panic(err)
	}
	return Classification{X: head, Y: c.Y[:cut]}, Classification{X: tail, Y: c.Y[cut:]}
}

// TwoBlobs samples n examples of dim-dimensional two-class Gaussian data.
// Class c has mean ±sep/(2*sqrt(dim)) in every coordinate and unit variance,
// so the expected inter-class distance is sep regardless of dim.
func TwoBlobs(n, dim int, sep float64, seed uint64) Classification {
	src := randv2.NewPCG(seed, seed)
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	coin := randv2.New(src)

	offset := sep / (2 * math.Sqrt(float64(dim)))

	x := tensor.MustNew(tensor.Shape{n, dim})
	y := make([]int, n)
	xd := x.Data()
	for i := 0; i < n; i++ {
		cls := coin.IntN(2)
		y[i] = cls
		center := offset
		if cls == 0 {
			center = -offset
		}
		for j := 0; j < dim; j++ {
			xd[i*dim+j] = float32(center + noise.Rand())
		}
	}
	return Classification{X: x, Y: y}
}

// ScalarMixture draws n samples from
// piZero*N(0, sigmaZero^2) + (1-piZero)*N(mu, sigma^2).
// Used to verify the prior recovers a known two-cluster structure.
func ScalarMixture(n int, piZero, mu, sigmaZero, sigma float64, seed uint64) []float32 {
	src := randv2.NewPCG(seed, seed)
	zero := distuv.Normal{Mu: 0, Sigma: sigmaZero, Src: src}
	spike := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
	coin := randv2.New(src)

	out := make([]float32, n)
	for i := range out {
		if coin.Float64() < piZero {
			out[i] = float32(zero.Rand())
		} else {
			out[i] = float32(spike.Rand())
		}
	}
	return out
}
