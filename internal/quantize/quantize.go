// Package quantize turns a network trained under the mixture prior into its
// discretized form: every weight is hard-assigned to the mixture component
// with maximal responsibility and snapped to that component's mean.
//
// The zero component's assignments implement pruning (weights become exactly
// 0); the rest collapse onto at most K-1 distinct values, so each weight is
// representable by a ceil(log2 K)-bit codebook index.
package quantize

import (
	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/parallel"
	"github.com/softshare-ml/softshare/internal/tensor"
)

// LayerWeights pairs one layer's weight tensor with its optional bias.
// Biases are never discretized; the prior was never applied to them.
type LayerWeights struct {
	Weight *tensor.Tensor
	Bias   *tensor.Tensor // may be nil
}

// Report summarizes a discretization pass.
type Report struct {
	TotalWeights      int     // Weights considered (bias elements excluded)
	NonZero           int     // Weights assigned to a non-zero component mean
	DistinctValues    int     // Distinct non-zero values in the output
	IndexBits         int     // Bits per weight for codebook indices: ceil(log2 K)
	CompressionFactor float64 // float32 storage vs. indices + codebook
}

// NonZeroFraction returns the fraction of surviving (non-zero) weights.
func (r Report) NonZeroFraction() float64 {
	if r.TotalWeights == 0 {
		return 0
	}
	return float64(r.NonZero) / float64(r.TotalWeights)
}

// Discretize returns a discretized copy of layers under the given mixture
// snapshot, plus a report. Inputs are never mutated; bias tensors are deep
// copies of the originals. Assignment ties resolve to the lowest component
// index (mixture.Model.Assign), keeping the output reproducible.
func Discretize(layers []LayerWeights, model mixture.Model) ([]LayerWeights, Report) {
	out := make([]LayerWeights, len(layers))
	report := Report{IndexBits: indexBits(model.K())}

	used := make(map[int]bool, model.K())
	par := parallel.DefaultConfig()

	for li, layer := range layers {
		w := layer.Weight
		q := tensor.MustNew(w.Shape())
		src := w.Data()
		dst := q.Data()

		assigned := make([]int, len(src))
		parallel.For(len(src), func(i int) {
			k := model.Assign(float64(src[i]))
			assigned[i] = k
			dst[i] = float32(model.Means[k])
		}, par)

		for _, k := range assigned {
			if k != 0 {
				report.NonZero++
				used[k] = true
			}
		}
		report.TotalWeights += len(src)

		out[li].Weight = q
		if layer.Bias != nil {
			out[li].Bias = layer.Bias.Clone()
		}
	}

	report.DistinctValues = len(used)
	report.CompressionFactor = compressionFactor(report.TotalWeights, report.IndexBits, model.K())
	return out, report
}

// indexBits returns ceil(log2 k).
func indexBits(k int) int {
	bits := 0
	for 1<<bits < k {
		bits++
	}
	return bits
}

// compressionFactor estimates dense float32 storage over codebook storage
// (per-weight indices plus a float64 codebook entry per component).
func compressionFactor(totalWeights, bits, k int) float64 {
	if totalWeights == 0 || bits == 0 {
		return 1
	}
	dense := 32 * float64(totalWeights)
	coded := float64(bits)*float64(totalWeights) + 64*float64(k)
	return dense / coded
}
