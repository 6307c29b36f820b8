// Package mixture implements the Gaussian-mixture empirical prior used for
// soft weight-sharing compression.
//
// The prior scores a flattened weight vector under a K-component Gaussian
// mixture whose parameters (means, log-variances, mixing logits) are
// themselves optimized jointly with the weights. Retraining under this prior
// clusters the weight distribution into few peaks; a large fixed-mass zero
// component absorbs prunable weights. An Inverse-Gamma hyper-prior on each
// component's variance keeps any single component from collapsing onto one
// weight and blowing the density up.
//
// All functions here are pure with respect to the weight vector and the
// mixture parameter values: they read them and accumulate gradients, nothing
// else. Applying updates is the optimizer's job.
package mixture

import (
	"errors"
	"fmt"
	"math"

	"github.com/softshare-ml/softshare/internal/nn"
	"github.com/softshare-ml/softshare/internal/parallel"
	"github.com/softshare-ml/softshare/internal/tensor"
)

// ErrWeightCount reports a weight vector whose length differs from the one
// captured when the prior was attached. Always a caller bug.
var ErrWeightCount = errors.New("mixture: weight vector length mismatch")

// ErrNonFinite reports a non-finite loss, which the variance floor and
// hyper-prior should make unreachable. Training must stop rather than let a
// NaN reach the weight vector.
var ErrNonFinite = errors.New("mixture: non-finite loss")

// GaussianMixturePrior is a mixture prior attached to a fixed-size weight
// vector.
type GaussianMixturePrior struct {
	cfg        Config
	numWeights int

	means   *nn.Parameter // [K], element 0 frozen at 0
	logVars *nn.Parameter // [K]
	logits  *nn.Parameter // [K-1], logits over the non-zero components

	hyper []HyperPrior // per-component variance anchors

	par parallel.Config
}

// New creates a prior over len(pretrained) weights.
//
// The non-zero component means are spread uniformly across the value range
// of the pretrained weights so the initial clusters bracket the existing
// distribution; log-variances start at log(TargetVariance) and the logits at
// zero (even split of the 1-PiZero mass).
func New(cfg Config, pretrained []float32) (*GaussianMixturePrior, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if len(pretrained) == 0 {
		return nil, fmt.Errorf("mixture: empty pretrained weight vector")
	}

	k := cfg.K

	means := tensor.Zeros(tensor.Shape{k})
	lo, hi := weightRange(pretrained)
	spreadMeans(means.Data()[1:], lo, hi)

	logVars := tensor.Full(tensor.Shape{k}, float32(math.Log(cfg.TargetVariance)))

	logits := tensor.Zeros(tensor.Shape{k - 1})

	hyper := make([]HyperPrior, k)
	hyper[0] = hyperPriorFor(cfg.TargetVariance, cfg.ZeroConfidence)
	for i := 1; i < k; i++ {
		hyper[i] = hyperPriorFor(cfg.TargetVariance, cfg.Confidence)
	}

	p := &GaussianMixturePrior{
		cfg:        cfg,
		numWeights: len(pretrained),
		means:      nn.NewParameter("mixture.means", means, nn.GroupMeans),
		logVars:    nn.NewParameter("mixture.logvars", logVars, nn.GroupLogVars),
		logits:     nn.NewParameter("mixture.logits", logits, nn.GroupLogits),
		hyper:      hyper,
		par:        parallel.DefaultConfig(),
	}
	// The spike stays at exactly zero no matter what the means group LR is.
	p.means.Freeze(0)
	return p, nil
}

// Config returns the (defaulted) configuration the prior was built with.
func (p *GaussianMixturePrior) Config() Config {
	return p.cfg
}

// NumWeights returns the weight-vector length captured at attachment.
func (p *GaussianMixturePrior) NumWeights() int {
	return p.numWeights
}

// Parameters returns the mixture's optimizable parameters
// (means, log-variances, logits).
func (p *GaussianMixturePrior) Parameters() []*nn.Parameter {
	return []*nn.Parameter{p.means, p.logVars, p.logits}
}

// HyperPriors returns the per-component Inverse-Gamma shape/rate pairs.
func (p *GaussianMixturePrior) HyperPriors() []HyperPrior {
	out := make([]HyperPrior, len(p.hyper))
	copy(out, p.hyper)
	return out
}

// SetParallelism overrides the worker configuration for the density loops.
func (p *GaussianMixturePrior) SetParallelism(cfg parallel.Config) {
	p.par = cfg
}

// Snapshot captures the current mixture state as plain float64 values,
// with variances floored and proportions materialized from the logits.
// The snapshot is what discretization and persistence consume.
func (p *GaussianMixturePrior) Snapshot() Model {
	k := p.cfg.K
	m := Model{
		Means:       make([]float64, k),
		Variances:   make([]float64, k),
		Proportions: make([]float64, k),
		PiZero:      p.cfg.PiZero,
	}
	meansData := p.means.Tensor().Data()
	logVarData := p.logVars.Tensor().Data()
	for i := 0; i < k; i++ {
		m.Means[i] = float64(meansData[i])
		m.Variances[i] = math.Max(math.Exp(float64(logVarData[i])), p.cfg.VarianceFloor)
	}
	props := proportions(p.cfg.PiZero, p.logits.Tensor().Data())
	copy(m.Proportions, props)
	return m
}

// weightRange returns the min and max of w.
func weightRange(w []float32) (float64, float64) {
	lo, hi := w[0], w[0]
	for _, v := range w[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return float64(lo), float64(hi)
}

// spreadMeans fills dst with an even spread over [lo, hi]. A degenerate
// range (all pretrained weights identical) falls back to [-1, 1] so the
// components start distinct.
func spreadMeans(dst []float32, lo, hi float64) {
	if hi-lo < 1e-12 {
		lo, hi = -1, 1
	}
	n := len(dst)
	if n == 1 {
		dst[0] = float32((lo + hi) / 2)
		return
	}
	step := (hi - lo) / float64(n-1)
	for i := range dst {
		dst[i] = float32(lo + step*float64(i))
	}
}
