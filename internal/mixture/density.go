package mixture

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/softshare-ml/softshare/internal/parallel"
)

// Loss returns the unscaled prior loss for the given weight vector:
//
//	sum_i -log sum_k pi_k N(w_i; mu_k, var_k)  +  sum_k -log IG(var_k; shape_k, rate_k)
//
// The caller applies the tau/N weighting before adding it to the task loss.
func (p *GaussianMixturePrior) Loss(weights []float32) (float64, error) {
	if len(weights) != p.numWeights {
		return 0, fmt.Errorf("%w: got %d, attached with %d", ErrWeightCount, len(weights), p.numWeights)
	}
	model := p.Snapshot()

	var (
		mu  sync.Mutex
		nll float64
	)
	p.forWeightChunks(len(weights), func(start, end int) {
		joints := make([]float64, model.K())
		var local float64
		for i := start; i < end; i++ {
			model.LogJoints(float64(weights[i]), joints)
			local -= floats.LogSumExp(joints)
		}
		mu.Lock()
		nll += local
		mu.Unlock()
	})

	loss := nll + p.hyperLoss(model)
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return 0, fmt.Errorf("%w: %g", ErrNonFinite, loss)
	}
	return loss, nil
}

// LossGrad computes the prior loss and its gradients.
//
// Gradients with respect to the mixture parameters are scaled by scale and
// accumulated into the parameters' gradient tensors; the gradient with
// respect to the weights is returned, also scaled by scale. The loss value
// itself is returned unscaled. Neither the weight vector nor the mixture
// parameter values are mutated.
//
// The per-component gradient contributions are weighted by each weight's
// responsibility under that component; this responsibility weighting is what
// makes soft clustering emerge from plain gradient descent, without an
// explicit EM step.
func (p *GaussianMixturePrior) LossGrad(weights []float32, scale float64) (float64, []float32, error) {
	if len(weights) != p.numWeights {
		return 0, nil, fmt.Errorf("%w: got %d, attached with %d", ErrWeightCount, len(weights), p.numWeights)
	}
	model := p.Snapshot()
	k := model.K()

	weightGrad := make([]float32, len(weights))

	// Shared accumulators, merged under mu by each chunk.
	var (
		mu       sync.Mutex
		nll      float64
		gradMu   = make([]float64, k) // dL/d mean_k
		gradRho  = make([]float64, k) // dL/d logvar_k (data term)
		respSum  = make([]float64, k) // sum_i r_ik
		totalNZR float64              // sum_i (1 - r_i0)
	)

	p.forWeightChunks(len(weights), func(start, end int) {
		resp := make([]float64, k)
		localNLL := 0.0
		localGradMu := make([]float64, k)
		localGradRho := make([]float64, k)
		localRespSum := make([]float64, k)
		localNZR := 0.0

		for i := start; i < end; i++ {
			w := float64(weights[i])
			model.LogJoints(w, resp)
			lse := floats.LogSumExp(resp)
			localNLL -= lse

			var dw float64
			for c := 0; c < k; c++ {
				r := math.Exp(resp[c] - lse)
				d := (w - model.Means[c]) / model.Variances[c]

				dw += r * d
				localGradMu[c] -= r * d
				localGradRho[c] -= r * (d*(w-model.Means[c])/2 - 0.5)
				localRespSum[c] += r
			}
			localNZR += 1 - math.Exp(resp[0]-lse)
			weightGrad[i] = float32(scale * dw)
		}

		mu.Lock()
		nll += localNLL
		totalNZR += localNZR
		for c := 0; c < k; c++ {
			gradMu[c] += localGradMu[c]
			gradRho[c] += localGradRho[c]
			respSum[c] += localRespSum[c]
		}
		mu.Unlock()
	})

	loss := nll + p.hyperLoss(model)
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return 0, nil, fmt.Errorf("%w: %g", ErrNonFinite, loss)
	}

	// Hyper-prior pull on each log-variance: d/d rho of -log IG(e^rho).
	for c := 0; c < k; c++ {
		gradRho[c] += (p.hyper[c].Shape + 1) - p.hyper[c].Rate/model.Variances[c]
	}

	meanGrad := p.means.Grad().Data()
	logVarGrad := p.logVars.Grad().Data()
	for c := 0; c < k; c++ {
		if c > 0 { // spike mean is fixed; leave its gradient untouched
			meanGrad[c] += float32(scale * gradMu[c])
		}
		logVarGrad[c] += float32(scale * gradRho[c])
	}

	// Mixing logits: dL/d gamma_c = s_c * sum_i R_i - sum_i r_ic, where s is
	// the softmax over logits and R_i the non-zero responsibility mass of
	// weight i. PiZero itself is fixed and has no logit.
	logitGrad := p.logits.Grad().Data()
	for c := 1; c < k; c++ {
		s := model.Proportions[c] / (1 - model.PiZero)
		logitGrad[c-1] += float32(scale * (s*totalNZR - respSum[c]))
	}

	return loss, weightGrad, nil
}

// hyperLoss returns sum_k -log IG(var_k; shape_k, rate_k).
func (p *GaussianMixturePrior) hyperLoss(model Model) float64 {
	var loss float64
	for c, h := range p.hyper {
		ig := distuv.InverseGamma{Alpha: h.Shape, Beta: h.Rate}
		loss -= ig.LogProb(model.Variances[c])
	}
	return loss
}

func (p *GaussianMixturePrior) forWeightChunks(n int, f func(start, end int)) {
	cfg := p.par
	if cfg.NumWorkers == 0 {
		cfg.Enabled = false
	}
	parallel.ForChunks(n, f, cfg)
}
