package optim

import (
	"math"

	"github.com/softshare-ml/softshare/internal/nn"
)

// GroupedAdam implements Adam (Adaptive Moment Estimation) with a separate
// learning rate per parameter group.
//
// Update rule, per parameter element:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr[group] * m_hat / (sqrt(v_hat) + eps)
//
// Elements a parameter has marked fixed (nn.Parameter.Freeze) are never
// updated; this is how the zero component's mean stays at exactly 0.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type GroupedAdam struct {
	params []*nn.Parameter
	lrs    GroupLRs
	beta1  float64
	beta2  float64
	eps    float64
	t      int                         // Timestep for bias correction
	m      map[*nn.Parameter][]float32 // First moment estimates
	v      map[*nn.Parameter][]float32 // Second moment estimates
}

// AdamConfig holds configuration for GroupedAdam.
type AdamConfig struct {
	LRs   GroupLRs   // Per-group learning rates (zero/absent: group skipped)
	Betas [2]float64 // Running-average coefficients (default: 0.9, 0.999)
	Eps   float64    // Numerical stability term (default: 1e-8)
}

// NewGroupedAdam creates a GroupedAdam over params.
//
// Learning rates are deliberately not defaulted: which groups move, and how
// fast, is the whole point of this optimizer. Betas and Eps default to the
// standard Adam values when zero.
func NewGroupedAdam(params []*nn.Parameter, config AdamConfig) *GroupedAdam {
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	lrs := make(GroupLRs, len(config.LRs))
	for g, lr := range config.LRs {
		lrs[g] = lr
	}

	return &GroupedAdam{
		params: params,
		lrs:    lrs,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter][]float32),
		v:      make(map[*nn.Parameter][]float32),
	}
}

// Step performs one optimization step over all parameters.
//
// Parameters in a group with zero learning rate are skipped, as are
// individual fixed elements.
func (a *GroupedAdam) Step() {
	a.t++

	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for _, param := range a.params {
		lr := a.lrs[param.Group()]
		if lr == 0 {
			continue
		}

		n := param.Tensor().NumElements()
		m, ok := a.m[param]
		if !ok {
			m = make([]float32, n)
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = make([]float32, n)
			a.v[param] = v
		}

		a.updateParameter(param, m, v, lr, biasCorrection1, biasCorrection2)
	}
}

// updateParameter performs the Adam update for a single parameter.
func (a *GroupedAdam) updateParameter(
	param *nn.Parameter,
	m, v []float32,
	lr, biasCorrection1, biasCorrection2 float64,
) {
	gradData := param.Grad().Data()
	paramData := param.Tensor().Data()
	beta1 := float32(a.beta1)
	beta2 := float32(a.beta2)

	for i := range paramData {
		if param.IsFixed(i) {
			continue
		}
		g := gradData[i]

		// m_t = beta1 * m_{t-1} + (1-beta1) * grad
		m[i] = beta1*m[i] + (1.0-beta1)*g

		// v_t = beta2 * v_{t-1} + (1-beta2) * grad²
		v[i] = beta2*v[i] + (1.0-beta2)*g*g

		mHat := float64(m[i]) / biasCorrection1
		vHat := float64(v[i]) / biasCorrection2

		paramData[i] -= float32(lr * mHat / (math.Sqrt(vHat) + a.eps))
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *GroupedAdam) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// LR returns the learning rate for a group.
func (a *GroupedAdam) LR(g nn.Group) float64 {
	return a.lrs[g]
}

// SetLR updates the learning rate for a group.
// Useful for learning rate scheduling during retraining.
func (a *GroupedAdam) SetLR(g nn.Group, lr float64) {
	a.lrs[g] = lr
}

// Timestep returns the current timestep.
func (a *GroupedAdam) Timestep() int {
	return a.t
}
