package mixture

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const logTwoPi = 1.8378770664093453 // log(2*pi)

// Model is an immutable snapshot of mixture state: means, floored variances
// and materialized mixing proportions, one entry per component with the zero
// spike at index 0.
type Model struct {
	Means       []float64
	Variances   []float64
	Proportions []float64
	PiZero      float64
}

// K returns the number of components.
func (m Model) K() int {
	return len(m.Means)
}

// LogJoints fills dst with log(pi_k) + log N(w; mu_k, var_k) per component.
// These are the unnormalized log posteriors; their log-sum-exp is the
// log-density of w under the mixture.
func (m Model) LogJoints(w float64, dst []float64) {
	for k := range dst {
		dst[k] = math.Log(m.Proportions[k]) + logNormal(w, m.Means[k], m.Variances[k])
	}
}

// LogDensity returns log p(w) under the mixture, computed via log-sum-exp.
func (m Model) LogDensity(w float64) float64 {
	joints := make([]float64, m.K())
	m.LogJoints(w, joints)
	return floats.LogSumExp(joints)
}

// Responsibilities fills dst with the posterior probability of each
// component having generated w.
func (m Model) Responsibilities(w float64, dst []float64) {
	m.LogJoints(w, dst)
	lse := floats.LogSumExp(dst)
	for k := range dst {
		dst[k] = math.Exp(dst[k] - lse)
	}
}

// Assign returns the index of the component with maximal responsibility for
// w. Ties resolve to the lowest component index, keeping discretization
// deterministic.
func (m Model) Assign(w float64) int {
	joints := make([]float64, m.K())
	m.LogJoints(w, joints)
	best := 0
	for k := 1; k < len(joints); k++ {
		if joints[k] > joints[best] {
			best = k
		}
	}
	return best
}

// logNormal returns log N(w; mu, v).
func logNormal(w, mu, v float64) float64 {
	d := w - mu
	return -0.5 * (logTwoPi + math.Log(v) + d*d/v)
}

// proportions materializes the mixing simplex from the fixed zero mass and
// the unconstrained logits of the non-zero components.
func proportions(piZero float64, logits []float32) []float64 {
	k := len(logits) + 1
	out := make([]float64, k)
	out[0] = piZero

	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > maxLogit {
			maxLogit = float64(l)
		}
	}
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l) - maxLogit)
		out[i+1] = e
		sum += e
	}
	scale := (1 - piZero) / sum
	for i := 1; i < k; i++ {
		out[i] *= scale
	}
	return out
}
