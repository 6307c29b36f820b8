package mixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/softshare-ml/softshare/internal/parallel"
)

// The analytic gradients are verified against central finite differences of
// Loss, parameter by parameter, with the mixture state nudged away from its
// symmetric initialization first.
func TestLossGradMatchesFiniteDifference(t *testing.T) {
	weights := []float32{-0.8, -0.1, 0.02, 0.3, 0.75, 1.1}
	p, err := New(validConfig(), weights)
	require.NoError(t, err)
	p.SetParallelism(parallel.Config{Enabled: false})

	// Break symmetry so no gradient is accidentally zero.
	copy(p.means.Tensor().Data(), []float32{0, -0.6, 0.2, 0.9})
	copy(p.logVars.Tensor().Data(), []float32{-4.1, -3.6, -3.9, -3.2})
	copy(p.logits.Tensor().Data(), []float32{0.3, -0.2, 0.1})

	mustLoss := func(w []float32) float64 {
		loss, err := p.Loss(w)
		require.NoError(t, err)
		return loss
	}

	// Analytic gradients.
	for _, param := range p.Parameters() {
		param.ZeroGrad()
	}
	_, weightGrad, err := p.LossGrad(weights, 1)
	require.NoError(t, err)

	// d loss / d w_i.
	for i := range weights {
		numeric := fd.Derivative(func(x float64) float64 {
			saved := weights[i]
			weights[i] = float32(x)
			defer func() { weights[i] = saved }()
			return mustLoss(weights)
		}, float64(weights[i]), &fd.Settings{Formula: fd.Central, Step: 1e-3})

		assert.InDelta(t, numeric, float64(weightGrad[i]), 2e-2, "weight %d", i)
	}

	// d loss / d parameter, for each mixture parameter tensor.
	for _, param := range p.Parameters() {
		data := param.Tensor().Data()
		grad := param.Grad().Data()
		x := make([]float64, len(data))
		for i, v := range data {
			x[i] = float64(v)
		}

		numeric := fd.Gradient(nil, func(x []float64) float64 {
			saved := make([]float32, len(data))
			copy(saved, data)
			for i, v := range x {
				data[i] = float32(v)
			}
			defer copy(data, saved)
			return mustLoss(weights)
		}, x, &fd.Settings{Formula: fd.Central, Step: 1e-3})

		for i := range grad {
			if param == p.means && i == 0 {
				// The spike's gradient slot is never written.
				assert.Zero(t, grad[i], "frozen mean gradient")
				continue
			}
			assert.InDelta(t, numeric[i], float64(grad[i]), 2e-2,
				"%s[%d]", param.Name(), i)
		}
	}
}

// Scaling LossGrad scales every gradient but leaves the loss untouched.
func TestLossGradScale(t *testing.T) {
	weights := []float32{-0.4, 0.1, 0.6}
	p, err := New(validConfig(), weights)
	require.NoError(t, err)

	loss1, wg1, err := p.LossGrad(weights, 1)
	require.NoError(t, err)

	for _, param := range p.Parameters() {
		param.ZeroGrad()
	}
	loss2, wg2, err := p.LossGrad(weights, 0.5)
	require.NoError(t, err)

	assert.InDelta(t, loss1, loss2, 1e-12)
	for i := range wg1 {
		assert.InDelta(t, float64(wg1[i])*0.5, float64(wg2[i]), 1e-5, "weight grad %d", i)
	}
}

// LossGrad must not change weight values or mixture parameter values.
func TestLossGradDoesNotMutateInputs(t *testing.T) {
	weights := []float32{-0.4, 0.1, 0.6}
	p, err := New(validConfig(), weights)
	require.NoError(t, err)

	before := p.Snapshot()
	savedWeights := append([]float32(nil), weights...)

	_, _, err = p.LossGrad(weights, 1)
	require.NoError(t, err)

	after := p.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, savedWeights, weights)
}
