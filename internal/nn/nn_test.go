package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softshare-ml/softshare/internal/tensor"
)

func TestParameterFreeze(t *testing.T) {
	p := NewParameter("means", tensor.Zeros(tensor.Shape{4}), GroupMeans)
	assert.Equal(t, GroupMeans, p.Group())

	p.Freeze(0)
	assert.True(t, p.IsFixed(0))
	assert.False(t, p.IsFixed(1))
}

func TestParameterGradAccumulation(t *testing.T) {
	p := NewParameter("w", tensor.Zeros(tensor.Shape{2}), GroupWeights)
	p.Grad().Data()[0] = 1.5
	p.Grad().Data()[0] += 0.5
	assert.InDelta(t, 2.0, p.Grad().Data()[0], 1e-6)

	p.ZeroGrad()
	assert.Zero(t, p.Grad().Data()[0])
}

func TestLinearForward(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := NewLinear("fc", 2, 2, rng)

	// Fix weights so the output is hand-checkable: y = x @ W.T + b.
	copy(l.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	copy(l.Bias().Tensor().Data(), []float32{0.5, -0.5})

	x, err := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2})
	require.NoError(t, err)

	y := l.Forward(x)
	assert.InDelta(t, 1+2+0.5, y.Data()[0], 1e-6)
	assert.InDelta(t, 3+4-0.5, y.Data()[1], 1e-6)
}

// Backward is checked against central finite differences of the forward
// pass, one parameter element at a time.
func TestLinearBackwardMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	l := NewLinear("fc", 3, 2, rng)

	x := tensor.Randn(tensor.Shape{4, 3}, 1.0, rng)

	// Scalar objective: sum of outputs. Its gradient w.r.t. outputs is 1.
	objective := func() float64 {
		var s float64
		for _, v := range l.Forward(x).Data() {
			s += float64(v)
		}
		return s
	}

	l.Forward(x)
	ones := tensor.Full(tensor.Shape{4, 2}, 1)
	l.Backward(ones)

	const eps = 1e-2
	for _, p := range l.Parameters() {
		data := p.Tensor().Data()
		grad := p.Grad().Data()
		for i := range data {
			orig := data[i]
			data[i] = orig + eps
			up := objective()
			data[i] = orig - eps
			down := objective()
			data[i] = orig

			numeric := (up - down) / (2 * eps)
			assert.InDelta(t, numeric, float64(grad[i]), 1e-2,
				"%s[%d]", p.Name(), i)
		}
	}
}

func TestCrossEntropyUniformLogits(t *testing.T) {
	logits := tensor.Zeros(tensor.Shape{2, 4})
	loss, grad := CrossEntropy(logits, []int{0, 3})

	// Uniform logits: loss = log(classes).
	assert.InDelta(t, math.Log(4), float64(loss), 1e-6)

	// Gradient rows sum to zero (softmax minus one-hot).
	g := grad.Data()
	for b := 0; b < 2; b++ {
		var sum float64
		for c := 0; c < 4; c++ {
			sum += float64(g[b*4+c])
		}
		assert.InDelta(t, 0, sum, 1e-6)
	}
}

func TestCrossEntropyStableForLargeLogits(t *testing.T) {
	logits, err := tensor.FromSlice([]float32{1000, -1000}, tensor.Shape{1, 2})
	require.NoError(t, err)
	loss, grad := CrossEntropy(logits, []int{0})
	assert.False(t, math.IsNaN(float64(loss)))
	assert.False(t, math.IsInf(float64(loss), 0))
	assert.InDelta(t, 0, float64(loss), 1e-5)
	assert.False(t, math.IsNaN(float64(grad.Data()[0])))
}

func TestAccuracy(t *testing.T) {
	logits, err := tensor.FromSlice([]float32{
		2, 1, // pred 0
		0, 3, // pred 1
		1, 1, // tie resolves to class 0
	}, tensor.Shape{3, 2})
	require.NoError(t, err)

	acc := Accuracy(logits, []int{0, 1, 1})
	assert.InDelta(t, 2.0/3.0, acc, 1e-9)
}

func TestFlattenRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m := NewMLP([]int{4, 3, 2}, rng)
	weights := m.WeightParameters()

	flat := FlattenValues(weights)
	assert.Equal(t, 4*3+3*2, len(flat))
	assert.Equal(t, len(flat), FlattenLen(weights))

	grad := make([]float32, len(flat))
	for i := range grad {
		grad[i] = float32(i)
	}
	require.NoError(t, AddFlatGrad(weights, grad))

	// Scatter order matches flatten order.
	assert.InDelta(t, 0, float64(weights[0].Grad().Data()[0]), 1e-6)
	assert.InDelta(t, float64(4*3), float64(weights[1].Grad().Data()[0]), 1e-6)

	err := AddFlatGrad(weights, grad[:3])
	assert.Error(t, err)
}

func TestMLPBackwardMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	m := NewMLP([]int{3, 5, 2}, rng)
	x := tensor.Randn(tensor.Shape{6, 3}, 1.0, rng)
	targets := []int{0, 1, 0, 1, 1, 0}

	lossAt := func() float64 {
		loss, _ := CrossEntropy(m.Forward(x), targets)
		return float64(loss)
	}

	logits := m.Forward(x)
	_, grad := CrossEntropy(logits, targets)
	m.ZeroGrad()
	m.Backward(grad)

	const eps = 1e-3
	for _, p := range m.Parameters() {
		data := p.Tensor().Data()
		g := p.Grad().Data()
		for i := 0; i < len(data); i += 3 { // sample every third element
			orig := data[i]
			data[i] = orig + eps
			up := lossAt()
			data[i] = orig - eps
			down := lossAt()
			data[i] = orig

			numeric := (up - down) / (2 * eps)
			assert.InDelta(t, numeric, float64(g[i]), 5e-3, "%s[%d]", p.Name(), i)
		}
	}
}
