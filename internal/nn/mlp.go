package nn

import (
	"fmt"
	"math/rand"

	"github.com/softshare-ml/softshare/internal/tensor"
)

// MLP is a multilayer perceptron: Linear layers with ReLU between them and
// raw logits at the output.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	model := nn.NewMLP([]int{64, 128, 128, 2}, rng)
//	logits := model.Forward(batch)               // [batch, 2]
//	loss, grad := nn.CrossEntropy(logits, targets)
//	model.Backward(grad)
type MLP struct {
	layers []*Linear

	preacts []*tensor.Tensor // Pre-activation outputs cached for ReLU backward
}

// NewMLP creates an MLP for the given layer sizes.
// sizes must contain at least an input and an output dimension.
func NewMLP(sizes []int, rng *rand.Rand) *MLP {
	if len(sizes) < 2 {
		panic(fmt.Sprintf("MLP: need at least 2 layer sizes, got %v", sizes))
	}
	layers := make([]*Linear, 0, len(sizes)-1)
	for i := 0; i+1 < len(sizes); i++ {
		name := fmt.Sprintf("layers.%d", i)
		layers = append(layers, NewLinear(name, sizes[i], sizes[i+1], rng))
	}
	return &MLP{layers: layers}
}

// Forward runs the network on a [batch, in] tensor and returns logits.
func (m *MLP) Forward(input *tensor.Tensor) *tensor.Tensor {
	m.preacts = m.preacts[:0]
	x := input
	for i, layer := range m.layers {
		x = layer.Forward(x)
		if i+1 < len(m.layers) {
			m.preacts = append(m.preacts, x)
			x = relu(x)
		}
	}
	return x
}

// Backward propagates gradOut (gradient of the loss with respect to the
// logits) back through the network, accumulating parameter gradients.
func (m *MLP) Backward(gradOut *tensor.Tensor) {
	g := gradOut
	for i := len(m.layers) - 1; i >= 0; i-- {
		if i < len(m.layers)-1 {
			g = reluBackward(g, m.preacts[i])
		}
		g = m.layers[i].Backward(g)
	}
}

// Layers returns the Linear layers in order.
func (m *MLP) Layers() []*Linear {
	return m.layers
}

// Parameters returns all parameters in layer order (weight, bias per layer).
func (m *MLP) Parameters() []*Parameter {
	params := make([]*Parameter, 0, 2*len(m.layers))
	for _, l := range m.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// WeightParameters returns only the non-bias weight matrices.
//
// The compression prior is applied to these and nothing else, matching the
// convention that biases are neither regularized nor quantized.
func (m *MLP) WeightParameters() []*Parameter {
	params := make([]*Parameter, 0, len(m.layers))
	for _, l := range m.layers {
		params = append(params, l.Weight())
	}
	return params
}

// ZeroGrad clears gradients on every parameter.
func (m *MLP) ZeroGrad() {
	for _, p := range m.Parameters() {
		p.ZeroGrad()
	}
}

func relu(t *tensor.Tensor) *tensor.Tensor {
	out := tensor.MustNew(t.Shape())
	in := t.Data()
	data := out.Data()
	for i, v := range in {
		if v > 0 {
			data[i] = v
		}
	}
	return out
}

// reluBackward masks gradOut by the sign of the cached pre-activation.
func reluBackward(gradOut, preact *tensor.Tensor) *tensor.Tensor {
	out := tensor.MustNew(gradOut.Shape())
	g := gradOut.Data()
	z := preact.Data()
	data := out.Data()
	for i := range g {
		if z[i] > 0 {
			data[i] = g[i]
		}
	}
	return out
}
