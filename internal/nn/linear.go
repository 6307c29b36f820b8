package nn

import (
	"fmt"
	"math/rand"

	"github.com/softshare-ml/softshare/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Forward caches its input so that Backward can accumulate weight gradients
// without an autodiff tape. The gradient math is standard:
//
//	∂L/∂W = gradOut.T @ x
//	∂L/∂b = sum over batch of gradOut
//	∂L/∂x = gradOut @ W
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]

	input *tensor.Tensor // Cached forward input
}

// NewLinear creates a Linear layer with Xavier-initialized weights and zero
// biases. The name prefixes the layer's parameter names ("name.weight",
// "name.bias").
func NewLinear(name string, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	w := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng)
	b := tensor.Zeros(tensor.Shape{outFeatures})

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(name+".weight", w, GroupWeights),
		bias:        NewParameter(name+".bias", b, GroupWeights),
	}
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear %q: input shape %v, want [batch %d]",
			l.weight.Name(), shape, l.inFeatures))
	}
	batch := shape[0]

	l.input = input

	out := tensor.MustNew(tensor.Shape{batch, l.outFeatures})
	x := input.Data()
	w := l.weight.Tensor().Data()
	b := l.bias.Tensor().Data()
	y := out.Data()

	for bi := 0; bi < batch; bi++ {
		xRow := x[bi*l.inFeatures : (bi+1)*l.inFeatures]
		yRow := y[bi*l.outFeatures : (bi+1)*l.outFeatures]
		for o := 0; o < l.outFeatures; o++ {
			wRow := w[o*l.inFeatures : (o+1)*l.inFeatures]
			sum := b[o]
			for i, xv := range xRow {
				sum += xv * wRow[i]
			}
			yRow[o] = sum
		}
	}
	return out
}

// Backward accumulates weight and bias gradients for the cached input and
// returns the gradient with respect to that input.
//
// gradOut shape: [batch_size, out_features]
func (l *Linear) Backward(gradOut *tensor.Tensor) *tensor.Tensor {
	if l.input == nil {
		panic("Linear: Backward called before Forward")
	}
	batch := l.input.Shape()[0]
	if !gradOut.Shape().Equal(tensor.Shape{batch, l.outFeatures}) {
		panic(fmt.Sprintf("Linear %q: gradOut shape %v, want [%d %d]",
			l.weight.Name(), gradOut.Shape(), batch, l.outFeatures))
	}

	x := l.input.Data()
	w := l.weight.Tensor().Data()
	gw := l.weight.Grad().Data()
	gb := l.bias.Grad().Data()
	gy := gradOut.Data()

	gradIn := tensor.MustNew(tensor.Shape{batch, l.inFeatures})
	gx := gradIn.Data()

	for bi := 0; bi < batch; bi++ {
		xRow := x[bi*l.inFeatures : (bi+1)*l.inFeatures]
		gyRow := gy[bi*l.outFeatures : (bi+1)*l.outFeatures]
		gxRow := gx[bi*l.inFeatures : (bi+1)*l.inFeatures]
		for o := 0; o < l.outFeatures; o++ {
			g := gyRow[o]
			if g == 0 {
				continue
			}
			gb[o] += g
			wRow := w[o*l.inFeatures : (o+1)*l.inFeatures]
			gwRow := gw[o*l.inFeatures : (o+1)*l.inFeatures]
			for i, xv := range xRow {
				gwRow[i] += g * xv
				gxRow[i] += g * wRow[i]
			}
		}
	}
	return gradIn
}

// Parameters returns the layer's parameters (weight, then bias).
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}
