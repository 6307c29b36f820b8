package nn

import "fmt"

// FlattenValues concatenates the values of params into one flat vector.
//
// This is the bridge between the network and the mixture prior: the prior
// sees the network's non-bias weights as a single vector, in the stable
// order given by params.
func FlattenValues(params []*Parameter) []float32 {
	n := 0
	for _, p := range params {
		n += p.Tensor().NumElements()
	}
	flat := make([]float32, 0, n)
	for _, p := range params {
		flat = append(flat, p.Tensor().Data()...)
	}
	return flat
}

// FlattenLen returns the total element count across params.
func FlattenLen(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.Tensor().NumElements()
	}
	return n
}

// AddFlatGrad scatters a flat gradient vector back onto the parameters,
// accumulating into each parameter's gradient. Each entry of flat may be
// pre-scaled by the caller (the trainer applies the tau/N factor).
//
// The vector length must match FlattenLen(params),
// in the same order used by FlattenValues.
func AddFlatGrad(params []*Parameter, flat []float32) error {
	if want := FlattenLen(params); len(flat) != want {
		return fmt.Errorf("flat gradient length %d does not match parameter count %d", len(flat), want)
	}
	off := 0
	for _, p := range params {
		g := p.Grad().Data()
		for i := range g {
			g[i] += flat[off+i]
		}
		off += len(g)
	}
	return nil
}
