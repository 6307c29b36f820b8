// Package tensor provides the fixed-layout tensor used throughout softshare.
//
// The layout convention is deliberately singular: float32 elements, row-major
// (C order), contiguous, host memory. Compression operates on weight arrays a
// few megabytes in size at most; there is no dtype dispatch, no device
// abstraction, and no view/stride machinery.
package tensor

import "fmt"

// Tensor is a dense row-major float32 tensor.
type Tensor struct {
	shape Shape
	data  []float32
}

// New creates a zero-filled tensor with the given shape.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float32, shape.NumElements()),
	}, nil
}

// MustNew is New for shapes known to be valid. Panics otherwise.
func MustNew(shape Shape) *Tensor {
	t, err := New(shape)
	if err != nil {
		panic(err)
	}
	return t
}

// FromSlice creates a tensor backed by a copy of data.
//
// The length of data must match the number of elements implied by shape.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	t := &Tensor{
		shape: shape.Clone(),
		data:  make([]float32, len(data)),
	}
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape. Callers must not mutate it.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the flat backing slice.
//
// Mutations are visible to every holder of the tensor; this is how the
// optimizer applies in-place updates.
func (t *Tensor) Data() []float32 {
	return t.data
}

// At returns the element at the given 2D position.
// Only rank-2 tensors support 2D indexing.
func (t *Tensor) At(i, j int) float32 {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("At(i, j) on rank-%d tensor", len(t.shape)))
	}
	return t.data[i*t.shape[1]+j]
}

// Set writes the element at the given 2D position.
func (t *Tensor) Set(i, j int, v float32) {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("Set(i, j) on rank-%d tensor", len(t.shape)))
	}
	t.data[i*t.shape[1]+j] = v
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		shape: t.shape.Clone(),
		data:  make([]float32, len(t.data)),
	}
	copy(c.data, t.data)
	return c
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float32) {
	for i := range t.data {
		t.data[i] = v
	}
}
