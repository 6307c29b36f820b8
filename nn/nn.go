// Copyright 2026 The softshare authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn re-exports the network building blocks: group-tagged
// parameters, the Linear layer and the MLP with explicit backward passes.
package nn

import (
	"math/rand"

	"github.com/softshare-ml/softshare/internal/nn"
	"github.com/softshare-ml/softshare/internal/tensor"
)

// Group tags a parameter with its optimization group.
type Group = nn.Group

// Parameter groups, one per differential learning rate.
const (
	GroupWeights = nn.GroupWeights
	GroupMeans   = nn.GroupMeans
	GroupLogVars = nn.GroupLogVars
	GroupLogits  = nn.GroupLogits
)

// Parameter represents a trainable tensor with a group tag and an optional
// set of fixed elements.
type Parameter = nn.Parameter

// Linear is a fully connected layer with explicit Forward/Backward.
type Linear = nn.Linear

// MLP is a multilayer perceptron with ReLU activations.
type MLP = nn.MLP

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor, group Group) *Parameter {
	return nn.NewParameter(name, t, group)
}

// NewMLP creates an MLP for the given layer sizes.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	model := nn.NewMLP([]int{64, 32, 2}, rng)
func NewMLP(sizes []int, rng *rand.Rand) *MLP {
	return nn.NewMLP(sizes, rng)
}

// CrossEntropy computes mean cross-entropy loss and its logit gradient.
func CrossEntropy(logits *tensor.Tensor, targets []int) (float32, *tensor.Tensor) {
	return nn.CrossEntropy(logits, targets)
}

// Accuracy returns the fraction of correctly classified rows.
func Accuracy(logits *tensor.Tensor, targets []int) float64 {
	return nn.Accuracy(logits, targets)
}
