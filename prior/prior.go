// Copyright 2026 The softshare authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package prior re-exports the Gaussian-mixture empirical prior.
//
// Attach a prior to a pretrained network's flattened weights, retrain the
// network jointly with the mixture parameters, then discretize:
//
//	p, err := prior.New(prior.Config{
//	    K:              16,
//	    PiZero:         0.99,
//	    TargetVariance: 0.02,
//	    Confidence:     10,
//	    ZeroConfidence: 5000,
//	}, flatWeights)
package prior

import "github.com/softshare-ml/softshare/internal/mixture"

// Config describes a Gaussian mixture prior over network weights.
type Config = mixture.Config

// GaussianMixturePrior is a mixture prior attached to a weight vector.
type GaussianMixturePrior = mixture.GaussianMixturePrior

// Model is an immutable snapshot of mixture state.
type Model = mixture.Model

// HyperPrior is an Inverse-Gamma shape/rate pair anchoring one component's
// variance.
type HyperPrior = mixture.HyperPrior

// Sentinel errors.
var (
	ErrTooFewComponents = mixture.ErrTooFewComponents
	ErrBadPiZero        = mixture.ErrBadPiZero
	ErrBadHyperPrior    = mixture.ErrBadHyperPrior
	ErrWeightCount      = mixture.ErrWeightCount
	ErrNonFinite        = mixture.ErrNonFinite
)

// New creates a prior over the given pretrained weight vector.
func New(cfg Config, pretrained []float32) (*GaussianMixturePrior, error) {
	return mixture.New(cfg, pretrained)
}
