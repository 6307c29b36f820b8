// Copyright 2026 The softshare authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package quantize re-exports responsibility-argmax discretization.
package quantize

import (
	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/quantize"
)

// LayerWeights pairs one layer's weight tensor with its optional bias.
type LayerWeights = quantize.LayerWeights

// Report summarizes a discretization pass.
type Report = quantize.Report

// Discretize returns a discretized copy of layers under the given mixture
// snapshot, plus a report. Inputs are never mutated.
func Discretize(layers []LayerWeights, model mixture.Model) ([]LayerWeights, Report) {
	return quantize.Discretize(layers, model)
}
