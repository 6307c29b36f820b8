// Copyright 2026 The softshare authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim re-exports the parameter-group-aware optimizer.
package optim

import (
	"github.com/softshare-ml/softshare/internal/nn"
	"github.com/softshare-ml/softshare/internal/optim"
)

// Optimizer is the base interface for optimization algorithms.
type Optimizer = optim.Optimizer

// GroupLRs maps each parameter group to its learning rate.
type GroupLRs = optim.GroupLRs

// GroupedAdam is Adam with per-group learning rates and fixed-element masks.
type GroupedAdam = optim.GroupedAdam

// AdamConfig holds configuration for GroupedAdam.
type AdamConfig = optim.AdamConfig

// NewGroupedAdam creates a GroupedAdam over params.
//
// Example:
//
//	opt := optim.NewGroupedAdam(params, optim.AdamConfig{
//	    LRs: optim.GroupLRs{
//	        nn.GroupWeights: 1e-3,
//	        nn.GroupMeans:   1e-4,
//	        nn.GroupLogVars: 3e-4,
//	        nn.GroupLogits:  3e-4,
//	    },
//	})
func NewGroupedAdam(params []*nn.Parameter, config AdamConfig) *GroupedAdam {
	return optim.NewGroupedAdam(params, config)
}
