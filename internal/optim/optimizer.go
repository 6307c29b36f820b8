// Package optim implements the parameter-group-aware optimizer used for
// joint weight/mixture training.
//
// Gradients for all parameters come from one combined loss (task loss plus
// the scaled prior loss); the update is then applied per group, each group
// under its own learning rate. Network weights, mixture means, mixture
// log-variances and mixing logits have very different natural scales, and a
// single global rate either under-trains the network or blows up the
// mixture.
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
//
//	for each batch {
//	    opt.ZeroGrad()
//	    // ... forward, backward, prior LossGrad ...
//	    opt.Step()
//	}
package optim

import "github.com/softshare-ml/softshare/internal/nn"

// GroupLRs maps each parameter group to its learning rate.
// A group whose rate is zero (or absent) is skipped entirely.
type GroupLRs map[nn.Group]float64

// Optimizer is the base interface for optimization algorithms.
type Optimizer interface {
	// Step applies one update to all parameters, reading each parameter's
	// accumulated gradient.
	Step()

	// ZeroGrad clears all parameter gradients. Call before each backward
	// pass to prevent accumulation across iterations.
	ZeroGrad()

	// LR returns the learning rate for a group.
	LR(g nn.Group) float64
}
