package compress

import (
	"fmt"

	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/optim"
)

// FitVector optimizes the mixture parameters against a fixed weight vector;
// the vector itself never moves. This is the prior-only mode used to fit a
// mixture to a static distribution, e.g. to study what the prior would do to
// a network before committing to retraining it.
func FitVector(prior *mixture.GaussianMixturePrior, weights []float32, steps int, lrs optim.GroupLRs) error {
	if steps <= 0 {
		return fmt.Errorf("compress: steps=%d (must be > 0)", steps)
	}

	opt := optim.NewGroupedAdam(prior.Parameters(), optim.AdamConfig{LRs: lrs})
	scale := 1.0 / float64(len(weights))

	for step := 0; step < steps; step++ {
		opt.ZeroGrad()
		if _, _, err := prior.LossGrad(weights, scale); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		opt.Step()
	}
	return nil
}
