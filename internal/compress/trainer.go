// Package compress orchestrates the soft weight-sharing pipeline: pretrain a
// network on its task, retrain it jointly with the Gaussian-mixture prior,
// then hand the result to discretization.
package compress

import (
	"errors"
	"fmt"

	"github.com/softshare-ml/softshare/internal/data"
	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/nn"
	"github.com/softshare-ml/softshare/internal/optim"
)

// ErrWeightMismatch reports a prior attached to a different weight count
// than the model provides.
var ErrWeightMismatch = errors.New("compress: prior and model weight counts differ")

// EpochStats is passed to the Report callback after every epoch.
type EpochStats struct {
	Epoch     int           // 1-based epoch number
	TaskLoss  float64       // Mean task loss over the epoch's batches
	PriorLoss float64       // Prior loss (tau/N scaled) at epoch end
	Mixture   mixture.Model // Mixture snapshot at epoch end (zero during pretraining)
}

// Config controls the joint retraining loop.
type Config struct {
	// Tau is the regularization strength; the prior loss enters the
	// objective weighted by Tau/N for a training set of N examples.
	Tau float64

	// Epochs is the number of passes over the training set.
	Epochs int

	// BatchSize is the mini-batch size.
	BatchSize int

	// LRs are the per-group learning rates for the grouped optimizer.
	LRs optim.GroupLRs

	// Report, when non-nil, is called once per epoch.
	Report func(EpochStats)
}

// Trainer runs joint gradient steps on (network weights, mixture parameters)
// under combined task loss + scaled prior loss.
type Trainer struct {
	model *nn.MLP
	prior *mixture.GaussianMixturePrior
	opt   *optim.GroupedAdam
	cfg   Config

	weightParams []*nn.Parameter // non-bias weights, prior's view of the model
}

// NewTrainer wires a model and an attached prior into a retraining loop.
// The prior must have been created from this model's flattened weights.
func NewTrainer(model *nn.MLP, prior *mixture.GaussianMixturePrior, cfg Config) (*Trainer, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("compress: Epochs=%d (must be > 0)", cfg.Epochs)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("compress: BatchSize=%d (must be > 0)", cfg.BatchSize)
	}
	weightParams := model.WeightParameters()
	if n := nn.FlattenLen(weightParams); n != prior.NumWeights() {
		return nil, fmt.Errorf("%w: model has %d, prior attached with %d",
			ErrWeightMismatch, n, prior.NumWeights())
	}

	params := append(model.Parameters(), prior.Parameters()...)
	return &Trainer{
		model:        model,
		prior:        prior,
		opt:          optim.NewGroupedAdam(params, optim.AdamConfig{LRs: cfg.LRs}),
		cfg:          cfg,
		weightParams: weightParams,
	}, nil
}

// Run executes the configured number of retraining epochs.
//
// Each step computes one joint gradient: task backward through the network,
// prior loss/gradients over the flattened weights (scaled by Tau/N), then a
// single grouped optimizer step. A non-finite prior loss aborts the run.
func (t *Trainer) Run(train data.Classification) error {
	n := train.Len()
	if n == 0 {
		return fmt.Errorf("compress: empty training set")
	}
	scale := t.cfg.Tau / float64(n)

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		var taskLoss float64
		batches := 0

		for start := 0; start < n; start += t.cfg.BatchSize {
			xb, yb := train.Batch(start, t.cfg.BatchSize)

			t.opt.ZeroGrad()

			logits := t.model.Forward(xb)
			loss, grad := nn.CrossEntropy(logits, yb)
			t.model.Backward(grad)

			flat := nn.FlattenValues(t.weightParams)
			_, wGrad, err := t.prior.LossGrad(flat, scale)
			if err != nil {
				return fmt.Errorf("epoch %d: %w", epoch, err)
			}
			if err := nn.AddFlatGrad(t.weightParams, wGrad); err != nil {
				return fmt.Errorf("epoch %d: %w", epoch, err)
			}

			t.opt.Step()

			taskLoss += float64(loss)
			batches++
		}

		if t.cfg.Report != nil {
			flat := nn.FlattenValues(t.weightParams)
			priorLoss, err := t.prior.Loss(flat)
			if err != nil {
				return fmt.Errorf("epoch %d: %w", epoch, err)
			}
			t.cfg.Report(EpochStats{
				Epoch:     epoch,
				TaskLoss:  taskLoss / float64(batches),
				PriorLoss: scale * priorLoss,
				Mixture:   t.prior.Snapshot(),
			})
		}
	}
	return nil
}

// Prior returns the attached prior.
func (t *Trainer) Prior() *mixture.GaussianMixturePrior {
	return t.prior
}
