// Package main provides the softshare CLI: a demonstration pipeline that
// pretrains a small MLP, retrains it under the Gaussian-mixture prior,
// discretizes the weights and reports the sparsity/accuracy trade-off.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/softshare-ml/softshare/internal/compress"
	"github.com/softshare-ml/softshare/internal/data"
	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/nn"
	"github.com/softshare-ml/softshare/internal/optim"
	"github.com/softshare-ml/softshare/internal/serialization"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("softshare %s\n", version)
		return
	}

	var (
		k            = flag.Int("k", 16, "mixture components, including the zero spike")
		piZero       = flag.Float64("pi-zero", 0.99, "fixed mixing proportion of the zero component")
		targetVar    = flag.Float64("target-var", 0.02, "hyper-prior target variance")
		tau          = flag.Float64("tau", 0.005, "prior regularization strength")
		pretrainEp   = flag.Int("pretrain-epochs", 30, "pretraining epochs")
		retrainEp    = flag.Int("retrain-epochs", 50, "retraining epochs under the prior")
		batch        = flag.Int("batch", 64, "mini-batch size")
		examples     = flag.Int("n", 4000, "synthetic examples to generate")
		dim          = flag.Int("dim", 32, "input dimension")
		hidden       = flag.Int("hidden", 48, "hidden layer width")
		seed         = flag.Int64("seed", 42, "random seed")
		checkpointTo = flag.String("o", "", "write quantized checkpoint to this path (.ssq)")
	)
	flag.Parse()

	if err := run(pipelineConfig{
		k: *k, piZero: *piZero, targetVar: *targetVar, tau: *tau,
		pretrainEpochs: *pretrainEp, retrainEpochs: *retrainEp,
		batch: *batch, examples: *examples, dim: *dim, hidden: *hidden,
		seed: *seed, checkpointTo: *checkpointTo,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "softshare: %v\n", err)
		os.Exit(1)
	}
}

type pipelineConfig struct {
	k                             int
	piZero, targetVar, tau        float64
	pretrainEpochs, retrainEpochs int
	batch, examples, dim, hidden  int
	seed                          int64
	checkpointTo                  string
}

func run(cfg pipelineConfig) error {
	rng := rand.New(rand.NewSource(cfg.seed))

	ds := data.TwoBlobs(cfg.examples, cfg.dim, 4.0, uint64(cfg.seed))
	train, test := ds.Split(0.8)
	fmt.Printf("dataset: %d train / %d test, dim=%d\n", train.Len(), test.Len(), cfg.dim)

	model := nn.NewMLP([]int{cfg.dim, cfg.hidden, 2}, rng)

	// Phase 1: task-only pretraining.
	err := compress.Pretrain(model, train, compress.PretrainConfig{
		LR: 1e-3, Epochs: cfg.pretrainEpochs, BatchSize: cfg.batch,
		Report: func(s compress.EpochStats) {
			if s.Epoch%10 == 0 {
				fmt.Printf("pretrain epoch %3d  task=%.4f\n", s.Epoch, s.TaskLoss)
			}
		},
	})
	if err != nil {
		return err
	}
	_, preAcc := compress.Evaluate(model, test)
	fmt.Printf("pretrained accuracy: %.2f%%\n", 100*preAcc)

	// Phase 2: attach the prior and retrain jointly.
	p, err := mixture.New(mixture.Config{
		K:              cfg.k,
		PiZero:         cfg.piZero,
		TargetVariance: cfg.targetVar,
		Confidence:     10,
		ZeroConfidence: 5000,
	}, nn.FlattenValues(model.WeightParameters()))
	if err != nil {
		return err
	}

	trainer, err := compress.NewTrainer(model, p, compress.Config{
		Tau:       cfg.tau,
		Epochs:    cfg.retrainEpochs,
		BatchSize: cfg.batch,
		LRs: optim.GroupLRs{
			nn.GroupWeights: 1e-3,
			nn.GroupMeans:   1e-4,
			nn.GroupLogVars: 3e-4,
			nn.GroupLogits:  3e-4,
		},
		Report: func(s compress.EpochStats) {
			if s.Epoch%10 == 0 {
				fmt.Printf("retrain epoch %3d  task=%.4f  prior=%.4f\n",
					s.Epoch, s.TaskLoss, s.PriorLoss)
			}
		},
	})
	if err != nil {
		return err
	}
	if err := trainer.Run(train); err != nil {
		return err
	}
	_, retrainAcc := compress.Evaluate(model, test)
	fmt.Printf("retrained accuracy:  %.2f%%\n", 100*retrainAcc)

	// Phase 3: discretize and evaluate the quantized network.
	snap := p.Snapshot()
	layers, report := compress.DiscretizeNetwork(model, snap)
	if err := compress.InstallWeights(model, layers); err != nil {
		return err
	}
	_, quantAcc := compress.Evaluate(model, test)

	fmt.Printf("quantized accuracy:  %.2f%%\n", 100*quantAcc)
	fmt.Printf("non-zero weights:    %.1f%% (%d of %d)\n",
		100*report.NonZeroFraction(), report.NonZero, report.TotalWeights)
	fmt.Printf("distinct values:     %d (%d-bit indices, ~%.1fx smaller)\n",
		report.DistinctValues, report.IndexBits, report.CompressionFactor)

	if cfg.checkpointTo != "" {
		meta := map[string]string{"dataset": "two-blobs", "arch": fmt.Sprintf("%d-%d-2", cfg.dim, cfg.hidden)}
		if err := serialization.WriteQuantized(cfg.checkpointTo, layers, snap, meta); err != nil {
			return err
		}
		fmt.Printf("quantized checkpoint written to %s\n", cfg.checkpointTo)
	}
	return nil
}
