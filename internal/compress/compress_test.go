package compress

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softshare-ml/softshare/internal/data"
	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/nn"
	"github.com/softshare-ml/softshare/internal/optim"
)

func TestNewTrainerRejectsMismatchedPrior(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	model := nn.NewMLP([]int{4, 3, 2}, rng)

	p, err := mixture.New(mixture.Config{
		K: 4, PiZero: 0.9, TargetVariance: 0.02, Confidence: 10, ZeroConfidence: 100,
	}, make([]float32, 7)) // wrong size on purpose
	require.NoError(t, err)

	_, err = NewTrainer(model, p, Config{
		Tau: 0.01, Epochs: 1, BatchSize: 8,
		LRs: optim.GroupLRs{nn.GroupWeights: 1e-3},
	})
	assert.ErrorIs(t, err, ErrWeightMismatch)
}

func TestFitVectorRecoversTwoClusters(t *testing.T) {
	// 90% of mass near 0, 10% near 5, well separated.
	weights := data.ScalarMixture(4000, 0.9, 5.0, 0.25, 0.25, 11)

	p, err := mixture.New(mixture.Config{
		K:              2,
		PiZero:         0.9,
		TargetVariance: 0.05,
		Confidence:     10,
		ZeroConfidence: 100,
	}, weights)
	require.NoError(t, err)

	err = FitVector(p, weights, 1500, optim.GroupLRs{
		nn.GroupMeans:   5e-2,
		nn.GroupLogVars: 1e-2,
		nn.GroupLogits:  1e-2,
	})
	require.NoError(t, err)

	m := p.Snapshot()
	assert.InDelta(t, 5.0, m.Means[1], 0.5, "second cluster mean")

	// At least 85% of the near-zero samples must land on the zero spike.
	nearZero, assignedZero := 0, 0
	for _, w := range weights {
		if math.Abs(float64(w)) < 1.0 {
			nearZero++
			if m.Assign(float64(w)) == 0 {
				assignedZero++
			}
		}
	}
	require.Greater(t, nearZero, 0)
	frac := float64(assignedZero) / float64(nearZero)
	assert.GreaterOrEqual(t, frac, 0.85, "zero-spike capture rate")
}

func TestPretrainReducesLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	ds := data.TwoBlobs(600, 8, 5.0, 5)
	model := nn.NewMLP([]int{8, 16, 2}, rng)

	before, _ := Evaluate(model, ds)
	var last EpochStats
	err := Pretrain(model, ds, PretrainConfig{
		LR: 1e-3, Epochs: 20, BatchSize: 32,
		Report: func(s EpochStats) { last = s },
	})
	require.NoError(t, err)

	assert.Less(t, last.TaskLoss, before)
	_, acc := Evaluate(model, ds)
	assert.Greater(t, acc, 0.9)
}

// End-to-end soft weight-sharing: pretrain, retrain under the prior with
// pi_zero=0.99 and K=16, discretize. Pruning must remove well over half the
// weights while held-out accuracy stays within tolerance.
func TestCompressionPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("full compression pipeline")
	}

	rng := rand.New(rand.NewSource(42))
	ds := data.TwoBlobs(2000, 16, 5.0, 42)
	train, test := ds.Split(0.8)

	model := nn.NewMLP([]int{16, 32, 2}, rng)
	require.NoError(t, Pretrain(model, train, PretrainConfig{
		LR: 1e-3, Epochs: 30, BatchSize: 64,
	}))
	_, preAcc := Evaluate(model, test)
	require.Greater(t, preAcc, 0.93, "pretraining must work before compression is meaningful")

	p, err := mixture.New(mixture.Config{
		K:              16,
		PiZero:         0.99,
		TargetVariance: 0.02,
		Confidence:     10,
		ZeroConfidence: 5000,
	}, nn.FlattenValues(model.WeightParameters()))
	require.NoError(t, err)

	trainer, err := NewTrainer(model, p, Config{
		Tau:       0.005,
		Epochs:    60,
		BatchSize: 64,
		LRs: optim.GroupLRs{
			nn.GroupWeights: 1e-3,
			nn.GroupMeans:   1e-4,
			nn.GroupLogVars: 3e-4,
			nn.GroupLogits:  3e-4,
		},
	})
	require.NoError(t, err)
	require.NoError(t, trainer.Run(train))

	snap := p.Snapshot()
	layers, report := DiscretizeNetwork(model, snap)
	require.NoError(t, InstallWeights(model, layers))
	_, quantAcc := Evaluate(model, test)

	assert.Less(t, report.NonZeroFraction(), 0.5, "pruning must fire")
	assert.GreaterOrEqual(t, quantAcc, preAcc-0.02, "accuracy must survive discretization")
	assert.Equal(t, 4, report.IndexBits)
}

func TestDiscretizeNetworkLeavesModelUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	model := nn.NewMLP([]int{4, 4, 2}, rng)
	flat := nn.FlattenValues(model.WeightParameters())

	p, err := mixture.New(mixture.Config{
		K: 4, PiZero: 0.9, TargetVariance: 0.02, Confidence: 10, ZeroConfidence: 100,
	}, flat)
	require.NoError(t, err)

	_, _ = DiscretizeNetwork(model, p.Snapshot())
	assert.Equal(t, flat, nn.FlattenValues(model.WeightParameters()))
}
