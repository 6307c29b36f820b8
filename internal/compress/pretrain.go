package compress

import (
	"fmt"

	"github.com/softshare-ml/softshare/internal/data"
	"github.com/softshare-ml/softshare/internal/nn"
	"github.com/softshare-ml/softshare/internal/optim"
)

// PretrainConfig controls plain task training before the prior is attached.
type PretrainConfig struct {
	LR        float64 // Learning rate for all network parameters
	Epochs    int
	BatchSize int
	Report    func(EpochStats) // optional
}

// Pretrain trains the model on the task loss alone with Adam.
// This produces the weight distribution the mixture is initialized from.
func Pretrain(model *nn.MLP, train data.Classification, cfg PretrainConfig) error {
	if cfg.Epochs <= 0 || cfg.BatchSize <= 0 {
		return fmt.Errorf("compress: bad pretrain config: epochs=%d batch=%d", cfg.Epochs, cfg.BatchSize)
	}
	n := train.Len()
	if n == 0 {
		return fmt.Errorf("compress: empty training set")
	}

	opt := optim.NewGroupedAdam(model.Parameters(), optim.AdamConfig{
		LRs: optim.GroupLRs{nn.GroupWeights: cfg.LR},
	})

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		var taskLoss float64
		batches := 0
		for start := 0; start < n; start += cfg.BatchSize {
			xb, yb := train.Batch(start, cfg.BatchSize)

			opt.ZeroGrad()
			logits := model.Forward(xb)
			loss, grad := nn.CrossEntropy(logits, yb)
			model.Backward(grad)
			opt.Step()

			taskLoss += float64(loss)
			batches++
		}
		if cfg.Report != nil {
			cfg.Report(EpochStats{Epoch: epoch, TaskLoss: taskLoss / float64(batches)})
		}
	}
	return nil
}
