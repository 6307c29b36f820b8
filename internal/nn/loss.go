package nn

import (
	"fmt"
	"math"

	"github.com/softshare-ml/softshare/internal/tensor"
)

// CrossEntropy computes mean cross-entropy loss over a batch of logits and
// the gradient of that loss with respect to the logits.
//
// It uses the LogSoftmax + NLL decomposition with the log-sum-exp trick for
// numerical stability, and fuses the backward pass:
//
//	Loss = -log_softmax(logits)[target]                (mean over batch)
//	∂L/∂logits = (softmax(logits) - one_hot(target)) / batch
//
// logits: [batch_size, num_classes]; targets: class indices, one per row.
func CrossEntropy(logits *tensor.Tensor, targets []int) (float32, *tensor.Tensor) {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("CrossEntropy: logits must be 2D, got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if len(targets) != batch {
		panic(fmt.Sprintf("CrossEntropy: %d targets for batch of %d", len(targets), batch))
	}

	grad := tensor.MustNew(shape)
	data := logits.Data()
	gdata := grad.Data()

	var loss float64
	for b := 0; b < batch; b++ {
		row := data[b*classes : (b+1)*classes]
		gRow := gdata[b*classes : (b+1)*classes]

		maxLogit := row[0]
		for _, v := range row[1:] {
			if v > maxLogit {
				maxLogit = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxLogit))
		}
		logSumExp := math.Log(sumExp) + float64(maxLogit)

		t := targets[b]
		if t < 0 || t >= classes {
			panic(fmt.Sprintf("CrossEntropy: target %d out of range [0, %d)", t, classes))
		}
		loss += logSumExp - float64(row[t])

		for c, v := range row {
			p := math.Exp(float64(v)-logSumExp) / float64(batch)
			gRow[c] = float32(p)
		}
		gRow[t] -= 1.0 / float32(batch)
	}

	return float32(loss / float64(batch)), grad
}

// Accuracy returns the fraction of rows whose argmax logit matches the target.
// Ties resolve to the lowest class index.
func Accuracy(logits *tensor.Tensor, targets []int) float64 {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]
	data := logits.Data()

	correct := 0
	for b := 0; b < batch; b++ {
		row := data[b*classes : (b+1)*classes]
		best := 0
		for c := 1; c < classes; c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		if best == targets[b] {
			correct++
		}
	}
	return float64(correct) / float64(batch)
}
