package compress

import (
	"fmt"

	"github.com/softshare-ml/softshare/internal/data"
	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/nn"
	"github.com/softshare-ml/softshare/internal/quantize"
)

// Evaluate runs the model over the whole dataset and returns mean task loss
// and accuracy.
func Evaluate(model *nn.MLP, ds data.Classification) (float64, float64) {
	logits := model.Forward(ds.X)
	loss, _ := nn.CrossEntropy(logits, ds.Y)
	return float64(loss), nn.Accuracy(logits, ds.Y)
}

// DiscretizeNetwork discretizes the model's layers under a mixture snapshot,
// returning the quantized copies and the report. The model is not modified.
func DiscretizeNetwork(model *nn.MLP, snap mixture.Model) ([]quantize.LayerWeights, quantize.Report) {
	layers := model.Layers()
	in := make([]quantize.LayerWeights, len(layers))
	for i, l := range layers {
		in[i] = quantize.LayerWeights{
			Weight: l.Weight().Tensor(),
			Bias:   l.Bias().Tensor(),
		}
	}
	return quantize.Discretize(in, snap)
}

// InstallWeights writes the given layer values into the model's parameters.
// Shapes must match layer for layer.
func InstallWeights(model *nn.MLP, layers []quantize.LayerWeights) error {
	mls := model.Layers()
	if len(layers) != len(mls) {
		return fmt.Errorf("compress: %d layer weight sets for %d layers", len(layers), len(mls))
	}
	for i, l := range mls {
		w := l.Weight().Tensor()
		if !w.Shape().Equal(layers[i].Weight.Shape()) {
			return fmt.Errorf("compress: layer %d weight shape %v, want %v",
				i, layers[i].Weight.Shape(), w.Shape())
		}
		copy(w.Data(), layers[i].Weight.Data())
		if layers[i].Bias != nil {
			b := l.Bias().Tensor()
			if !b.Shape().Equal(layers[i].Bias.Shape()) {
				return fmt.Errorf("compress: layer %d bias shape %v, want %v",
					i, layers[i].Bias.Shape(), b.Shape())
			}
			copy(b.Data(), layers[i].Bias.Data())
		}
	}
	return nil
}
