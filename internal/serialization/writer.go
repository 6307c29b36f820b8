package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/quantize"
)

// WriteQuantized writes a discretized network to path.
//
// Every weight value must equal one of the snapshot's component means (i.e.
// the layers must come out of quantize.Discretize with the same snapshot);
// a value outside the codebook is an error, not something to round over
// silently.
func WriteQuantized(path string, layers []quantize.LayerWeights, model mixture.Model, metadata map[string]string) error {
	bits := indexBitsFor(model.K())

	// float32 codebook for exact value->index lookup: discretized tensors
	// hold float32(model.Means[k]) verbatim.
	lookup := make(map[float32]int, model.K())
	for k, m := range model.Means {
		lookup[float32(m)] = k
	}

	var payload bytes.Buffer
	header := Header{
		FormatVersion: FormatVersion,
		RunID:         uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Codebook:      append([]float64(nil), model.Means...),
		PiZero:        model.PiZero,
		IndexBits:     bits,
		Metadata:      metadata,
	}

	for li, layer := range layers {
		offset := int64(payload.Len())
		indices, err := tensorIndices(layer.Weight.Data(), lookup)
		if err != nil {
			return fmt.Errorf("layer %d: %w", li, err)
		}
		packed := packIndices(indices, bits)
		payload.Write(packed)

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   fmt.Sprintf("layers.%d.weight", li),
			Kind:   KindQuantized,
			Layer:  li,
			Shape:  layer.Weight.Shape(),
			Offset: offset,
			Size:   int64(len(packed)),
		})

		if layer.Bias != nil {
			offset = int64(payload.Len())
			for _, v := range layer.Bias.Data() {
				var buf [4]byte
				binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
				payload.Write(buf[:])
			}
			header.Tensors = append(header.Tensors, TensorMeta{
				Name:   fmt.Sprintf("layers.%d.bias", li),
				Kind:   KindRaw,
				Layer:  li,
				Shape:  layer.Bias.Shape(),
				Offset: offset,
				Size:   int64(4 * layer.Bias.NumElements()),
			})
		}
	}

	sum := sha256.Sum256(payload.Bytes())
	header.PayloadSHA256 = hex.EncodeToString(sum[:])

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(Magic)
	if err := binary.Write(&out, binary.LittleEndian, uint32(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header length: %w", err)
	}
	out.Write(headerJSON)
	out.Write(payload.Bytes())

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// tensorIndices maps each weight value to its codebook index.
func tensorIndices(data []float32, lookup map[float32]int) ([]int, error) {
	indices := make([]int, len(data))
	for i, v := range data {
		k, ok := lookup[v]
		if !ok {
			return nil, fmt.Errorf("weight %g is not a codebook value; discretize before saving", v)
		}
		indices[i] = k
	}
	return indices, nil
}

// packIndices bit-packs indices LSB-first, bits per index.
func packIndices(indices []int, bits int) []byte {
	out := make([]byte, (len(indices)*bits+7)/8)
	pos := 0
	for _, idx := range indices {
		for b := 0; b < bits; b++ {
			if idx&(1<<b) != 0 {
				out[pos/8] |= 1 << (pos % 8)
			}
			pos++
		}
	}
	return out
}

// indexBitsFor returns ceil(log2 k).
func indexBitsFor(k int) int {
	bits := 0
	for 1<<bits < k {
		bits++
	}
	return bits
}
