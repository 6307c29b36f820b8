package serialization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softshare-ml/softshare/internal/mixture"
	"github.com/softshare-ml/softshare/internal/quantize"
	"github.com/softshare-ml/softshare/internal/tensor"
)

func testModel() mixture.Model {
	return mixture.Model{
		Means:       []float64{0, -0.75, 0.5, 1.25},
		Variances:   []float64{0.01, 0.01, 0.01, 0.01},
		Proportions: []float64{0.85, 0.05, 0.05, 0.05},
		PiZero:      0.85,
	}
}

func discretizedLayers(t *testing.T) []quantize.LayerWeights {
	t.Helper()
	w, err := tensor.FromSlice([]float32{0.1, -0.7, 0.55, 1.3, 0, -0.8}, tensor.Shape{3, 2})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{0.25, -0.5, 0.125}, tensor.Shape{3})
	require.NoError(t, err)

	out, _ := quantize.Discretize([]quantize.LayerWeights{{Weight: w, Bias: b}}, testModel())
	return out
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ssq")
	layers := discretizedLayers(t)
	model := testModel()

	meta := map[string]string{"arch": "2-3"}
	require.NoError(t, WriteQuantized(path, layers, model, meta))

	got, header, err := ReadQuantized(path)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, layers[0].Weight.Data(), got[0].Weight.Data())
	assert.Equal(t, layers[0].Weight.Shape(), got[0].Weight.Shape())
	assert.Equal(t, layers[0].Bias.Data(), got[0].Bias.Data())

	assert.Equal(t, FormatVersion, header.FormatVersion)
	assert.Equal(t, model.Means, header.Codebook)
	assert.Equal(t, model.PiZero, header.PiZero)
	assert.Equal(t, 2, header.IndexBits)
	assert.Equal(t, "2-3", header.Metadata["arch"])

	_, err = uuid.Parse(header.RunID)
	assert.NoError(t, err, "run ID must be a valid UUID")
}

func TestWriteRejectsNonCodebookValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ssq")
	w, err := tensor.FromSlice([]float32{0.123}, tensor.Shape{1})
	require.NoError(t, err)

	err = WriteQuantized(path, []quantize.LayerWeights{{Weight: w}}, testModel(), nil)
	assert.ErrorContains(t, err, "codebook")
}

func TestReadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.ssq")
	require.NoError(t, os.WriteFile(path, []byte("NOPE----"), 0o644))

	_, _, err := ReadQuantized(path)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestReadDetectsPayloadCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ssq")
	require.NoError(t, WriteQuantized(path, discretizedLayers(t), testModel(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF // flip bits in the payload tail
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, _, err = ReadQuantized(path)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestPackUnpackIndices(t *testing.T) {
	indices := []int{0, 3, 2, 1, 3, 0, 1, 2, 3}
	for _, bits := range []int{2, 3, 4} {
		packed := packIndices(indices, bits)
		assert.Len(t, packed, (len(indices)*bits+7)/8)
		for i, want := range indices {
			assert.Equal(t, want, unpackIndex(packed, i, bits), "bits=%d index=%d", bits, i)
		}
	}
}
