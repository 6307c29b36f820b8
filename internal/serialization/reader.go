package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/softshare-ml/softshare/internal/quantize"
	"github.com/softshare-ml/softshare/internal/tensor"
)

// Reader errors.
var (
	ErrBadMagic = errors.New("serialization: not an .ssq file")
	ErrChecksum = errors.New("serialization: payload checksum mismatch")
)

// ReadQuantized reads an .ssq checkpoint, reconstructing dense float32
// tensors from the codebook and packed indices.
func ReadQuantized(path string) ([]quantize.LayerWeights, Header, error) {
	var header Header

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, header, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if len(raw) < len(Magic)+4 || string(raw[:len(Magic)]) != Magic {
		return nil, header, ErrBadMagic
	}
	headerLen := binary.LittleEndian.Uint32(raw[len(Magic) : len(Magic)+4])
	headerStart := len(Magic) + 4
	if headerStart+int(headerLen) > len(raw) {
		return nil, header, fmt.Errorf("serialization: truncated header (%d bytes declared)", headerLen)
	}
	if err := json.Unmarshal(raw[headerStart:headerStart+int(headerLen)], &header); err != nil {
		return nil, header, fmt.Errorf("failed to parse header: %w", err)
	}
	if header.FormatVersion != FormatVersion {
		return nil, header, fmt.Errorf("serialization: unsupported format version %d", header.FormatVersion)
	}

	payload := raw[headerStart+int(headerLen):]
	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != header.PayloadSHA256 {
		return nil, header, ErrChecksum
	}

	layers := make(map[int]*quantize.LayerWeights)
	maxLayer := -1
	for _, meta := range header.Tensors {
		if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(payload)) {
			return nil, header, fmt.Errorf("serialization: tensor %q out of payload bounds", meta.Name)
		}
		data := payload[meta.Offset : meta.Offset+meta.Size]

		t, err := decodeTensor(meta, data, header)
		if err != nil {
			return nil, header, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}

		lw := layers[meta.Layer]
		if lw == nil {
			lw = &quantize.LayerWeights{}
			layers[meta.Layer] = lw
		}
		switch meta.Kind {
		case KindQuantized:
			lw.Weight = t
		case KindRaw:
			lw.Bias = t
		default:
			return nil, header, fmt.Errorf("serialization: tensor %q has unknown kind %q", meta.Name, meta.Kind)
		}
		if meta.Layer > maxLayer {
			maxLayer = meta.Layer
		}
	}

	out := make([]quantize.LayerWeights, maxLayer+1)
	for i := range out {
		lw := layers[i]
		if lw == nil || lw.Weight == nil {
			return nil, header, fmt.Errorf("serialization: layer %d has no weight tensor", i)
		}
		out[i] = *lw
	}
	return out, header, nil
}

func decodeTensor(meta TensorMeta, data []byte, header Header) (*tensor.Tensor, error) {
	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("bad shape: %w", err)
	}
	n := shape.NumElements()

	switch meta.Kind {
	case KindQuantized:
		if want := int64((n*header.IndexBits + 7) / 8); meta.Size != want {
			return nil, fmt.Errorf("packed size %d, want %d", meta.Size, want)
		}
		t := tensor.MustNew(shape)
		dst := t.Data()
		for i := 0; i < n; i++ {
			idx := unpackIndex(data, i, header.IndexBits)
			if idx >= len(header.Codebook) {
				return nil, fmt.Errorf("index %d exceeds codebook size %d", idx, len(header.Codebook))
			}
			dst[i] = float32(header.Codebook[idx])
		}
		return t, nil

	case KindRaw:
		if want := int64(4 * n); meta.Size != want {
			return nil, fmt.Errorf("raw size %d, want %d", meta.Size, want)
		}
		t := tensor.MustNew(shape)
		dst := t.Data()
		for i := 0; i < n; i++ {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}
		return t, nil

	default:
		return nil, fmt.Errorf("unknown kind %q", meta.Kind)
	}
}

// unpackIndex reads the i-th bits-wide index from LSB-first packed data.
func unpackIndex(data []byte, i, bits int) int {
	idx := 0
	pos := i * bits
	for b := 0; b < bits; b++ {
		if data[(pos+b)/8]&(1<<((pos+b)%8)) != 0 {
			idx |= 1 << b
		}
	}
	return idx
}
