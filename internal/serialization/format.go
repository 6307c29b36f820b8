// Package serialization implements the .ssq checkpoint format for
// discretized models.
//
// A quantized network stores each weight as a ceil(log2 K)-bit index into
// the mixture codebook instead of a float32, so the on-disk layout is:
//
//	magic "SSQ1" | header length (uint32 LE) | JSON header | payload
//
// The payload holds bit-packed codebook indices for quantized tensors and
// raw little-endian float32 data for pass-through tensors (biases). The
// header records the codebook, per-tensor metadata and a SHA-256 of the
// payload.
package serialization

import "time"

// Format constants.
const (
	Magic         = "SSQ1"
	FormatVersion = 1
)

// Tensor kinds in the payload.
const (
	KindQuantized = "quantized" // bit-packed codebook indices
	KindRaw       = "raw"       // little-endian float32
)

// Header is the JSON header of an .ssq file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	RunID         string            `json:"run_id"`     // UUID of the producing run
	CreatedAt     time.Time         `json:"created_at"`
	Codebook      []float64         `json:"codebook"` // Component means, index 0 is the zero spike
	PiZero        float64           `json:"pi_zero"`
	IndexBits     int               `json:"index_bits"`
	Tensors       []TensorMeta      `json:"tensors"`
	PayloadSHA256 string            `json:"payload_sha256"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the payload.
type TensorMeta struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Layer  int    `json:"layer"` // Layer index, for regrouping weight/bias pairs
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // Bytes from the start of the payload
	Size   int64  `json:"size"`   // Bytes
}
