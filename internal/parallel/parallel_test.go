package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Positive(t, cfg.NumWorkers)
	assert.Positive(t, cfg.MinChunkSize)
}

func TestForVisitsEveryIndexOnce(t *testing.T) {
	configs := []Config{
		{Enabled: false},
		{Enabled: true, NumWorkers: 1, MinChunkSize: 1},
		{Enabled: true, NumWorkers: 4, MinChunkSize: 8},
		{Enabled: true, NumWorkers: 16, MinChunkSize: 1},
	}
	for _, cfg := range configs {
		const n = 1000
		counts := make([]int32, n)
		For(n, func(i int) {
			atomic.AddInt32(&counts[i], 1)
		}, cfg)
		for i, c := range counts {
			if c != 1 {
				t.Fatalf("cfg=%+v: index %d visited %d times", cfg, i, c)
			}
		}
	}
}

func TestForZeroItems(t *testing.T) {
	called := false
	For(0, func(int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestForChunksCoverDisjointRanges(t *testing.T) {
	const n = 500
	counts := make([]int32, n)
	ForChunks(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&counts[i], 1)
		}
	}, Config{Enabled: true, NumWorkers: 3, MinChunkSize: 16})
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d covered %d times", i, c)
		}
	}
}
