package compression

import (
	"fmt"
	"math"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
)

// ConvolutionalFuser reduces a token sequence of arbitrary length to a
// fixed output length by sliding-window weighted fusion. The fixed-size
// guarantee is the component's defining property: downstream consumers
// use it to bound memory.
type ConvolutionalFuser struct{}

// NewConvolutionalFuser creates a convolutional fuser.
func NewConvolutionalFuser() *ConvolutionalFuser {
	return &ConvolutionalFuser{}
}

// Fuse produces exactly outputLength tokens whenever the input is longer
// than outputLength. Each output token is a uniform weighted average of a
// window of kernelWidth adjacent input tokens; window centers are evenly
// spaced so the first and last outputs anchor near the input's start and
// end. Windows are clamped at the boundaries, never padded, and weights
// are renormalized over the tokens actually included.
//
// Degenerate case: an input of outputLength tokens or fewer is returned
// unchanged (the result may be shorter than requested; no tokens are
// fabricated).
func (f *ConvolutionalFuser) Fuse(cache models.KVCache, outputLength, kernelWidth int) (models.KVCache, error) {
	if outputLength < 1 {
		return nil, fmt.Errorf("%w: output_length must be >= 1, got %d", models.ErrInvalidParameter, outputLength)
	}
	if kernelWidth < 1 {
		return nil, fmt.Errorf("%w: kernel_width must be >= 1, got %d", models.ErrInvalidParameter, kernelWidth)
	}
	if err := cache.Validate(); err != nil {
		return nil, err
	}

	n := cache.Tokens()
	if n <= outputLength {
		return cache.Clone(), nil
	}

	dims := cache.Dims()
	out := make(models.KVCache, outputLength)

	for i := 0; i < outputLength; i++ {
		center := windowCenter(i, outputLength, n)

		start := center - kernelWidth/2
		end := start + kernelWidth
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}

		// Uniform kernel normalized over the clamped window, so every
		// output token is a true weighted average.
		weight := 1 / float64(end-start)

		row := make([]float64, dims)
		for j := start; j < end; j++ {
			for d := 0; d < dims; d++ {
				row[d] += cache[j][d] * weight
			}
		}
		out[i] = row
	}

	return out, nil
}

// windowCenter spaces output slot i evenly across an input of n tokens,
// anchoring the first slot at position 0 and the last at n-1.
func windowCenter(i, outputLength, n int) int {
	if outputLength == 1 {
		return (n - 1) / 2
	}
	pos := float64(i) * float64(n-1) / float64(outputLength-1)
	return int(math.Round(pos))
}
