package models

import (
	"fmt"
	"math"
)

// KVCache is an ordered sequence of token vectors produced by an upstream
// language model: one fixed-length vector of features per token position.
// A cache is never mutated in place; every transformation returns a new one.
type KVCache [][]float64

// Tokens returns the number of token positions in the cache.
func (c KVCache) Tokens() int {
	return len(c)
}

// Dims returns the feature dimension of the cache, or 0 for an empty cache.
func (c KVCache) Dims() int {
	if len(c) == 0 {
		return 0
	}
	return len(c[0])
}

// Validate checks that the cache is a rectangular matrix.
func (c KVCache) Validate() error {
	if len(c) == 0 {
		return nil
	}
	dims := len(c[0])
	for i, token := range c {
		if len(token) != dims {
			return fmt.Errorf("%w: token %d has %d dims, expected %d",
				ErrInvalidParameter, i, len(token), dims)
		}
	}
	return nil
}

// Clone returns a deep copy of the cache.
func (c KVCache) Clone() KVCache {
	if c == nil {
		return nil
	}
	out := make(KVCache, len(c))
	for i, token := range c {
		out[i] = make([]float64, len(token))
		copy(out[i], token)
	}
	return out
}

// CompressionResult reports the size change produced by a compression run.
// It is derived from token counts only and recomputed per call.
type CompressionResult struct {
	OriginalSize    int     `json:"original_size"`
	CompressedSize  int     `json:"compressed_size"`
	Ratio           float64 `json:"compression_ratio"`
	SpaceSavings    float64 `json:"space_savings"`
	ReductionFactor float64 `json:"reduction_factor"`
}

// NewCompressionResult computes statistics for a size change.
// ReductionFactor is +Inf when the compressed cache is empty.
func NewCompressionResult(originalSize, compressedSize int) CompressionResult {
	result := CompressionResult{
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
	}

	if originalSize > 0 {
		result.Ratio = float64(compressedSize) / float64(originalSize)
	}
	result.SpaceSavings = 1 - result.Ratio

	if compressedSize > 0 {
		result.ReductionFactor = float64(originalSize) / float64(compressedSize)
	} else {
		result.ReductionFactor = math.Inf(1)
	}

	return result
}
