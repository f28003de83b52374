// Package compression implements the two KV-cache reduction primitives:
// frequency-domain filtering (FrequencyCompressor) and sliding-window
// fusion (ConvolutionalFuser). Both are pure, CPU-bound functions with
// no shared state; independent calls may run fully in parallel.
package compression

import (
	"fmt"
	"math"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
)

// FrequencyCompressor removes high-frequency components of a token
// sequence using an orthonormal DCT-II / DCT-III pair applied along the
// token axis, independently per feature dimension. A configurable prefix
// of sink tokens passes through untouched.
type FrequencyCompressor struct{}

// NewFrequencyCompressor creates a frequency compressor.
func NewFrequencyCompressor() *FrequencyCompressor {
	return &FrequencyCompressor{}
}

// Compress splits the cache into a preserved sink prefix and a body,
// transforms the body to the frequency domain, keeps the leading
// round(len(body)*keepRatio) coefficients as a block, and reconstructs a
// body of exactly that many tokens. keepRatio = 1.0 round-trips the body
// up to floating-point error.
//
// A cache no longer than sinkTokens is returned unchanged; that is a
// documented no-op, not an error.
func (c *FrequencyCompressor) Compress(cache models.KVCache, sinkTokens int, keepRatio float64) (models.KVCache, error) {
	if sinkTokens < 0 {
		return nil, fmt.Errorf("%w: sink_tokens must be >= 0, got %d", models.ErrInvalidParameter, sinkTokens)
	}
	if keepRatio <= 0 || keepRatio > 1 {
		return nil, fmt.Errorf("%w: keep_ratio must be in (0, 1], got %g", models.ErrInvalidParameter, keepRatio)
	}
	if err := cache.Validate(); err != nil {
		return nil, err
	}

	if cache.Tokens() <= sinkTokens {
		return cache.Clone(), nil
	}

	sink := cache[:sinkTokens].Clone()
	body := cache[sinkTokens:]

	n := body.Tokens()
	keep := int(math.Round(float64(n) * keepRatio))

	compressed := reconstruct(forwardDCT(body, keep), n)

	return append(sink, compressed...), nil
}

// forwardDCT computes the first keep DCT-II coefficients of body along
// the token axis, with orthonormal scaling. Coefficients beyond keep
// would be zeroed anyway, so they are never computed.
func forwardDCT(body models.KVCache, keep int) models.KVCache {
	n := body.Tokens()
	dims := body.Dims()

	coeffs := make(models.KVCache, keep)
	for k := 0; k < keep; k++ {
		scale := math.Sqrt(2 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1 / float64(n))
		}

		row := make([]float64, dims)
		for i := 0; i < n; i++ {
			basis := math.Cos(math.Pi * (2*float64(i) + 1) * float64(k) / (2 * float64(n)))
			for d := 0; d < dims; d++ {
				row[d] += body[i][d] * basis
			}
		}
		for d := 0; d < dims; d++ {
			row[d] *= scale
		}
		coeffs[k] = row
	}
	return coeffs
}

// reconstruct applies the matching orthonormal DCT-III inverse to the
// retained coefficient block, evaluated at the first len(coeffs) sample
// positions of the original body length n. Output length equals the
// number of coefficients kept.
func reconstruct(coeffs models.KVCache, n int) models.KVCache {
	keep := coeffs.Tokens()
	dims := coeffs.Dims()

	out := make(models.KVCache, keep)
	for i := 0; i < keep; i++ {
		row := make([]float64, dims)
		for k := 0; k < keep; k++ {
			scale := math.Sqrt(2 / float64(n))
			if k == 0 {
				scale = math.Sqrt(1 / float64(n))
			}
			basis := math.Cos(math.Pi * (2*float64(i) + 1) * float64(k) / (2 * float64(n)))
			for d := 0; d < dims; d++ {
				row[d] += scale * coeffs[k][d] * basis
			}
		}
		out[i] = row
	}
	return out
}
