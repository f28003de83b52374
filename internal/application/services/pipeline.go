// Package services composes the domain primitives into the operations
// exposed to the serving layer: the two-stage compression pipeline and
// the complexity-routing engine.
package services

import (
	"fmt"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	"github.com/anthonylubrino/globalmcp/internal/domain/services/compression"
)

// CompressionPipeline runs frequency compression followed by
// convolutional fusion and reports size statistics for the whole run.
type CompressionPipeline struct {
	compressor *compression.FrequencyCompressor
	fuser      *compression.ConvolutionalFuser
}

// NewCompressionPipeline creates a pipeline over fresh stage instances.
func NewCompressionPipeline() *CompressionPipeline {
	return &CompressionPipeline{
		compressor: compression.NewFrequencyCompressor(),
		fuser:      compression.NewConvolutionalFuser(),
	}
}

// Run applies FrequencyCompressor then ConvolutionalFuser and computes
// statistics from the token counts before and after the entire pipeline,
// not per stage. Parameters are validated up front; any violation is
// reported as models.ErrInvalidParameter. For valid-shaped input the
// pipeline never fails.
func (p *CompressionPipeline) Run(cache models.KVCache, sinkTokens int, keepRatio float64, outputLength, kernelWidth int) (models.KVCache, models.CompressionResult, error) {
	if err := validateParams(sinkTokens, keepRatio, outputLength, kernelWidth); err != nil {
		return nil, models.CompressionResult{}, err
	}
	if err := cache.Validate(); err != nil {
		return nil, models.CompressionResult{}, err
	}

	originalSize := cache.Tokens()

	compressed, err := p.compressor.Compress(cache, sinkTokens, keepRatio)
	if err != nil {
		return nil, models.CompressionResult{}, err
	}

	fused, err := p.fuser.Fuse(compressed, outputLength, kernelWidth)
	if err != nil {
		return nil, models.CompressionResult{}, err
	}

	return fused, models.NewCompressionResult(originalSize, fused.Tokens()), nil
}

func validateParams(sinkTokens int, keepRatio float64, outputLength, kernelWidth int) error {
	if sinkTokens < 0 {
		return fmt.Errorf("%w: sink_tokens must be >= 0, got %d", models.ErrInvalidParameter, sinkTokens)
	}
	if keepRatio <= 0 || keepRatio > 1 {
		return fmt.Errorf("%w: keep_ratio must be in (0, 1], got %g", models.ErrInvalidParameter, keepRatio)
	}
	if outputLength < 1 {
		return fmt.Errorf("%w: output_length must be >= 1, got %d", models.ErrInvalidParameter, outputLength)
	}
	if kernelWidth < 1 {
		return fmt.Errorf("%w: kernel_width must be >= 1, got %d", models.ErrInvalidParameter, kernelWidth)
	}
	return nil
}
