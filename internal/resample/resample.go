// Package resample implements Resampler, the sample-rate-conversion
// boundary behind a small interface so the conversion algorithm can be
// swapped without touching callers. The default implementation is a
// linear-interpolation resampler, adequate for the occasional offline
// rate conversion tapecore needs (importing a file whose rate differs from
// the session's) and never called from the real-time mixing path.
package resample

import (
	"fmt"

	"github.com/schollz/tapecore/internal/errs"
)

// minRatio/maxRatio bound the accepted inRate/outRate ratio. Ratios outside
// this range are almost certainly a unit mixup (Hz vs kHz) rather than an
// intentional conversion.
const (
	minRatio = 0.1
	maxRatio = 10.0
)

// Resampler converts interleaved PCM from inRate to outRate.
type Resampler interface {
	Resample(in []float32, nChannels, inRate, outRate int) ([]float32, error)
}

// Linear is a linear-interpolation Resampler: cheap, allocation-light, and
// good enough for one-shot file import. It is not a bandlimited resampler
// and will alias on large downward rate changes.
type Linear struct{}

// Resample implements Resampler.
func (Linear) Resample(in []float32, nChannels, inRate, outRate int) ([]float32, error) {
	if nChannels <= 0 {
		return nil, fmt.Errorf("nChannels must be positive: %w", errs.InvalidRange)
	}
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("sample rates must be positive: %w", errs.InvalidSampleRate)
	}
	ratio := float64(outRate) / float64(inRate)
	if ratio < minRatio || ratio > maxRatio {
		return nil, fmt.Errorf("resample ratio %.4f outside [%.2f,%.2f]: %w", ratio, minRatio, maxRatio, errs.InvalidSampleRate)
	}
	inFrames := len(in) / nChannels
	if inFrames == 0 {
		return nil, nil
	}
	if inRate == outRate {
		out := make([]float32, len(in))
		copy(out, in)
		return out, nil
	}

	outFrames := int(float64(inFrames) * ratio)
	if outFrames < 1 {
		outFrames = 1
	}
	out := make([]float32, outFrames*nChannels)
	step := float64(inFrames-1) / float64(maxInt(outFrames-1, 1))
	for f := 0; f < outFrames; f++ {
		srcPos := float64(f) * step
		lo := int(srcPos)
		if lo >= inFrames-1 {
			lo = inFrames - 2
			if lo < 0 {
				lo = 0
			}
		}
		hi := lo + 1
		if hi >= inFrames {
			hi = inFrames - 1
		}
		frac := float32(srcPos - float64(lo))
		for ch := 0; ch < nChannels; ch++ {
			a := in[lo*nChannels+ch]
			b := in[hi*nChannels+ch]
			out[f*nChannels+ch] = a + (b-a)*frac
		}
	}
	return out, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
