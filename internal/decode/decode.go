// Package decode implements Decoder, the boundary that turns an encoded
// audio file into interleaved float32 PCM ready for segment.New. It is
// deliberately narrow: one interface, one concrete WAV implementation,
// kept as an external collaborator the core engine never depends on
// directly.
package decode

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"

	"github.com/schollz/tapecore/internal/errs"
)

// ProgressFunc is called with a value in [0,1] as decoding proceeds.
// Returning false cancels the decode; Decode then returns errs.Cancelled.
type ProgressFunc func(fraction float64) (keepGoing bool)

// Decoder turns an encoded stream into interleaved PCM.
type Decoder interface {
	// Decode reads all of r and returns interleaved float32 samples in
	// [-1,1], the sample rate, and the channel count.
	Decode(r io.Reader, progress ProgressFunc) (samples []float32, sampleRate, nChannels int, err error)
}

// WAVDecoder decodes PCM WAV files via github.com/go-audio/wav.
type WAVDecoder struct{}

// Decode implements Decoder for PCM WAV streams. Progress is reported once
// per converted chunk of chunkSamples samples, and once more with 1.0 at the
// end; pass a nil progress to skip reporting.
func (WAVDecoder) Decode(r io.Reader, progress ProgressFunc) ([]float32, int, int, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("not a valid WAV stream: %w", errs.DecoderFailure)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read PCM: %w: %w", err, errs.DecoderFailure)
	}
	if d.SampleRate == 0 {
		return nil, 0, 0, fmt.Errorf("sample rate is 0: %w", errs.DecoderFailure)
	}
	if d.NumChans <= 0 {
		return nil, 0, 0, fmt.Errorf("invalid channel count %d: %w", d.NumChans, errs.DecoderFailure)
	}

	total := len(buf.Data)
	out := make([]float32, total)
	maxVal := float32(int(1) << (uint(buf.SourceBitDepth) - 1))
	if buf.SourceBitDepth <= 0 {
		maxVal = math.MaxInt16
	}

	const chunkSamples = 1 << 16
	for i := 0; i < total; i++ {
		out[i] = float32(buf.Data[i]) / maxVal
		if progress != nil && i%chunkSamples == 0 {
			frac := float64(i) / float64(total)
			if !progress(frac) {
				return nil, 0, 0, errs.Cancelled
			}
		}
	}
	if progress != nil {
		progress(1.0)
	}
	return out, int(d.SampleRate), int(d.NumChans), nil
}
