// Package dsp defines two offline collaborators treated as swappable
// algorithms behind small interfaces — a time-stretcher and an onset
// detector — plus a minimal implementation of each. Neither is called
// from the real-time mixing path; both run only from the edit domain.
//
// No bandlimited phase-vocoder or onset-detection library is wired in, so
// the implementations here are plain numeric heuristics over PCM data
// rather than wrapped C libraries.
package dsp

import "math"

// Stretcher time-stretches nChannels-interleaved input frames by ratio,
// producing floor(len(in)/nChannels * ratio) output frames.
type Stretcher interface {
	Stretch(in []float32, nChannels int, ratio float64) []float32
}

// LinearStretcher resamples via linear interpolation along the time axis.
// It is a reasonable, artifact-free-enough stand-in for a phase vocoder
// when no such library is available; real installations would swap this
// for a proper implementation behind the same interface.
type LinearStretcher struct{}

// NewLinearStretcher returns the default in-pack Stretcher.
func NewLinearStretcher() *LinearStretcher { return &LinearStretcher{} }

// Stretch implements Stretcher.
func (LinearStretcher) Stretch(in []float32, nChannels int, ratio float64) []float32 {
	if nChannels <= 0 || len(in) == 0 || ratio <= 0 {
		return nil
	}
	inFrames := len(in) / nChannels
	outFrames := int(math.Floor(float64(inFrames) * ratio))
	if outFrames <= 0 {
		return nil
	}
	out := make([]float32, outFrames*nChannels)
	for i := 0; i < outFrames; i++ {
		// Position in the input timeline this output frame samples from.
		srcPos := float64(i) / ratio
		f0 := int(math.Floor(srcPos))
		frac := srcPos - float64(f0)
		f1 := f0 + 1
		if f1 >= inFrames {
			f1 = inFrames - 1
		}
		if f0 >= inFrames {
			f0 = inFrames - 1
		}
		for ch := 0; ch < nChannels; ch++ {
			a := in[f0*nChannels+ch]
			b := in[f1*nChannels+ch]
			out[i*nChannels+ch] = a + float32(frac)*(b-a)
		}
	}
	return out
}

// OnsetDetector finds local frame positions where a new sound event
// likely begins, given a window size and hop size in frames, an
// onset-strength threshold, and a silence threshold below which frames are
// ignored entirely.
type OnsetDetector interface {
	DetectOnsets(samples []float32, nChannels int, windowSize, hopSize int, onsetThreshold, silenceThreshold float64) []int
}

// EnergyOnsetDetector flags a hop as an onset when its short-time energy
// rises by more than onsetThreshold over the previous hop's energy. Hops
// whose energy is below silenceThreshold are never flagged themselves, but
// still serve as the previous hop, so a hop rising out of silence is
// flagged.
type EnergyOnsetDetector struct{}

// NewEnergyOnsetDetector returns the default in-pack OnsetDetector.
func NewEnergyOnsetDetector() *EnergyOnsetDetector { return &EnergyOnsetDetector{} }

// DetectOnsets implements OnsetDetector.
func (EnergyOnsetDetector) DetectOnsets(samples []float32, nChannels int, windowSize, hopSize int, onsetThreshold, silenceThreshold float64) []int {
	if nChannels <= 0 || windowSize <= 0 || hopSize <= 0 {
		return nil
	}
	nframes := len(samples) / nChannels
	var onsets []int
	prevEnergy := -1.0
	for start := 0; start+windowSize <= nframes; start += hopSize {
		energy := windowEnergy(samples, nChannels, start, windowSize)
		if energy < silenceThreshold {
			prevEnergy = energy
			continue
		}
		if prevEnergy >= 0 && energy > prevEnergy*(1+onsetThreshold) {
			onsets = append(onsets, start)
		}
		prevEnergy = energy
	}
	return onsets
}

func windowEnergy(samples []float32, nChannels, start, windowSize int) float64 {
	sum := 0.0
	n := 0
	for f := start; f < start+windowSize; f++ {
		for ch := 0; ch < nChannels; ch++ {
			v := float64(samples[f*nChannels+ch])
			sum += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
