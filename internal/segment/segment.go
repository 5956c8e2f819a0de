// Package segment defines AudioSegment, an immutable, share-by-reference
// chunk of interleaved PCM with a precomputed waveform cache. Segments
// never mutate after construction, so slicing is cheap and safe to read
// from any number of goroutines without synchronization.
package segment

import "github.com/schollz/tapecore/internal/waveform"

// Segment is an immutable (buffer, nChannels, cache) triple. Buf must never
// be written to after New returns; callers that need to edit audio build a
// new buffer and wrap it in a new Segment instead.
type Segment struct {
	buf       []float32
	nChannels int
	cache     *waveform.Cache
}

// New builds a Segment over buf, computing its waveform cache eagerly. buf
// is taken by reference, not copied; the caller must not mutate it again.
func New(buf []float32, nChannels int) *Segment {
	nframes := 0
	if nChannels > 0 {
		nframes = len(buf) / nChannels
	}
	return &Segment{
		buf:       buf,
		nChannels: nChannels,
		cache:     waveform.Build(buf, nframes, nChannels),
	}
}

// NewWithCache builds a Segment reusing an already-computed cache, used by
// Slice to avoid rescanning PCM data.
func NewWithCache(buf []float32, nChannels int, cache *waveform.Cache) *Segment {
	return &Segment{buf: buf, nChannels: nChannels, cache: cache}
}

// NumChannels returns the segment's channel count.
func (s *Segment) NumChannels() int { return s.nChannels }

// NumFrames returns the number of frames in the segment.
func (s *Segment) NumFrames() int {
	if s.nChannels == 0 {
		return 0
	}
	return len(s.buf) / s.nChannels
}

// Len returns the number of samples (frames * channels) in the segment.
func (s *Segment) Len() int { return len(s.buf) }

// Cache returns the segment's waveform overview.
func (s *Segment) Cache() *waveform.Cache { return s.cache }

// At returns the sample at the given raw sample index (not frame index).
func (s *Segment) At(i int) float32 { return s.buf[i] }

// Raw returns the segment's underlying buffer. Callers must treat it as
// read-only; the real-time mixing path relies on that invariant to read
// without locking.
func (s *Segment) Raw() []float32 { return s.buf }

// Slice returns a new Segment over the sample range [loSample, hiSample),
// sharing the backing array and deriving a consistent, bin-aligned slice of
// the cache.
func (s *Segment) Slice(loSample, hiSample int) *Segment {
	sub := s.buf[loSample:hiSample]
	var loFrame, hiFrame int
	if s.nChannels > 0 {
		loFrame = loSample / s.nChannels
		hiFrame = hiSample / s.nChannels
	}
	return NewWithCache(sub, s.nChannels, s.cache.Slice(loFrame, hiFrame))
}
