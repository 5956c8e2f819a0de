package mixer

import (
	"fmt"
	"sync/atomic"

	"github.com/schollz/tapecore/internal/errs"
)

// Scratch holds the per-block working buffers a Mixer needs while mixing:
// the accumulated stereo mix-down and one track's working buffer, reused
// across the set of tracks. Allocate one Scratch per audio stream (or per
// bounce call) at a size at least as large as the largest block you will
// ever pass to Mix*, and never allocate a new one from the real-time
// thread — the buffer is caller-owned and reused precisely so the mixing
// path never allocates.
type Scratch struct {
	AccL, AccR     []float32
	TrackL, TrackR []float32
}

// NewScratch allocates a Scratch sized for blocks of up to maxBlockSize
// frames.
func NewScratch(maxBlockSize int) *Scratch {
	return &Scratch{
		AccL:   make([]float32, maxBlockSize),
		AccR:   make([]float32, maxBlockSize),
		TrackL: make([]float32, maxBlockSize),
		TrackR: make([]float32, maxBlockSize),
	}
}

// Mixer owns the track list, the MasterBus, and the playback Timeline. Its
// track list is published behind an atomic pointer the same way a single
// Track's region list is.
type Mixer struct {
	SampleRate int
	Master     *MasterBus
	Timeline   *Timeline

	tracks atomic.Pointer[[]*Track]
}

// New returns a Mixer with no tracks, at sampleRate, with a Timeline of
// sessionLengthFrames frames.
func New(sampleRate, sessionLengthFrames int) *Mixer {
	m := &Mixer{
		SampleRate: sampleRate,
		Master:     NewMasterBus(sampleRate),
		Timeline:   NewTimeline(sessionLengthFrames),
	}
	empty := []*Track{}
	m.tracks.Store(&empty)
	return m
}

// Tracks returns the mixer's current track list.
func (m *Mixer) Tracks() []*Track { return *m.tracks.Load() }

// AddTrack appends t to the mixer's track list.
func (m *Mixer) AddTrack(t *Track) {
	cur := *m.tracks.Load()
	next := make([]*Track, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = t
	m.tracks.Store(&next)
}

// RemoveTrack drops t from the mixer's track list. No-op if not present.
func (m *Mixer) RemoveTrack(t *Track) {
	cur := *m.tracks.Load()
	next := make([]*Track, 0, len(cur))
	for _, existing := range cur {
		if existing != t {
			next = append(next, existing)
		}
	}
	m.tracks.Store(&next)
}

// RecomputeSessionLength scans every track's regions for the furthest
// global extent and updates the Timeline's session length to match.
func (m *Mixer) RecomputeSessionLength() {
	max := 0
	for _, t := range m.Tracks() {
		for _, r := range t.Regions() {
			if end := r.GlobalOffset() + r.NumFrames(); end > max {
				max = end
			}
		}
	}
	m.Timeline.SetSessionLength(max)
}

func anySoloed(tracks []*Track) bool {
	for _, t := range tracks {
		if t.Soloed() {
			return true
		}
	}
	return false
}

// mixTracksInto accumulates every contributing track's signal for
// len(lOut) frames starting at global frame t0 into lOut/rOut, which must
// already be zeroed. A single pass over the tracks decides per track
// whether it contributes (only soloed tracks when any track is soloed,
// otherwise every unmuted track), so a soloed track is mixed exactly once;
// both MixInterleaved and MixNonInterleaved share this one implementation
// so neither path can double-mix a soloed track.
//
// Track.mix still runs for every track regardless of whether it
// contributes to the mix-down, because each track's meters must reflect
// its own signal even on a block where a sibling's solo excludes it.
func (m *Mixer) mixTracksInto(lOut, rOut []float32, t0 int, scratch *Scratch) {
	tracks := m.Tracks()
	solo := anySoloed(tracks)
	trackL := scratch.TrackL[:len(lOut)]
	trackR := scratch.TrackR[:len(rOut)]
	for _, t := range tracks {
		t.mix(trackL, trackR, t0)
		var contributes bool
		if solo {
			contributes = t.Soloed()
		} else {
			contributes = !t.Muted()
		}
		if contributes {
			for j := range lOut {
				lOut[j] += trackL[j]
				rOut[j] += trackR[j]
			}
		}
	}
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

// MixInterleaved renders n frames starting at global frame t0 into buf as
// interleaved [L,R,L,R,...] (buf must be at least 2*n long), then applies
// the MasterBus. Real-time safe given a Scratch sized for n.
func (m *Mixer) MixInterleaved(buf []float32, t0, n int, scratch *Scratch) {
	// An interleaved buffer can't be mixed into directly (stride mismatch),
	// so accumulate into the Scratch's own L/R buffers and fan out after.
	// These must be distinct from scratch.TrackL/TrackR, which
	// mixTracksInto reuses as scratch space for each track in turn.
	accL := scratch.AccL[:n]
	accR := scratch.AccR[:n]
	zero(accL)
	zero(accR)
	m.mixTracksInto(accL, accR, t0, scratch)
	m.Master.Apply(accL, accR)
	for j := 0; j < n; j++ {
		buf[2*j] = accL[j]
		buf[2*j+1] = accR[j]
	}
}

// MixNonInterleaved renders n frames starting at global frame t0 into
// separate lBuf/rBuf, then applies the MasterBus. lBuf/rBuf must not alias
// scratch's buffers.
func (m *Mixer) MixNonInterleaved(lBuf, rBuf []float32, t0, n int, scratch *Scratch) {
	l := lBuf[:n]
	r := rBuf[:n]
	zero(l)
	zero(r)
	m.mixTracksInto(l, r, t0, scratch)
	m.Master.Apply(l, r)
}

// AudioCallback is the real-time entry point: it mixes n frames at the
// Timeline's current transport position into buf, then advances the
// transport. Never allocates given a large-enough Scratch.
func (m *Mixer) AudioCallback(buf []float32, n int, scratch *Scratch) {
	t0 := m.Timeline.TransportFrame()
	m.MixInterleaved(buf, t0, n, scratch)
	m.Timeline.Tick(n)
}

// BounceStereoInterleaved renders nframes of the mix starting at
// startFrame into out (which must be at least nframes*2 long), running the
// same mix function playback uses but through an independent cursor that
// never touches the playback Timeline, so a bounce may run while playback
// is paused or positioned elsewhere.
func (m *Mixer) BounceStereoInterleaved(out []float32, startFrame, nframes, blockSize int) error {
	if len(out) < nframes*2 {
		return fmt.Errorf("output buffer holds %d frames, need %d: %w", len(out)/2, nframes, errs.InvalidRange)
	}
	if blockSize <= 0 {
		return fmt.Errorf("blockSize must be positive: %w", errs.InvalidRange)
	}
	scratch := NewScratch(blockSize)
	cursor := startFrame
	written := 0
	for written < nframes {
		n := blockSize
		if remaining := nframes - written; remaining < n {
			n = remaining
		}
		m.MixInterleaved(out[written*2:(written+n)*2], cursor, n, scratch)
		cursor += n
		written += n
	}
	return nil
}
