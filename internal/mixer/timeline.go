package mixer

import "sync/atomic"

// Timeline is the playback transport: sessionLengthFrames, transportFrame,
// playing, looping, loopStart, loopEnd. Every field is a plain atomic
// rather than mutex-guarded, because Tick runs on the real-time audio
// callback thread and must never block.
type Timeline struct {
	sessionLengthFrames atomic.Int64
	transportFrame      atomic.Int64
	playing             atomic.Bool
	looping             atomic.Bool
	loopStart           atomic.Int64
	loopEnd             atomic.Int64
}

// NewTimeline returns an idle, non-looping Timeline at transport 0.
func NewTimeline(sessionLengthFrames int) *Timeline {
	tl := &Timeline{}
	tl.sessionLengthFrames.Store(int64(sessionLengthFrames))
	return tl
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Play starts playback if not already playing.
func (tl *Timeline) Play() {
	tl.playing.Store(true)
}

// Pause stops playback and clears looping, per the transition table.
func (tl *Timeline) Pause() {
	if tl.playing.Load() {
		tl.playing.Store(false)
		tl.looping.Store(false)
	}
}

// Seek moves the transport to f, clamped to [0, sessionLengthFrames], and
// clears looping.
func (tl *Timeline) Seek(f int) {
	last := tl.sessionLengthFrames.Load()
	tl.transportFrame.Store(clamp64(int64(f), 0, last))
	tl.looping.Store(false)
}

// EnableLoop turns looping on over [a, b).
func (tl *Timeline) EnableLoop(a, b int) {
	tl.loopStart.Store(int64(a))
	tl.loopEnd.Store(int64(b))
	tl.looping.Store(true)
}

// DisableLoop turns looping off without otherwise touching the transport.
func (tl *Timeline) DisableLoop() {
	tl.looping.Store(false)
}

// Tick advances the transport by n frames if playing, then applies the
// end-of-session rule followed by the loop-wrap rule, in that order, so a
// loop window that ends exactly at the session boundary still wraps
// instead of stopping. Real-time safe: no allocation, no blocking.
func (tl *Timeline) Tick(n int) {
	if !tl.playing.Load() {
		return
	}
	last := tl.sessionLengthFrames.Load()
	t := tl.transportFrame.Load() + int64(n)
	if t >= last {
		t = last
		tl.playing.Store(tl.looping.Load())
	}
	if tl.looping.Load() {
		end := tl.loopEnd.Load()
		if t >= end {
			t = tl.loopStart.Load()
		}
	}
	tl.transportFrame.Store(t)
}

// Reset reinitializes the Timeline to a fresh session of
// sessionLengthFrames, setting every field exactly once so no stale value
// survives a re-seed.
func (tl *Timeline) Reset(sessionLengthFrames int) {
	tl.sessionLengthFrames.Store(int64(sessionLengthFrames))
	tl.transportFrame.Store(0)
	tl.playing.Store(false)
	tl.looping.Store(false)
	tl.loopStart.Store(0)
	tl.loopEnd.Store(0)
}

// SetSessionLength updates the session length without otherwise disturbing
// transport state, used when an edit changes the overall session duration.
func (tl *Timeline) SetSessionLength(n int) { tl.sessionLengthFrames.Store(int64(n)) }

func (tl *Timeline) SessionLengthFrames() int { return int(tl.sessionLengthFrames.Load()) }
func (tl *Timeline) TransportFrame() int      { return int(tl.transportFrame.Load()) }
func (tl *Timeline) Playing() bool            { return tl.playing.Load() }
func (tl *Timeline) Looping() bool            { return tl.looping.Load() }
func (tl *Timeline) LoopStart() int           { return int(tl.loopStart.Load()) }
func (tl *Timeline) LoopEnd() int             { return int(tl.loopEnd.Load()) }
