package mixer

import (
	"sync/atomic"

	"github.com/schollz/tapecore/internal/region"
)

// Track owns a vector of Regions plus the shared Channel state. The region
// list is published behind an atomic pointer: AddRegion/RemoveRegion
// copy-on-write a new slice from the edit domain, and the audio callback
// reads the current slice without locking.
type Track struct {
	ChannelCore
	Name string

	regions atomic.Pointer[[]*region.Region]
}

// NewTrack returns an empty Track named name, with meters tuned for
// sampleRate.
func NewTrack(name string, sampleRate int) *Track {
	t := &Track{ChannelCore: newChannelCore(sampleRate), Name: name}
	empty := []*region.Region{}
	t.regions.Store(&empty)
	return t
}

// Regions returns the track's current region list. The returned slice must
// not be mutated; AddRegion/RemoveRegion always publish a fresh one.
func (t *Track) Regions() []*region.Region { return *t.regions.Load() }

// AddRegion appends r to the track's region list.
func (t *Track) AddRegion(r *region.Region) {
	cur := *t.regions.Load()
	next := make([]*region.Region, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = r
	t.regions.Store(&next)
}

// RemoveRegion drops r from the track's region list. No-op if r is not
// present.
func (t *Track) RemoveRegion(r *region.Region) {
	cur := *t.regions.Load()
	next := make([]*region.Region, 0, len(cur))
	for _, existing := range cur {
		if existing != r {
			next = append(next, existing)
		}
	}
	t.regions.Store(&next)
}

// mix writes this track's own signal for len(lOut) frames starting at
// global frame t0 into lOut/rOut by summing every region's contribution.
// It honors per-region mute, this track's own mute/leftSolo/rightSolo, and
// fader — but not the mixer-level solo rule, which is the Mixer's concern
// (mixer.go's mixTracksInto), because the track's meters must reflect its
// own signal even on a block where it is excluded from the mix-down by a
// sibling track's solo.
//
// Mono regions broadcast to both channels for free: channel index
// min(1, nCh-1) is 0 for a mono region, so s2 reads the same channel as s1.
func (t *Track) mix(lOut, rOut []float32, t0 int) {
	fader := float32(t.FaderLinear())
	muted := t.Muted()
	left := t.LeftSolo()
	right := t.RightSolo()
	regions := t.Regions()

	for j := range lOut {
		var l, r float32
		if !muted {
			for _, reg := range regions {
				if reg.Muted() {
					continue
				}
				ch2 := 1
				if reg.NumChannels()-1 < ch2 {
					ch2 = reg.NumChannels() - 1
				}
				if ch2 < 0 {
					ch2 = 0
				}
				s1 := reg.SampleAtGlobal(0, t0+j) * fader
				s2 := reg.SampleAtGlobal(ch2, t0+j) * fader
				switch {
				case left:
					l += s1
				case right:
					r += s2
				default:
					l += s1
					r += s2
				}
			}
		}
		lOut[j] = l
		rOut[j] = r
	}
	t.MeterL.Process(lOut)
	t.MeterR.Process(rOut)
}
