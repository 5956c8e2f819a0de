// Package mixer implements the real-time mixing and transport engine:
// ChannelCore, Track, MasterBus, Mixer, and Timeline.
// Every type here that participates in the audio callback is built to
// never allocate on that path — track/region-set changes publish a fresh
// slice behind an atomic pointer, and per-block scratch space is
// preallocated once by the caller via Scratch and reused every callback.
package mixer

import (
	"math"
	"sync/atomic"

	"github.com/schollz/tapecore/internal/meter"
)

// atomicFloat64 is a lock-free float64 box, used for fader gain: written
// rarely from the edit domain, read once per audio callback.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) Store(v float64) { f.bits.Store(math.Float64bits(v)) }
func (f *atomicFloat64) Load() float64   { return math.Float64frombits(f.bits.Load()) }

// ChannelCore is the state shared by Track and MasterBus: a linear fader
// plus mute/solo flags and a stereo pair of true-peak meters. Both Track
// and MasterBus embed it directly rather than through an interface, since
// their divergence is narrow enough not to need one. MasterBus embeds the
// same struct but its Apply never consults the mute/solo fields — they
// simply go unused there rather than needing a second, narrower type.
type ChannelCore struct {
	fader     atomicFloat64
	muted     atomic.Bool
	soloed    atomic.Bool
	leftSolo  atomic.Bool
	rightSolo atomic.Bool

	MeterL *meter.Meter
	MeterR *meter.Meter
}

func newChannelCore(sampleRate int) ChannelCore {
	c := ChannelCore{MeterL: meter.New(sampleRate), MeterR: meter.New(sampleRate)}
	c.fader.Store(1.0)
	return c
}

// FaderLinear returns the current linear gain (1.0 = unity).
func (c *ChannelCore) FaderLinear() float64 { return c.fader.Load() }

// SetFaderLinear sets the linear gain directly.
func (c *ChannelCore) SetFaderLinear(v float64) { c.fader.Store(v) }

// SetFaderDB sets the gain from a dB value.
func (c *ChannelCore) SetFaderDB(db float64) { c.fader.Store(math.Pow(10, db/20)) }

// Muted, SetMuted control the channel's mute flag.
func (c *ChannelCore) Muted() bool     { return c.muted.Load() }
func (c *ChannelCore) SetMuted(b bool) { c.muted.Store(b) }

// Soloed, SetSoloed control the channel's solo flag.
func (c *ChannelCore) Soloed() bool     { return c.soloed.Load() }
func (c *ChannelCore) SetSoloed(b bool) { c.soloed.Store(b) }

// LeftSolo and RightSolo are mutually exclusive: enabling one disables the
// other.
func (c *ChannelCore) LeftSolo() bool { return c.leftSolo.Load() }
func (c *ChannelCore) SetLeftSolo(b bool) {
	if b {
		c.rightSolo.Store(false)
	}
	c.leftSolo.Store(b)
}

func (c *ChannelCore) RightSolo() bool { return c.rightSolo.Load() }
func (c *ChannelCore) SetRightSolo(b bool) {
	if b {
		c.leftSolo.Store(false)
	}
	c.rightSolo.Store(b)
}
