package mixer

// MasterBus is the final mixing stage: it has no inputs of its own,
// applies its fader to an already-mixed stereo buffer, and feeds the
// post-fader signal to its meters. It has no mute/solo semantics, even
// though it embeds the same ChannelCore as Track.
type MasterBus struct {
	ChannelCore
}

// NewMasterBus returns a MasterBus with meters tuned for sampleRate and
// unity fader gain.
func NewMasterBus(sampleRate int) *MasterBus {
	return &MasterBus{ChannelCore: newChannelCore(sampleRate)}
}

// Apply multiplies l and r in place by the bus fader, then feeds the
// post-fader signal to the L/R meters. Real-time safe; never allocates.
func (m *MasterBus) Apply(l, r []float32) {
	fader := float32(m.FaderLinear())
	for i := range l {
		l[i] *= fader
		r[i] *= fader
	}
	m.MeterL.Process(l)
	m.MeterR.Process(r)
}
