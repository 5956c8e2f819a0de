package control

import (
	"testing"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/tapecore/internal/mixer"
)

func newTestServer(numTracks int) (*Server, *mixer.Mixer) {
	m := mixer.New(44100, 44100)
	for i := 0; i < numTracks; i++ {
		m.AddTrack(mixer.NewTrack("t", 44100))
	}
	s := NewServer(":0", m, "127.0.0.1", 0)
	return s, m
}

func msg(addr string, args ...interface{}) *osc.Message {
	m := osc.NewMessage(addr)
	for _, a := range args {
		m.Append(a)
	}
	return m
}

func TestHandleTransportPlayPause(t *testing.T) {
	s, m := newTestServer(0)
	s.HandleTransportPlay(msg("/transport/play"))
	if !m.Timeline.Playing() {
		t.Fatal("expected playing after /transport/play")
	}
	s.HandleTransportPause(msg("/transport/pause"))
	if m.Timeline.Playing() {
		t.Fatal("expected stopped after /transport/pause")
	}
}

func TestHandleTransportSeek(t *testing.T) {
	s, m := newTestServer(0)
	m.Timeline.SetSessionLength(1000)
	s.HandleTransportSeek(msg("/transport/seek", int32(500)))
	if m.Timeline.TransportFrame() != 500 {
		t.Fatalf("expected transport at 500, got %d", m.Timeline.TransportFrame())
	}
}

func TestHandleTransportSeekIgnoresMalformedArgs(t *testing.T) {
	s, m := newTestServer(0)
	m.Timeline.Seek(10)
	s.HandleTransportSeek(msg("/transport/seek", "not an int"))
	if m.Timeline.TransportFrame() != 10 {
		t.Fatalf("expected seek to be ignored, transport changed to %d", m.Timeline.TransportFrame())
	}
}

func TestHandleLoopEnableDisable(t *testing.T) {
	s, m := newTestServer(0)
	m.Timeline.SetSessionLength(1_000_000)
	s.HandleLoopEnable(msg("/transport/loop/enable", int32(100), int32(200)))
	if !m.Timeline.Looping() || m.Timeline.LoopStart() != 100 || m.Timeline.LoopEnd() != 200 {
		t.Fatalf("expected loop [100,200) enabled, got looping=%v [%d,%d)", m.Timeline.Looping(), m.Timeline.LoopStart(), m.Timeline.LoopEnd())
	}
	s.HandleLoopDisable(msg("/transport/loop/disable"))
	if m.Timeline.Looping() {
		t.Fatal("expected looping disabled")
	}
}

func TestHandleTrackFader(t *testing.T) {
	s, m := newTestServer(2)
	s.HandleTrackFader(msg("/track/fader", int32(1), float32(-6)))
	got := m.Tracks()[1].FaderLinear()
	if got < 0.49 || got > 0.51 {
		t.Fatalf("expected -6dB fader (~0.5 linear), got %v", got)
	}
	if m.Tracks()[0].FaderLinear() != 1.0 {
		t.Fatal("expected track 0's fader untouched")
	}
}

func TestHandleTrackFaderIgnoresOutOfRangeIndex(t *testing.T) {
	s, m := newTestServer(1)
	s.HandleTrackFader(msg("/track/fader", int32(5), float32(-6)))
	if m.Tracks()[0].FaderLinear() != 1.0 {
		t.Fatal("expected fader unchanged for out-of-range track index")
	}
}

func TestHandleTrackMuteAndSolo(t *testing.T) {
	s, m := newTestServer(1)
	s.HandleTrackMute(msg("/track/mute", int32(0), int32(1)))
	if !m.Tracks()[0].Muted() {
		t.Fatal("expected track muted")
	}
	s.HandleTrackMute(msg("/track/mute", int32(0), int32(0)))
	if m.Tracks()[0].Muted() {
		t.Fatal("expected track unmuted")
	}
	s.HandleTrackSolo(msg("/track/solo", int32(0), int32(1)))
	if !m.Tracks()[0].Soloed() {
		t.Fatal("expected track soloed")
	}
}
