// Package control exposes a Mixer as an OSC surface: transport and
// per-track fader/mute/solo as addresses an external controller can drive,
// and BroadcastMeters, which pushes meter reads outbound each time it is
// called. tapecore
// is the thing being driven and the thing reporting meters here, rather
// than the thing driving some other synth engine.
package control

import (
	"fmt"
	"log"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/tapecore/internal/meter"
	"github.com/schollz/tapecore/internal/mixer"
)

// Server dispatches inbound OSC control messages onto a Mixer and, on
// request, broadcasts meter reads to an outbound client.
type Server struct {
	addr   string
	mixer  *mixer.Mixer
	disp   *osc.StandardDispatcher
	out    *osc.Client
	server *osc.Server
}

// NewServer builds a Server listening on addr (":PORT") that controls m,
// broadcasting meter reads to broadcastHost:broadcastPort.
func NewServer(addr string, m *mixer.Mixer, broadcastHost string, broadcastPort int) *Server {
	s := &Server{
		addr:  addr,
		mixer: m,
		disp:  osc.NewStandardDispatcher(),
		out:   osc.NewClient(broadcastHost, broadcastPort),
	}
	s.registerHandlers()
	return s
}

func (s *Server) registerHandlers() {
	s.disp.AddMsgHandler("/transport/play", s.HandleTransportPlay)
	s.disp.AddMsgHandler("/transport/pause", s.HandleTransportPause)
	s.disp.AddMsgHandler("/transport/seek", s.HandleTransportSeek)
	s.disp.AddMsgHandler("/transport/loop/enable", s.HandleLoopEnable)
	s.disp.AddMsgHandler("/transport/loop/disable", s.HandleLoopDisable)
	s.disp.AddMsgHandler("/track/fader", s.HandleTrackFader)
	s.disp.AddMsgHandler("/track/mute", s.HandleTrackMute)
	s.disp.AddMsgHandler("/track/solo", s.HandleTrackSolo)
}

// HandleTransportPlay implements osc.HandlerFunc for "/transport/play".
func (s *Server) HandleTransportPlay(msg *osc.Message) { s.mixer.Timeline.Play() }

// HandleTransportPause implements osc.HandlerFunc for "/transport/pause".
func (s *Server) HandleTransportPause(msg *osc.Message) { s.mixer.Timeline.Pause() }

// HandleTransportSeek implements osc.HandlerFunc for "/transport/seek
// frame:int32".
func (s *Server) HandleTransportSeek(msg *osc.Message) {
	frame, ok := argInt(msg, 0)
	if !ok {
		return
	}
	s.mixer.Timeline.Seek(frame)
}

// HandleLoopEnable implements osc.HandlerFunc for "/transport/loop/enable
// start:int32 end:int32".
func (s *Server) HandleLoopEnable(msg *osc.Message) {
	a, aok := argInt(msg, 0)
	b, bok := argInt(msg, 1)
	if !aok || !bok {
		return
	}
	s.mixer.Timeline.EnableLoop(a, b)
}

// HandleLoopDisable implements osc.HandlerFunc for "/transport/loop/disable".
func (s *Server) HandleLoopDisable(msg *osc.Message) { s.mixer.Timeline.DisableLoop() }

// HandleTrackFader implements osc.HandlerFunc for "/track/fader
// index:int32 db:float32".
func (s *Server) HandleTrackFader(msg *osc.Message) {
	idx, ok := argInt(msg, 0)
	db, ok2 := argFloat32(msg, 1)
	t := s.track(idx)
	if !ok || !ok2 || t == nil {
		return
	}
	t.SetFaderDB(float64(db))
}

// HandleTrackMute implements osc.HandlerFunc for "/track/mute index:int32
// on:int32" — booleans travel as int32 0/1 rather than OSC's native T/F
// type tags.
func (s *Server) HandleTrackMute(msg *osc.Message) {
	idx, ok := argInt(msg, 0)
	on, ok2 := argBool(msg, 1)
	t := s.track(idx)
	if !ok || !ok2 || t == nil {
		return
	}
	t.SetMuted(on)
}

// HandleTrackSolo implements osc.HandlerFunc for "/track/solo index:int32
// on:int32".
func (s *Server) HandleTrackSolo(msg *osc.Message) {
	idx, ok := argInt(msg, 0)
	on, ok2 := argBool(msg, 1)
	t := s.track(idx)
	if !ok || !ok2 || t == nil {
		return
	}
	t.SetSoloed(on)
}

func (s *Server) track(idx int) *mixer.Track {
	tracks := s.mixer.Tracks()
	if idx < 0 || idx >= len(tracks) {
		return nil
	}
	return tracks[idx]
}

func argInt(msg *osc.Message, i int) (int, bool) {
	if i >= len(msg.Arguments) {
		return 0, false
	}
	v, ok := msg.Arguments[i].(int32)
	return int(v), ok
}

func argFloat32(msg *osc.Message, i int) (float32, bool) {
	if i >= len(msg.Arguments) {
		return 0, false
	}
	v, ok := msg.Arguments[i].(float32)
	return v, ok
}

func argBool(msg *osc.Message, i int) (bool, bool) {
	n, ok := argInt(msg, i)
	return n != 0, ok
}

// ListenAndServe blocks serving inbound OSC on addr, dispatching to the
// handlers registered in NewServer. It is fire-and-forget: there is no
// Close, and it is intended to run for the life of the process, typically
// from its own goroutine.
func (s *Server) ListenAndServe() error {
	s.server = &osc.Server{Addr: s.addr, Dispatcher: s.disp}
	log.Printf("OSC control server listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// BroadcastMeters sends one OSC message per track ("/meter/track/N" level
// peak) and one for the master bus ("/meter/master" level peak), draining
// each Meter's latched since-last-read values.
func (s *Server) BroadcastMeters() {
	for i, t := range s.mixer.Tracks() {
		s.sendMeter(fmt.Sprintf("/meter/track/%d", i), t.MeterL, t.MeterR)
	}
	s.sendMeter("/meter/master", s.mixer.Master.MeterL, s.mixer.Master.MeterR)
}

func (s *Server) sendMeter(addr string, l, r *meter.Meter) {
	levelL, peakL := l.Read()
	levelR, peakR := r.Read()
	msg := osc.NewMessage(addr)
	msg.Append(float32(levelL))
	msg.Append(peakL)
	msg.Append(float32(levelR))
	msg.Append(peakR)
	if err := s.out.Send(msg); err != nil {
		log.Printf("error broadcasting %s: %v", addr, err)
	}
}
