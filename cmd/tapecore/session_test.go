package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/schollz/tapecore/internal/project"
)

func writeSineWAV(t *testing.T, path string, sampleRate, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, frames)
	for i := range data {
		data[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSessionBuildsMixerFromManifest(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "source.wav")
	writeSineWAV(t, wavPath, 44100, 44100)

	manifest := project.Manifest{
		SampleRate:          44100,
		SessionLengthFrames: 44100,
		Sources:             []project.Source{{ID: "src1", Path: wavPath}},
		Tracks: []project.TrackManifest{
			{
				Name:    "lead",
				FaderDB: 6,
				Muted:   false,
				Soloed:  true,
				Regions: []project.RegionManifest{
					{Name: "r1", SourceID: "src1", SliceStart: 0, SliceEnd: 44100, GlobalOffset: 0},
				},
			},
		},
		Loop: project.LoopManifest{Enabled: true, Start: 0, End: 22050},
	}
	projPath := filepath.Join(dir, "session.tcproj")
	if err := project.Save(projPath, manifest); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m, err := loadSession(projPath)
	if err != nil {
		t.Fatalf("loadSession: %v", err)
	}
	if m.SampleRate != 44100 {
		t.Fatalf("SampleRate = %d, want 44100", m.SampleRate)
	}
	tracks := m.Tracks()
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(tracks))
	}
	tr := tracks[0]
	if tr.Name != "lead" {
		t.Fatalf("Name = %q, want lead", tr.Name)
	}
	if !tr.Soloed() {
		t.Fatal("expected track to be soloed")
	}
	wantFader := math.Pow(10, 6.0/20)
	if math.Abs(tr.FaderLinear()-wantFader) > 1e-9 {
		t.Fatalf("FaderLinear() = %v, want %v", tr.FaderLinear(), wantFader)
	}
	if len(tr.Regions()) != 1 {
		t.Fatalf("got %d regions, want 1", len(tr.Regions()))
	}
	if !m.Timeline.Looping() {
		t.Fatal("expected loop to be enabled")
	}
	if m.Timeline.LoopStart() != 0 || m.Timeline.LoopEnd() != 22050 {
		t.Fatalf("loop window = [%d,%d), want [0,22050)", m.Timeline.LoopStart(), m.Timeline.LoopEnd())
	}
}

func TestLoadSessionRejectsUnknownSource(t *testing.T) {
	dir := t.TempDir()
	manifest := project.Manifest{
		SampleRate:          44100,
		SessionLengthFrames: 44100,
		Tracks: []project.TrackManifest{
			{
				Name: "lead",
				Regions: []project.RegionManifest{
					{Name: "r1", SourceID: "missing", SliceStart: 0, SliceEnd: 100},
				},
			},
		},
	}
	projPath := filepath.Join(dir, "session.tcproj")
	if err := project.Save(projPath, manifest); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := loadSession(projPath); err == nil {
		t.Fatal("expected error for region referencing unknown source")
	}
}
