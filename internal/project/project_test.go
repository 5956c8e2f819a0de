package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sampleManifest() Manifest {
	return Manifest{
		SampleRate:          44100,
		SessionLengthFrames: 88200,
		Sources: []Source{
			{ID: "src1", Path: "/tmp/kick.wav"},
		},
		Tracks: []TrackManifest{
			{
				Name:    "drums",
				FaderDB: -3,
				Muted:   false,
				Soloed:  false,
				Regions: []RegionManifest{
					{Name: "r1", SourceID: "src1", SliceStart: 0, SliceEnd: 44100, GlobalOffset: 0},
				},
			},
		},
		Loop: LoopManifest{Enabled: true, Start: 0, End: 44100},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.tcproj")
	want := sampleManifest()
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SchemaVersion != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, got.SchemaVersion)
	}
	if got.SampleRate != want.SampleRate {
		t.Errorf("expected sample rate %d, got %d", want.SampleRate, got.SampleRate)
	}
	if len(got.Tracks) != 1 || len(got.Tracks[0].Regions) != 1 {
		t.Fatalf("expected 1 track with 1 region, got %+v", got.Tracks)
	}
	if got.Tracks[0].Regions[0].SourceID != "src1" {
		t.Errorf("expected region source src1, got %s", got.Tracks[0].Regions[0].SourceID)
	}
	if !got.Loop.Enabled || got.Loop.End != 44100 {
		t.Errorf("expected loop [0,44100) enabled, got %+v", got.Loop)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.tcproj"))
	if err == nil {
		t.Fatal("expected an error loading a nonexistent file")
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.tcproj")
	if err := os.WriteFile(path, []byte("not gzip data"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error loading a corrupt file")
	}
}

func TestAutosaverDebouncesRepeatedTriggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto.tcproj")
	a := NewAutosaver(path, 30*time.Millisecond, nil)

	manifest := sampleManifest()
	for i := 0; i < 5; i++ {
		a.Trigger(func() Manifest { return manifest })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(80 * time.Millisecond)

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SampleRate != manifest.SampleRate {
		t.Errorf("expected autosaved manifest, got %+v", got)
	}
}

func TestAutosaverFlushSavesImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flush.tcproj")
	a := NewAutosaver(path, time.Hour, nil)
	manifest := sampleManifest()
	if err := a.Flush(func() Manifest { return manifest }); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SampleRate != manifest.SampleRate {
		t.Errorf("expected flushed manifest on disk, got %+v", got)
	}
}
