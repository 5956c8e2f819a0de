// Package project persists a session as a gzip-compressed JSON manifest:
// the set of source files a session references, one entry per track with
// its channel state, and one entry per region with its slice bounds and
// placement.
package project

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/schollz/tapecore/internal/errs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SchemaVersion identifies the manifest's on-disk shape. Bump and add a
// migration path in Load if a later field changes in an incompatible way.
const SchemaVersion = 1

// Source names one decoded file a session's regions slice into, keyed by
// an ID used in RegionManifest.SourceID rather than repeating the path.
type Source struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// RegionManifest is one track's region, in the on-disk shape.
type RegionManifest struct {
	Name         string `json:"name"`
	SourceID     string `json:"sourceId"`
	SliceStart   int    `json:"sliceStart"`
	SliceEnd     int    `json:"sliceEnd"`
	GlobalOffset int    `json:"globalOffset"`
	Muted        bool   `json:"muted"`
}

// TrackManifest is one track's channel state plus its regions.
type TrackManifest struct {
	Name      string           `json:"name"`
	FaderDB   float64          `json:"faderDB"`
	Muted     bool             `json:"muted"`
	Soloed    bool             `json:"soloed"`
	LeftSolo  bool             `json:"leftSolo"`
	RightSolo bool             `json:"rightSolo"`
	Regions   []RegionManifest `json:"regions"`
}

// LoopManifest is the Timeline's loop window, if any.
type LoopManifest struct {
	Enabled bool `json:"enabled"`
	Start   int  `json:"start"`
	End     int  `json:"end"`
}

// Manifest is a complete session: enough to rebuild a Mixer's tracks,
// regions, channel state, and loop window once its Sources have been
// re-decoded.
type Manifest struct {
	SchemaVersion       int             `json:"schemaVersion"`
	SampleRate          int             `json:"sampleRate"`
	SessionLengthFrames int             `json:"sessionLengthFrames"`
	Sources             []Source        `json:"sources"`
	Tracks              []TrackManifest `json:"tracks"`
	Loop                LoopManifest    `json:"loop"`
}

// Save gzip-compresses manifest as JSON and writes it to path, overwriting
// any existing file.
func Save(path string, manifest Manifest) error {
	manifest.SchemaVersion = SchemaVersion
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return fmt.Errorf("write gzipped manifest: %w", err)
	}
	return gz.Close()
}

// Load reads and decompresses the manifest at path.
func Load(path string) (Manifest, error) {
	var manifest Manifest
	f, err := os.Open(path)
	if err != nil {
		return manifest, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return manifest, fmt.Errorf("gzip reader for %s: %w: %w", path, err, errs.InvalidFormat)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return manifest, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("unmarshal manifest: %w: %w", err, errs.InvalidFormat)
	}
	return manifest, nil
}

// Autosaver debounces repeated Trigger calls into a single Save after
// quietPeriod of inactivity, held as per-session state rather than package
// globals so more than one session can autosave concurrently without
// sharing a timer.
type Autosaver struct {
	path        string
	quietPeriod time.Duration
	onSaveError func(error)

	mu    sync.Mutex
	timer *time.Timer
}

// NewAutosaver returns an Autosaver that writes to path after quietPeriod
// of inactivity since the last Trigger call. onSaveError, if non-nil, is
// called from the debounce goroutine if the deferred Save fails.
func NewAutosaver(path string, quietPeriod time.Duration, onSaveError func(error)) *Autosaver {
	return &Autosaver{path: path, quietPeriod: quietPeriod, onSaveError: onSaveError}
}

// Trigger (re)starts the debounce timer; when it fires, manifest() is
// called to snapshot current state and the result is saved in the
// background.
func (a *Autosaver) Trigger(manifest func() Manifest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.quietPeriod, func() {
		if err := Save(a.path, manifest()); err != nil && a.onSaveError != nil {
			a.onSaveError(err)
		}
	})
}

// Flush cancels any pending debounce timer and saves manifest() immediately.
func (a *Autosaver) Flush(manifest func() Manifest) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	return Save(a.path, manifest())
}
