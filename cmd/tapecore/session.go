package main

import (
	"fmt"
	"os"

	"github.com/schollz/tapecore/internal/decode"
	"github.com/schollz/tapecore/internal/mixer"
	"github.com/schollz/tapecore/internal/project"
	"github.com/schollz/tapecore/internal/region"
	"github.com/schollz/tapecore/internal/segment"
	"github.com/schollz/tapecore/internal/sequence"
)

// loadSession reads the manifest at path, decodes every source file it
// references, and assembles a Mixer with one Track per manifest track and
// one Region per manifest region.
func loadSession(path string) (*mixer.Mixer, error) {
	manifest, err := project.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	sources := make(map[string]*sequence.Sequence, len(manifest.Sources))
	for _, src := range manifest.Sources {
		seq, err := decodeSource(src.Path)
		if err != nil {
			return nil, fmt.Errorf("source %s (%s): %w", src.ID, src.Path, err)
		}
		sources[src.ID] = seq
	}

	m := mixer.New(manifest.SampleRate, manifest.SessionLengthFrames)
	for _, tm := range manifest.Tracks {
		track := mixer.NewTrack(tm.Name, manifest.SampleRate)
		track.SetFaderDB(tm.FaderDB)
		track.SetMuted(tm.Muted)
		track.SetSoloed(tm.Soloed)
		track.SetLeftSolo(tm.LeftSolo)
		track.SetRightSolo(tm.RightSolo)
		for _, rm := range tm.Regions {
			seq, ok := sources[rm.SourceID]
			if !ok {
				return nil, fmt.Errorf("region %q references unknown source %q", rm.Name, rm.SourceID)
			}
			reg, err := region.New(rm.Name, seq, rm.SliceStart, rm.SliceEnd, rm.GlobalOffset)
			if err != nil {
				return nil, fmt.Errorf("region %q: %w", rm.Name, err)
			}
			reg.SetMuted(rm.Muted)
			track.AddRegion(reg)
		}
		m.AddTrack(track)
	}
	if manifest.Loop.Enabled {
		m.Timeline.EnableLoop(manifest.Loop.Start, manifest.Loop.End)
	}
	m.RecomputeSessionLength()
	return m, nil
}

func decodeSource(path string) (*sequence.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, sampleRate, nChannels, err := (decode.WAVDecoder{}).Decode(f, nil)
	if err != nil {
		return nil, err
	}
	seg := segment.New(samples, nChannels)
	return sequence.NewFromSegment(path, sampleRate, seg), nil
}
