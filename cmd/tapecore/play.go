package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/schollz/tapecore/internal/driver"
	"github.com/schollz/tapecore/internal/mixer"
)

var (
	playBlockSize int
	playLoop      loopRangeFlag
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a session through the in-process driver until it ends or is interrupted",
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().IntVar(&playBlockSize, "block-size", 1024, "audio callback block size in frames")
	playCmd.Flags().Var(&playLoop, "loop", "override the session's loop window as start:end")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if projectPath == "" {
		return fmt.Errorf("--project is required")
	}
	m, err := loadSession(projectPath)
	if err != nil {
		return err
	}
	if playLoop.set {
		m.Timeline.EnableLoop(playLoop.start, playLoop.end)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runTransportLoop(ctx, m, playBlockSize, true)
}

// runTransportLoop drives m's audio callback at wall-clock speed (one
// block every blockSize/SampleRate seconds) until ctx is cancelled or
// playback stops. There being no real hardware backend wired (see
// internal/driver's DESIGN.md entry), this stands in for the real-time
// thread a hardware callback would otherwise drive.
func runTransportLoop(ctx context.Context, m *mixer.Mixer, blockSize int, startPlaying bool) error {
	if startPlaying {
		m.Timeline.Play()
	}
	scratch := mixer.NewScratch(blockSize)
	d, err := driver.Open(m.SampleRate, blockSize, func(buf []float32) {
		m.AudioCallback(buf, blockSize, scratch)
	})
	if err != nil {
		return fmt.Errorf("open driver: %w", err)
	}
	defer d.Close()

	blockDur := time.Duration(float64(blockSize) / float64(m.SampleRate) * float64(time.Second))
	buf := make([]float32, blockSize*2)
	ticker := time.NewTicker(blockDur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.PumpOnce(buf); err != nil {
				return err
			}
			if !m.Timeline.Playing() {
				return nil
			}
		}
	}
}
