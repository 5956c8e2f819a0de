package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"
)

var (
	bounceOut       string
	bounceStart     int
	bounceLength    int
	bounceBlockSize int
	bounceLoop      loopRangeFlag
)

var bounceCmd = &cobra.Command{
	Use:   "bounce",
	Short: "Render a session to a stereo WAV file",
	RunE:  runBounce,
}

func init() {
	bounceCmd.Flags().StringVar(&bounceOut, "out", "", "output WAV path (required)")
	bounceCmd.Flags().IntVar(&bounceStart, "start", 0, "start frame")
	bounceCmd.Flags().IntVar(&bounceLength, "length", 0, "frames to render (0 = to end of session)")
	bounceCmd.Flags().IntVar(&bounceBlockSize, "block-size", 4096, "mixing block size in frames")
	bounceCmd.Flags().Var(&bounceLoop, "loop", "override the session's loop window as start:end")
}

func runBounce(cmd *cobra.Command, args []string) error {
	if projectPath == "" {
		return fmt.Errorf("--project is required")
	}
	if bounceOut == "" {
		return fmt.Errorf("--out is required")
	}

	m, err := loadSession(projectPath)
	if err != nil {
		return err
	}
	if bounceLoop.set {
		m.Timeline.EnableLoop(bounceLoop.start, bounceLoop.end)
	}

	length := bounceLength
	if length <= 0 {
		length = m.Timeline.SessionLengthFrames() - bounceStart
	}
	if length <= 0 {
		return fmt.Errorf("nothing to render: session is %d frames, start is %d", m.Timeline.SessionLengthFrames(), bounceStart)
	}

	interleaved := make([]float32, length*2)
	if err := m.BounceStereoInterleaved(interleaved, bounceStart, length, bounceBlockSize); err != nil {
		return fmt.Errorf("bounce: %w", err)
	}

	return writeWAV(bounceOut, m.SampleRate, interleaved)
}

func writeWAV(path string, sampleRate int, interleaved []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	ints := make([]int, len(interleaved))
	for i, v := range interleaved {
		ints[i] = floatToInt16(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 2},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return enc.Close()
}

func floatToInt16(v float32) int {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int(math.Round(float64(v) * 32767))
}
