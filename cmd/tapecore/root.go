package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var projectPath string

var rootCmd = &cobra.Command{
	Use:           "tapecore",
	Short:         "A headless tape-style multitrack engine",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectPath, "project", "", "path to a .tcproj session manifest (required)")
	rootCmd.AddCommand(bounceCmd, playCmd, monitorCmd)
}

// loopRangeFlag is a pflag.Value for a "start:end" frame range, used by
// --loop on bounce/play. Defined directly against pflag (rather than
// relying on cobra's re-export) the way a custom flag type normally would
// be, since none of the builtin pflag kinds fit a paired range value.
type loopRangeFlag struct {
	set        bool
	start, end int
}

func (f *loopRangeFlag) String() string {
	if !f.set {
		return ""
	}
	return fmt.Sprintf("%d:%d", f.start, f.end)
}

func (f *loopRangeFlag) Set(s string) error {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected start:end, got %q", s)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("invalid loop start %q: %w", parts[0], err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("invalid loop end %q: %w", parts[1], err)
	}
	if end < start {
		return fmt.Errorf("loop end %d before start %d", end, start)
	}
	f.start, f.end, f.set = start, end, true
	return nil
}

func (f *loopRangeFlag) Type() string { return "start:end" }

var _ pflag.Value = (*loopRangeFlag)(nil)
