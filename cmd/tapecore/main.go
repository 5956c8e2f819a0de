// Command tapecore is a headless driver for the editing/mixing engine in
// internal/{sequence,region,mixer,...}: it loads a session manifest
// (internal/project), decodes its source files (internal/decode), and
// either bounces the mix to a WAV file, plays it through the in-process
// driver, or shows a live transport/meter dashboard. It is not a
// full-screen tracker editor; the only interactive surface is the
// read-only monitor dashboard.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tapecore:", err)
		os.Exit(1)
	}
}
