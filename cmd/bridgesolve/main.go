// Command bridgesolve is a thin CLI binding over internal/hostapi: one
// subcommand per host operation, flags for every hand/direction/strain
// argument, and a pluggable external double-dummy oracle dialed as a
// subprocess.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if v := os.Getenv("BRIDGE_SOLVER_LOG_LEVEL"); v != "" {
		if lvl, err := zerolog.ParseLevel(v); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
