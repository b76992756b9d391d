// Command loft-nav browses the Loftdrive project hierarchy from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/loftdrive/loft-nav/internal/cli"
)

// Set via -ldflags at build time.
var (
	version   = "v0.3.0-dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
