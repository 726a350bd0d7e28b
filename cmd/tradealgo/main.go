// Command tradealgo runs the bar-driven strategy decision engine. It loads
// configuration, validates it, wires the configured backends and replays or
// streams bars through the selected strategy variants.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
