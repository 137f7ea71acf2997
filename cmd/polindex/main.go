// polindex computes weighted left/right position statistics per party and
// policy domain from classified manifesto paragraphs.
//
// Usage:
//
//	polindex run [--config=<path>] [--input=<path>] [--output=<path>] [--metrics-file=<path>]
//	polindex validate --config=<path>
//	polindex generate --output=<path> [--parties=<n>] [--paragraphs=<n>] [--labels=<n>] [--seed=<n>]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
