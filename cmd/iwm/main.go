// Command iwm is the operator-facing CLI over the watermarking core: image
// and video embed/extract, raw ECC encode/decode, and the preset-aware
// verifier (spec.md section 6).
package main

import (
	"os"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	root := newRootCmd(&logger)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
