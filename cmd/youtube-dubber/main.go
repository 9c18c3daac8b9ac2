// youtube-dubber downloads YouTube videos, transcribes them with speaker
// diarization, synthesizes a dubbed voice track, and muxes it back onto the
// original video.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
