// combine-media muxes a video file with a replacement audio track:
//
//	combine-media <video> <audio> <output>
//
// The video stream is copied unchanged and the audio re-encoded to AAC.
// Exits 1 on wrong arguments, missing ffmpeg, missing inputs, or a failed
// combine.
package main

import (
	"fmt"
	"os"

	"youtube-dubber/internal/media"
)

func main() {
	os.Exit(run(os.Args[1:], media.NewFFmpegService()))
}

func run(args []string, ffmpeg *media.FFmpegService) int {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: combine-media <video> <audio> <output>")
		return 1
	}
	videoPath, audioPath, outputPath := args[0], args[1], args[2]

	if err := ffmpeg.CheckInstalled(); err != nil {
		fmt.Fprintf(os.Stderr, "combine-media: %v\n", err)
		return 1
	}

	for _, p := range []string{videoPath, audioPath} {
		if _, err := os.Stat(p); err != nil {
			fmt.Fprintf(os.Stderr, "combine-media: input %s: %v\n", p, err)
			return 1
		}
	}

	if err := ffmpeg.Combine(videoPath, audioPath, outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "combine-media: %v\n", err)
		return 1
	}

	fmt.Println(outputPath)
	return 0
}
