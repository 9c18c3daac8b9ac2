// Package tts provides the text-to-speech engine used to synthesize dubbed
// utterances.
package tts

import "context"

// Request describes one synthesis call.
type Request struct {
	// Text is the utterance text to speak.
	Text string

	// Voice is the voice model identifier from the speaker table.
	Voice string

	// Language is the language code from the speaker table.
	Language string

	// Speed is the speaking rate; 1.0 is the voice's natural rate.
	Speed float64

	// OutputPath receives the synthesized WAV clip.
	OutputPath string
}

// Engine synthesizes speech. The model is treated as a black box; a failed
// synthesis (unsupported voice or language) is terminal for the URL being
// processed.
type Engine interface {
	// CheckInstalled verifies the engine is available.
	CheckInstalled() error

	// Synthesize renders one utterance to req.OutputPath.
	Synthesize(ctx context.Context, req Request) error
}
