// Package transcription fetches diarized, time-stamped transcripts from
// hosted speech-to-text APIs.
package transcription

import (
	"context"
	"errors"
	"fmt"

	"youtube-dubber/internal/transcript"
)

// Failure classes. Each aborts the affected URL's pipeline; the CLI reports
// them distinctly.
var (
	// ErrAuth means the API rejected the credential.
	ErrAuth = errors.New("transcription: authentication failed")

	// ErrQuota means the API refused the request for billing or rate reasons.
	ErrQuota = errors.New("transcription: quota exceeded")

	// ErrBadMedia means the API could not decode the submitted audio.
	ErrBadMedia = errors.New("transcription: unreadable audio")
)

// Provider is a hosted speech-to-text service. Transcribe blocks until the
// full transcript is available; partial transcripts are never returned.
type Provider interface {
	Name() string

	// CheckReady verifies credentials and settings before any work starts.
	CheckReady() error

	// Transcribe submits the audio file and waits for the diarized result.
	Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error)
}

// Config carries provider credentials and settings.
type Config struct {
	// APIKey authenticates against AssemblyAI.
	APIKey string

	// BaseURL overrides the AssemblyAI endpoint; used by tests.
	BaseURL string

	// AWSRegion and AWSBucket configure the aws provider. The bucket holds
	// the uploaded audio and the job results.
	AWSRegion string
	AWSBucket string

	// LanguageCode is the spoken language of the source audio.
	LanguageCode string

	// MaxSpeakers bounds diarization.
	MaxSpeakers int
}

// New builds a provider by name. Known names: "assemblyai", "aws".
func New(ctx context.Context, name string, cfg Config) (Provider, error) {
	switch name {
	case "assemblyai", "":
		return NewAssemblyAI(cfg), nil
	case "aws":
		return NewAWS(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown transcription provider %q (want assemblyai or aws)", name)
	}
}
