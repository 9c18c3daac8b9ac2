// Package config provides centralized constants and the speaker voice table
// for the youtube-dubber pipeline.
package config

import "time"

// Audio settings
const (
	// AudioSampleRate is the sample rate of the assembled dub track.
	// Matches Piper's 24 kHz output so concatenation never resamples speech.
	AudioSampleRate = 24000

	// MinSilenceGap is the smallest inter-utterance gap worth rendering.
	// Gaps below this are absorbed into the neighboring speech.
	MinSilenceGap = 10 * time.Millisecond

	// MaxUtteranceGap caps the silence inserted between utterances.
	// Long dead air in the source (ad breaks, music beds) would otherwise
	// dominate the dub.
	MaxUtteranceGap = 5 * time.Second

	// WindowTolerance is how far synthesized speech may exceed the original
	// utterance window before it is re-synthesized at a higher speed.
	WindowTolerance = 1.2

	// MaxSynthesisSpeed caps the speed-up applied when fitting speech into
	// its utterance window.
	MaxSynthesisSpeed = 2.0
)

// Mux settings for the final output container.
const (
	MuxAudioCodec   = "aac"
	MuxAudioBitrate = "192k"
)

// Worker pool sizes
const (
	// DefaultDownloadWorkers bounds concurrent yt-dlp invocations across URLs.
	DefaultDownloadWorkers = 2

	// MaxDownloadWorkers is the hard upper bound for --workers.
	MaxDownloadWorkers = 8
)

// Retry settings
const (
	DefaultMaxRetries     = 3
	DefaultRetryDelayBase = time.Second
)

// HTTP client settings
const (
	HTTPTimeout             = 2 * time.Minute
	HTTPMaxIdleConns        = 10
	HTTPMaxIdleConnsPerHost = 10
	HTTPIdleConnTimeout     = 90 * time.Second
)

// Transcription settings
const (
	AssemblyAIBaseURL      = "https://api.assemblyai.com"
	TranscriptPollInterval = 3 * time.Second
	TranscriptPollTimeout  = 30 * time.Minute

	AWSPollInterval = 10 * time.Second
	MaxSpeakers     = 6
)

// Piper prosody settings
const (
	PiperNoiseScale = 0.667 // balanced pronunciation variability
	PiperNoiseW     = 0.8   // natural phoneme duration variance
)

// Exec command timeouts (for os/exec calls)
const (
	ExecTimeoutYtdlp  = 20 * time.Minute
	ExecTimeoutFFmpeg = 10 * time.Minute
	ExecTimeoutPiper  = 5 * time.Minute
)
