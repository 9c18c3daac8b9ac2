// Package dub assembles a dubbed audio track from a diarized transcript:
// synthesized speech for each utterance, silence for the pauses between them.
package dub

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"youtube-dubber/internal/config"
	"youtube-dubber/internal/logger"
	"youtube-dubber/internal/transcript"
	"youtube-dubber/internal/tts"
)

// MediaOps is the subset of media operations the assembler needs.
// *media.FFmpegService satisfies it.
type MediaOps interface {
	GenerateSilence(duration float64, outputPath string) error
	ConcatAudioFiles(inputPaths []string, outputPath string) error
	GetDuration(mediaPath string) (float64, error)
}

// Stats summarizes one assembly run.
type Stats struct {
	// Utterances is the number of utterances rendered, spoken or silent.
	Utterances int

	// Silences is the number of inter-utterance silence segments inserted.
	Silences int

	// Refitted counts utterances re-synthesized at higher speed to fit
	// their original timing window.
	Refitted int
}

// Assembler turns a transcript into a single dub track.
type Assembler struct {
	engine tts.Engine
	media  MediaOps
	voices config.VoiceTable
}

// NewAssembler creates an assembler using the given TTS engine, media
// operations, and speaker table.
func NewAssembler(engine tts.Engine, media MediaOps, voices config.VoiceTable) *Assembler {
	return &Assembler{engine: engine, media: media, voices: voices}
}

// Assemble renders every utterance and gap into workDir and concatenates
// them into outputPath. Utterance order follows the transcript timeline.
// Gaps are clamped to [0, MaxUtteranceGap] so dead air never dominates the
// dub; gaps shorter than MinSilenceGap are absorbed into adjacent speech.
func (a *Assembler) Assemble(ctx context.Context, t *transcript.Transcript, workDir, outputPath string) (Stats, error) {
	var stats Stats

	if len(t.Utterances) == 0 {
		return stats, fmt.Errorf("transcript has no utterances")
	}

	t.SortChronological()
	logger.Info("Assembling dub track: %d utterances, %d speakers",
		len(t.Utterances), len(t.Speakers()))

	var segments []string
	warned := make(map[string]bool)

	// The span before the first utterance is treated like any other gap,
	// clamp included: a long intro is compressed to MaxUtteranceGap, which
	// trades exact start alignment for not opening the dub with dead air.
	if lead := clampGap(t.Utterances[0].Start); lead >= config.MinSilenceGap {
		path := filepath.Join(workDir, "gap_lead.wav")
		if err := a.media.GenerateSilence(lead.Seconds(), path); err != nil {
			return stats, fmt.Errorf("leading silence: %w", err)
		}
		segments = append(segments, path)
		stats.Silences++
	}

	for i, u := range t.Utterances {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		settings, known := a.voices.Lookup(u.Speaker)
		if !known && !warned[u.Speaker] {
			warned[u.Speaker] = true
			logger.Warn("Speaker %q not in the speaker table, using default voice %s",
				u.Speaker, settings.Voice)
		}

		path := filepath.Join(workDir, fmt.Sprintf("utt_%04d.wav", i))
		switch {
		case u.IsEmpty() && u.Duration() < config.MinSilenceGap:
			// Nothing to render; too short to matter on the timeline.
			path = ""
		case u.IsEmpty():
			// Diarization sometimes emits windows with no speakable
			// text. Keep the timeline intact with silence.
			if err := a.media.GenerateSilence(u.Duration().Seconds(), path); err != nil {
				return stats, fmt.Errorf("utterance %d silence: %w", i, err)
			}
		default:
			refitted, err := a.synthesize(ctx, u, settings, path)
			if err != nil {
				return stats, fmt.Errorf("utterance %d (%s): %w", i, u.Speaker, err)
			}
			if refitted {
				stats.Refitted++
				path = refitPath(path)
			}
		}
		if path != "" {
			segments = append(segments, path)
		}
		stats.Utterances++

		if gap := clampGap(t.GapAfter(i)); i < len(t.Utterances)-1 && gap >= config.MinSilenceGap {
			gapPath := filepath.Join(workDir, fmt.Sprintf("gap_%04d.wav", i))
			if err := a.media.GenerateSilence(gap.Seconds(), gapPath); err != nil {
				return stats, fmt.Errorf("gap after utterance %d: %w", i, err)
			}
			segments = append(segments, gapPath)
			stats.Silences++
		}
	}

	if err := a.media.ConcatAudioFiles(segments, outputPath); err != nil {
		return stats, fmt.Errorf("concat dub track: %w", err)
	}

	logger.Info("Dub track assembled: %d utterances, %d silences, %d refitted",
		stats.Utterances, stats.Silences, stats.Refitted)
	return stats, nil
}

// synthesize renders one utterance and, when the clip runs long past its
// original window, re-synthesizes it faster. Returns whether a refit
// happened; the refitted clip lives at refitPath(path).
func (a *Assembler) synthesize(ctx context.Context, u transcript.Utterance, settings config.VoiceSettings, path string) (bool, error) {
	req := tts.Request{
		Text:       u.Text,
		Voice:      settings.Voice,
		Language:   settings.Language,
		Speed:      settings.Speed,
		OutputPath: path,
	}
	if err := a.engine.Synthesize(ctx, req); err != nil {
		return false, err
	}

	window := u.Duration().Seconds()
	if window <= 0 {
		return false, nil
	}

	clip, err := a.media.GetDuration(path)
	if err != nil {
		return false, fmt.Errorf("measure clip: %w", err)
	}
	if clip <= window*config.WindowTolerance {
		return false, nil
	}

	speed := settings.Speed * clip / window
	if speed > config.MaxSynthesisSpeed {
		speed = config.MaxSynthesisSpeed
	}
	logger.Debug("Utterance overruns window (%.2fs > %.2fs), refitting at speed %.2f",
		clip, window, speed)

	// Write to a fresh path so cached durations stay valid.
	req.Speed = speed
	req.OutputPath = refitPath(path)
	if err := a.engine.Synthesize(ctx, req); err != nil {
		return false, fmt.Errorf("refit synthesis: %w", err)
	}
	return true, nil
}

func refitPath(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + "_fit" + ext
}

// clampGap bounds a gap to [0, MaxUtteranceGap]. Negative gaps come from
// overlapping diarization windows.
func clampGap(gap time.Duration) time.Duration {
	if gap < 0 {
		return 0
	}
	if gap > config.MaxUtteranceGap {
		return config.MaxUtteranceGap
	}
	return gap
}
