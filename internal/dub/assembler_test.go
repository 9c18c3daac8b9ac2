package dub

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"youtube-dubber/internal/config"
	"youtube-dubber/internal/transcript"
	"youtube-dubber/internal/tts"
)

// fakeEngine records synthesis requests without running Piper.
type fakeEngine struct {
	requests []tts.Request
	// clipSeconds maps utterance text to the duration the fake media ops
	// will report for the synthesized clip.
	clipSeconds map[string]float64
	failOn      string
}

func (f *fakeEngine) CheckInstalled() error { return nil }

func (f *fakeEngine) Synthesize(_ context.Context, req tts.Request) error {
	if f.failOn != "" && strings.Contains(req.Text, f.failOn) {
		return fmt.Errorf("synthesis refused")
	}
	f.requests = append(f.requests, req)
	return nil
}

// fakeMedia records silence and concat calls without running ffmpeg.
type fakeMedia struct {
	engine   *fakeEngine
	silences []float64
	concats  [][]string
}

func (f *fakeMedia) GenerateSilence(duration float64, outputPath string) error {
	f.silences = append(f.silences, duration)
	return nil
}

func (f *fakeMedia) ConcatAudioFiles(inputPaths []string, outputPath string) error {
	f.concats = append(f.concats, inputPaths)
	return nil
}

func (f *fakeMedia) GetDuration(mediaPath string) (float64, error) {
	// Report the duration registered for the last synthesized text.
	for i := len(f.engine.requests) - 1; i >= 0; i-- {
		if f.engine.requests[i].OutputPath == mediaPath {
			if d, ok := f.engine.clipSeconds[f.engine.requests[i].Text]; ok {
				return d, nil
			}
			return 1.0, nil
		}
	}
	return 1.0, nil
}

func newFakes() (*fakeEngine, *fakeMedia) {
	engine := &fakeEngine{clipSeconds: map[string]float64{}}
	return engine, &fakeMedia{engine: engine}
}

func utt(speaker string, start, end time.Duration, text string) transcript.Utterance {
	return transcript.Utterance{Speaker: speaker, Start: start, End: end, Text: text}
}

func TestAssembleRendersEveryUtterance(t *testing.T) {
	engine, media := newFakes()
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("A", 0, 2*time.Second, "Hello there."),
		utt("B", 3*time.Second, 5*time.Second, "Hi."),
		utt("A", 5*time.Second, 7*time.Second, "How are you?"),
	}}

	stats, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Utterances != 3 {
		t.Errorf("Utterances = %d, want 3", stats.Utterances)
	}
	if len(engine.requests) != 3 {
		t.Errorf("synthesized %d clips, want 3", len(engine.requests))
	}
	// One 1s gap between utterances 0 and 1; the 0s gap after 1 and the
	// zero lead are dropped.
	if stats.Silences != 1 {
		t.Errorf("Silences = %d, want 1", stats.Silences)
	}
	if len(media.concats) != 1 {
		t.Fatalf("ConcatAudioFiles called %d times", len(media.concats))
	}
	if got := len(media.concats[0]); got != 4 {
		t.Errorf("concat got %d segments, want 4", got)
	}
}

func TestAssembleClampsLongGap(t *testing.T) {
	engine, media := newFakes()
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("A", 0, time.Second, "Before the break."),
		utt("A", 2*time.Minute, 2*time.Minute+time.Second, "After the break."),
	}}

	if _, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav"); err != nil {
		t.Fatal(err)
	}
	if len(media.silences) != 1 {
		t.Fatalf("silences = %v", media.silences)
	}
	if got := media.silences[0]; got != config.MaxUtteranceGap.Seconds() {
		t.Errorf("gap = %gs, want clamp at %gs", got, config.MaxUtteranceGap.Seconds())
	}
}

func TestAssembleLeadSilenceClamped(t *testing.T) {
	engine, media := newFakes()
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	// A long intro before any speech is compressed like any other gap.
	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("A", 30*time.Second, 31*time.Second, "Finally, words."),
	}}

	if _, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav"); err != nil {
		t.Fatal(err)
	}
	if len(media.silences) != 1 {
		t.Fatalf("silences = %v, want one lead segment", media.silences)
	}
	if got := media.silences[0]; got != config.MaxUtteranceGap.Seconds() {
		t.Errorf("lead silence = %gs, want clamp at %gs", got, config.MaxUtteranceGap.Seconds())
	}
}

func TestAssembleNegativeGapDropped(t *testing.T) {
	engine, media := newFakes()
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	// Overlapping diarization windows.
	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("A", 0, 3*time.Second, "We were just saying"),
		utt("B", 2*time.Second, 4*time.Second, "right, exactly"),
	}}

	if _, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav"); err != nil {
		t.Fatal(err)
	}
	if len(media.silences) != 0 {
		t.Errorf("overlap should produce no silence, got %v", media.silences)
	}
}

func TestAssembleEmptyUtteranceBecomesSilence(t *testing.T) {
	engine, media := newFakes()
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("A", 0, 2*time.Second, "   "),
		utt("A", 2*time.Second, 3*time.Second, "Actual speech."),
	}}

	stats, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav")
	if err != nil {
		t.Fatal(err)
	}
	if len(engine.requests) != 1 {
		t.Errorf("synthesized %d clips, want 1", len(engine.requests))
	}
	if stats.Utterances != 2 {
		t.Errorf("Utterances = %d, want 2", stats.Utterances)
	}
	// The empty utterance renders as a 2s silence segment.
	if len(media.silences) != 1 || media.silences[0] != 2.0 {
		t.Errorf("silences = %v, want [2]", media.silences)
	}
}

func TestAssembleUnknownSpeakerFallsBack(t *testing.T) {
	engine, media := newFakes()
	table := config.VoiceTable{
		Default:  config.VoiceSettings{Voice: "en_US-amy-medium", Language: "en", Speed: 1.0},
		Speakers: map[string]config.VoiceSettings{"A": {Voice: "en_US-ryan-medium", Language: "en", Speed: 1.0}},
	}
	a := NewAssembler(engine, media, table)

	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("Z", 0, time.Second, "Who am I?"),
	}}

	if _, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav"); err != nil {
		t.Fatal(err)
	}
	if engine.requests[0].Voice != "en_US-amy-medium" {
		t.Errorf("unknown speaker got voice %q, want the default", engine.requests[0].Voice)
	}
}

func TestAssembleRefitsOverrunningClip(t *testing.T) {
	engine, media := newFakes()
	// 2s window, 3s clip: past the 1.2x tolerance, refit at 1.5x.
	engine.clipSeconds["A very long sentence."] = 3.0
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("A", 0, 2*time.Second, "A very long sentence."),
	}}

	stats, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Refitted != 1 {
		t.Fatalf("Refitted = %d, want 1", stats.Refitted)
	}
	if len(engine.requests) != 2 {
		t.Fatalf("synthesized %d clips, want 2", len(engine.requests))
	}
	if got := engine.requests[1].Speed; got != 1.5 {
		t.Errorf("refit speed = %g, want 1.5", got)
	}
	if !strings.HasSuffix(engine.requests[1].OutputPath, "_fit.wav") {
		t.Errorf("refit path = %q", engine.requests[1].OutputPath)
	}
}

func TestAssembleRefitSpeedCapped(t *testing.T) {
	engine, media := newFakes()
	// 1s window, 10s clip: uncapped refit speed would be 10x.
	engine.clipSeconds["Rapid fire."] = 10.0
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("A", 0, time.Second, "Rapid fire."),
	}}

	if _, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav"); err != nil {
		t.Fatal(err)
	}
	if got := engine.requests[1].Speed; got != config.MaxSynthesisSpeed {
		t.Errorf("refit speed = %g, want cap %g", got, config.MaxSynthesisSpeed)
	}
}

func TestAssembleEmptyTranscript(t *testing.T) {
	engine, media := newFakes()
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	if _, err := a.Assemble(context.Background(), &transcript.Transcript{}, t.TempDir(), "dub.wav"); err == nil {
		t.Error("empty transcript should be rejected")
	}
}

func TestAssembleSynthesisFailureStops(t *testing.T) {
	engine, media := newFakes()
	engine.failOn = "broken"
	a := NewAssembler(engine, media, config.DefaultVoiceTable())

	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		utt("A", 0, time.Second, "fine"),
		utt("A", time.Second, 2*time.Second, "broken utterance"),
	}}

	_, err := a.Assemble(context.Background(), tr, t.TempDir(), "dub.wav")
	if err == nil {
		t.Fatal("synthesis failure should abort assembly")
	}
	if len(media.concats) != 0 {
		t.Error("no concat should happen after a failure")
	}
}
