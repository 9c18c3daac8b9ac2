// Package transcript defines the diarized transcript model shared by the
// transcription providers and the dub assembler.
package transcript

import (
	"sort"
	"strings"
	"time"
)

// Word is a single word with its timing.
type Word struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Utterance is one contiguous speech segment attributed to a single speaker.
type Utterance struct {
	Speaker string
	Start   time.Duration
	End     time.Duration
	Text    string
	Words   []Word
}

// Duration returns the length of the utterance window.
func (u Utterance) Duration() time.Duration {
	return u.End - u.Start
}

// IsEmpty returns true if the utterance has no speakable text.
func (u Utterance) IsEmpty() bool {
	return strings.TrimSpace(u.Text) == ""
}

// Transcript is the immutable result of transcribing one audio file.
type Transcript struct {
	Utterances    []Utterance
	AudioDuration time.Duration
}

// SortChronological orders utterances by start time. Providers usually
// return them ordered already; diarization overlaps occasionally do not.
func (t *Transcript) SortChronological() {
	sort.SliceStable(t.Utterances, func(i, j int) bool {
		return t.Utterances[i].Start < t.Utterances[j].Start
	})
}

// GapAfter returns the pause between utterance i and the next one. The last
// utterance has no gap. Overlapping utterances yield a negative value; the
// assembler clamps it.
func (t *Transcript) GapAfter(i int) time.Duration {
	if i < 0 || i >= len(t.Utterances)-1 {
		return 0
	}
	return t.Utterances[i+1].Start - t.Utterances[i].End
}

// Speakers returns the distinct speaker labels in order of first appearance.
func (t *Transcript) Speakers() []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, u := range t.Utterances {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			speakers = append(speakers, u.Speaker)
		}
	}
	return speakers
}

// End returns the end time of the last utterance.
func (t *Transcript) End() time.Duration {
	var end time.Duration
	for _, u := range t.Utterances {
		if u.End > end {
			end = u.End
		}
	}
	return end
}
