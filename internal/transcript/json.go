package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// The persisted transcript uses millisecond timestamps, matching what the
// transcription APIs report.

type jsonWord struct {
	Text    string `json:"word"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

type jsonUtterance struct {
	Speaker string     `json:"speaker"`
	StartMS int64      `json:"start_ms"`
	EndMS   int64      `json:"end_ms"`
	Text    string     `json:"text"`
	Words   []jsonWord `json:"words,omitempty"`
}

type jsonTranscript struct {
	AudioDurationMS int64           `json:"audio_duration_ms"`
	Utterances      []jsonUtterance `json:"utterances"`
}

// WriteFile persists the transcript as JSON. The file is an intermediate
// artifact; the orchestrator deletes it with the other temp files.
func (t *Transcript) WriteFile(path string) error {
	doc := jsonTranscript{
		AudioDurationMS: t.AudioDuration.Milliseconds(),
		Utterances:      make([]jsonUtterance, 0, len(t.Utterances)),
	}
	for _, u := range t.Utterances {
		ju := jsonUtterance{
			Speaker: u.Speaker,
			StartMS: u.Start.Milliseconds(),
			EndMS:   u.End.Milliseconds(),
			Text:    u.Text,
		}
		for _, w := range u.Words {
			ju.Words = append(ju.Words, jsonWord{
				Text:    w.Text,
				StartMS: w.Start.Milliseconds(),
				EndMS:   w.End.Milliseconds(),
			})
		}
		doc.Utterances = append(doc.Utterances, ju)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile loads a transcript previously written with WriteFile.
func ReadFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc jsonTranscript
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}

	t := &Transcript{
		AudioDuration: time.Duration(doc.AudioDurationMS) * time.Millisecond,
		Utterances:    make([]Utterance, 0, len(doc.Utterances)),
	}
	for _, ju := range doc.Utterances {
		u := Utterance{
			Speaker: ju.Speaker,
			Start:   time.Duration(ju.StartMS) * time.Millisecond,
			End:     time.Duration(ju.EndMS) * time.Millisecond,
			Text:    ju.Text,
		}
		for _, jw := range ju.Words {
			u.Words = append(u.Words, Word{
				Text:  jw.Text,
				Start: time.Duration(jw.StartMS) * time.Millisecond,
				End:   time.Duration(jw.EndMS) * time.Millisecond,
			})
		}
		t.Utterances = append(t.Utterances, u)
	}
	return t, nil
}
