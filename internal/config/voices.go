package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// VoiceSettings describes how a single speaker is dubbed.
type VoiceSettings struct {
	Voice    string  `toml:"voice"`
	Language string  `toml:"language"`
	Speed    float64 `toml:"speed"`
}

// VoiceTable maps diarized speaker labels to voice settings. It is immutable
// after load; lookups of unknown labels resolve to the default entry.
type VoiceTable struct {
	Default  VoiceSettings
	Speakers map[string]VoiceSettings
}

// Lookup returns the settings for a speaker label. The second return value
// is false when the label is absent and the default entry was substituted.
func (t VoiceTable) Lookup(label string) (VoiceSettings, bool) {
	if s, ok := t.Speakers[label]; ok {
		return s, true
	}
	return t.Default, false
}

// Labels returns the configured speaker labels in sorted order.
func (t VoiceTable) Labels() []string {
	labels := make([]string, 0, len(t.Speakers))
	for label := range t.Speakers {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Validate checks every entry for a usable voice and speed.
func (t VoiceTable) Validate() error {
	check := func(label string, s VoiceSettings) error {
		if s.Voice == "" {
			return fmt.Errorf("speaker %q: voice must not be empty", label)
		}
		if s.Speed <= 0 {
			return fmt.Errorf("speaker %q: speed must be positive, got %g", label, s.Speed)
		}
		return nil
	}
	if err := check("default", t.Default); err != nil {
		return err
	}
	for label, s := range t.Speakers {
		if err := check(label, s); err != nil {
			return err
		}
	}
	return nil
}

// DefaultVoiceTable returns the built-in speaker table. AssemblyAI labels
// speakers with letters; other providers use digits, so both forms map to
// the same six voices.
func DefaultVoiceTable() VoiceTable {
	voices := []VoiceSettings{
		{Voice: "en_US-amy-medium", Language: "en", Speed: 1.0},
		{Voice: "en_US-lessac-medium", Language: "en", Speed: 1.0},
		{Voice: "en_US-ryan-medium", Language: "en", Speed: 1.0},
		{Voice: "en_GB-alba-medium", Language: "en", Speed: 1.0},
		{Voice: "en_GB-aru-medium", Language: "en", Speed: 1.0},
		{Voice: "en_AU-natasha-medium", Language: "en", Speed: 1.0},
	}

	speakers := make(map[string]VoiceSettings, 2*len(voices))
	for i, v := range voices {
		speakers[string(rune('A'+i))] = v
		speakers[string(rune('0'+i))] = v
	}

	return VoiceTable{
		Default:  voices[0],
		Speakers: speakers,
	}
}

// voiceFile is the on-disk TOML shape of a speaker table.
type voiceFile struct {
	DefaultSpeaker string                   `toml:"default_speaker"`
	Speakers       map[string]VoiceSettings `toml:"speakers"`
}

// LoadVoiceTable reads a speaker table from a TOML file. Unknown keys are a
// load-time error so typos in speaker settings never silently fall through
// to defaults. Omitted speeds default to 1.0.
func LoadVoiceTable(path string) (VoiceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return VoiceTable{}, fmt.Errorf("open speaker table: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()

	var file voiceFile
	if err := dec.Decode(&file); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return VoiceTable{}, fmt.Errorf("speaker table %s: unknown keys:\n%s", path, strict.String())
		}
		return VoiceTable{}, fmt.Errorf("parse speaker table %s: %w", path, err)
	}

	if len(file.Speakers) == 0 {
		return VoiceTable{}, fmt.Errorf("speaker table %s: no speakers defined", path)
	}

	for label, s := range file.Speakers {
		if s.Speed == 0 {
			s.Speed = 1.0
			file.Speakers[label] = s
		}
	}

	def, ok := file.Speakers[file.DefaultSpeaker]
	if file.DefaultSpeaker == "" {
		def = DefaultVoiceTable().Default
	} else if !ok {
		return VoiceTable{}, fmt.Errorf("speaker table %s: default_speaker %q not defined", path, file.DefaultSpeaker)
	}

	table := VoiceTable{Default: def, Speakers: file.Speakers}
	if err := table.Validate(); err != nil {
		return VoiceTable{}, fmt.Errorf("speaker table %s: %w", path, err)
	}
	return table, nil
}
