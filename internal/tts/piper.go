package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"youtube-dubber/internal/config"
	"youtube-dubber/internal/logger"
)

// Piper runs the local Piper TTS model as a subprocess. Voice models are
// ONNX files under voicesDir, named <voice>.onnx.
type Piper struct {
	path      string
	voicesDir string
}

// NewPiper creates a Piper engine. An empty voicesDir defaults to
// ~/.piper/voices.
func NewPiper(path, voicesDir string) *Piper {
	if path == "" {
		path = "piper"
	}
	if voicesDir == "" {
		homeDir, _ := os.UserHomeDir()
		voicesDir = filepath.Join(homeDir, ".piper", "voices")
	}
	return &Piper{path: path, voicesDir: voicesDir}
}

// CheckInstalled verifies Piper is available.
func (p *Piper) CheckInstalled() error {
	cmd := exec.Command(p.path, "--help")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("piper TTS not found. Install with: pip install piper-tts")
	}
	return nil
}

// modelPath returns the ONNX model file for a voice.
func (p *Piper) modelPath(voice string) string {
	return filepath.Join(p.voicesDir, voice+".onnx")
}

// Synthesize renders req.Text with the requested voice and speed. A missing
// voice model is a synthesis failure, not a fallback case: the speaker table
// already resolved which voice to use.
func (p *Piper) Synthesize(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("empty text provided")
	}

	modelPath := p.modelPath(req.Voice)
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("voice model %s not found at %s.\nDownload from: https://huggingface.co/rhasspy/piper-voices", req.Voice, modelPath)
	}

	speed := req.Speed
	if speed <= 0 {
		speed = 1.0
	}

	logger.Debug("Piper TTS: voice=%s speed=%.2f chars=%d", req.Voice, speed, len(req.Text))

	ctx, cancel := context.WithTimeout(ctx, config.ExecTimeoutPiper)
	defer cancel()

	// Piper's length_scale stretches phoneme durations, so rate and scale
	// are reciprocal: speed 2.0 means length_scale 0.5.
	cmd := exec.CommandContext(ctx, p.path,
		"--model", modelPath,
		"--output_file", req.OutputPath,
		"--length_scale", fmt.Sprintf("%.3f", 1.0/speed),
		"--noise_scale", fmt.Sprintf("%.3f", config.PiperNoiseScale),
		"--noise_w", fmt.Sprintf("%.3f", config.PiperNoiseW),
	)
	cmd.Stdin = strings.NewReader(req.Text)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("piper synthesis failed: %w\nOutput: %s", err, string(output))
	}

	if _, err := os.Stat(req.OutputPath); err != nil {
		return fmt.Errorf("piper produced no output at %s", req.OutputPath)
	}
	return nil
}
