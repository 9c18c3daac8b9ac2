package transcription

import (
	"context"
	"testing"
)

func TestNewDefaultsToAssemblyAI(t *testing.T) {
	p, err := New(context.Background(), "", Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if p.Name() != "assemblyai" {
		t.Errorf("Name() = %q, want assemblyai", p.Name())
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), "whisper", Config{}); err == nil {
		t.Fatal("unknown provider should be rejected")
	}
}
