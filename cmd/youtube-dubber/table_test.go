package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"youtube-dubber/internal/pipeline"
)

func TestPrintResultsPlainWhenNotTTY(t *testing.T) {
	done := pipeline.NewJob("https://youtu.be/ok")
	done.Channel = "Chan"
	done.Complete("/out/Chan.mp4")

	failed := pipeline.NewJob("https://youtu.be/bad")
	failed.Fail(errors.New("video unavailable"))

	var buf bytes.Buffer
	printResults(&buf, []*pipeline.Job{done, failed})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "/out/Chan.mp4") || !strings.Contains(lines[0], "completed") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "video unavailable") || !strings.Contains(lines[1], "failed") {
		t.Errorf("line 1 = %q", lines[1])
	}
}
