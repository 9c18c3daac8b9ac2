package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"youtube-dubber/internal/config"
	"youtube-dubber/internal/httpx"
	"youtube-dubber/internal/logger"
	"youtube-dubber/internal/transcript"
)

// AssemblyAI transcribes audio with speaker diarization and word-level
// timestamps via the AssemblyAI REST API: upload the file, submit a
// transcript job, poll until it completes.
type AssemblyAI struct {
	apiKey  string
	baseURL string
	client  *http.Client

	pollInterval time.Duration
}

// NewAssemblyAI creates an AssemblyAI provider.
func NewAssemblyAI(cfg Config) *AssemblyAI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.AssemblyAIBaseURL
	}
	return &AssemblyAI{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       httpx.NewDefaultClient(),
		pollInterval: config.TranscriptPollInterval,
	}
}

// Name returns the provider name.
func (a *AssemblyAI) Name() string { return "assemblyai" }

// CheckReady verifies the API key is set.
func (a *AssemblyAI) CheckReady() error {
	if a.apiKey == "" {
		return fmt.Errorf("%w: AssemblyAI API key is required (set ASSEMBLYAI_API_KEY or --api-key)", ErrAuth)
	}
	return nil
}

type aaiUploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type aaiWord struct {
	Text  string `json:"text"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

type aaiUtterance struct {
	Speaker string    `json:"speaker"`
	Start   int64     `json:"start"`
	End     int64     `json:"end"`
	Text    string    `json:"text"`
	Words   []aaiWord `json:"words"`
}

type aaiTranscript struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Error         string         `json:"error"`
	AudioDuration float64        `json:"audio_duration"` // seconds
	Utterances    []aaiUtterance `json:"utterances"`
}

// Transcribe uploads the audio, requests a diarized transcript, and polls
// until the job finishes.
func (a *AssemblyAI) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	if err := a.CheckReady(); err != nil {
		return nil, err
	}

	logger.Info("AssemblyAI: uploading %s", filepath.Base(audioPath))
	audioURL, err := a.upload(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	id, err := a.submit(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("submit transcript job: %w", err)
	}
	logger.Info("AssemblyAI: transcript %s submitted, polling", id)

	result, err := a.poll(ctx, id)
	if err != nil {
		return nil, err
	}

	ts := convertAssemblyAI(result)
	if len(ts.Utterances) == 0 {
		return nil, fmt.Errorf("%w: transcript contains no utterances", ErrBadMedia)
	}
	logger.Info("AssemblyAI: %d utterances, %d speakers", len(ts.Utterances), len(ts.Speakers()))
	return ts, nil
}

func (a *AssemblyAI) upload(ctx context.Context, audioPath string) (string, error) {
	// The upload endpoint takes the raw file body. Read it up front so the
	// retry layer can rewind between attempts; downloaded audio is a few
	// tens of MB at most.
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/upload", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out aaiUploadResponse
	if err := a.doJSON(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload response missing upload_url")
	}
	return out.UploadURL, nil
}

func (a *AssemblyAI) submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"audio_url":      audioURL,
		"speaker_labels": true,
		"punctuate":      true,
		"format_text":    true,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out aaiTranscript
	if err := a.doJSON(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("transcript response missing id")
	}
	return out.ID, nil
}

func (a *AssemblyAI) poll(ctx context.Context, id string) (*aaiTranscript, error) {
	deadline := time.Now().Add(config.TranscriptPollTimeout)
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v2/transcript/"+id, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", a.apiKey)

		var out aaiTranscript
		if err := a.doJSON(req, &out); err != nil {
			return nil, err
		}

		switch out.Status {
		case "completed":
			return &out, nil
		case "error":
			return nil, classifyJobError(out.Error)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("transcript %s not finished after %v", id, config.TranscriptPollTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// doJSON performs the request with retry and decodes the JSON response,
// mapping HTTP failure codes to the provider error classes.
func (a *AssemblyAI) doJSON(req *http.Request, out interface{}) error {
	resp, err := httpx.Do(a.client, req, httpx.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", ErrQuota, resp.StatusCode)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classifyJobError maps an AssemblyAI job error message to a failure class.
func classifyJobError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "audio") || strings.Contains(lower, "media") || strings.Contains(lower, "decod"):
		return fmt.Errorf("%w: %s", ErrBadMedia, msg)
	case strings.Contains(lower, "quota") || strings.Contains(lower, "balance"):
		return fmt.Errorf("%w: %s", ErrQuota, msg)
	default:
		return fmt.Errorf("transcription failed: %s", msg)
	}
}

func convertAssemblyAI(in *aaiTranscript) *transcript.Transcript {
	ts := &transcript.Transcript{
		AudioDuration: time.Duration(in.AudioDuration * float64(time.Second)),
		Utterances:    make([]transcript.Utterance, 0, len(in.Utterances)),
	}
	for _, u := range in.Utterances {
		out := transcript.Utterance{
			Speaker: u.Speaker,
			Start:   time.Duration(u.Start) * time.Millisecond,
			End:     time.Duration(u.End) * time.Millisecond,
			Text:    u.Text,
		}
		for _, w := range u.Words {
			out.Words = append(out.Words, transcript.Word{
				Text:  w.Text,
				Start: time.Duration(w.Start) * time.Millisecond,
				End:   time.Duration(w.End) * time.Millisecond,
			})
		}
		ts.Utterances = append(ts.Utterances, out)
	}
	ts.SortChronological()
	return ts
}
