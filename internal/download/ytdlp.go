// Package download wraps yt-dlp for fetching separate video-only and
// audio-only streams of a YouTube URL.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"youtube-dubber/internal/config"
	"youtube-dubber/internal/logger"
)

// ErrToolMissing means yt-dlp is not on the system path.
var ErrToolMissing = errors.New("yt-dlp is not installed or not in PATH")

// videoTemplate is the yt-dlp output template for the video-only stream.
// The real extension is only known after yt-dlp picks a format.
const videoTemplate = "source_video.%(ext)s"

// Client invokes yt-dlp.
type Client struct {
	path string
}

// New creates a yt-dlp client, resolving the executable from PATH.
func New() *Client {
	path, err := exec.LookPath("yt-dlp")
	if err != nil {
		path = "yt-dlp"
	}
	return &Client{path: path}
}

// NewWithPath creates a yt-dlp client with an explicit executable path.
func NewWithPath(path string) *Client {
	return &Client{path: path}
}

// CheckInstalled verifies yt-dlp is available.
func (c *Client) CheckInstalled() error {
	cmd := exec.Command(c.path, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrToolMissing, err)
	}
	return nil
}

// ChannelName fetches the channel name for a video URL, sanitized for use
// as a filename. An empty channel is an error; the caller skips the URL.
func (c *Client) ChannelName(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.ExecTimeoutYtdlp)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.path, "--print", "channel", "--no-playlist", url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("get channel for %s: %w: %s", url, err, strings.TrimSpace(stderr.String()))
	}

	channel := SanitizeFilename(strings.TrimSpace(stdout.String()))
	if channel == "" {
		return "", fmt.Errorf("no channel name retrieved for %s", url)
	}
	return channel, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_-]`)

// SanitizeFilename makes a string safe for filenames: spaces become
// underscores, then everything that is not a letter, digit, underscore,
// or hyphen is stripped.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	return unsafeFilenameChars.ReplaceAllString(name, "")
}

// FetchAudio downloads the audio-only stream as MP3 to outputPath.
func (c *Client) FetchAudio(ctx context.Context, url, outputPath string) error {
	logger.Info("yt-dlp: downloading audio -> %s", filepath.Base(outputPath))

	ctx, cancel := context.WithTimeout(ctx, config.ExecTimeoutYtdlp)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.path,
		"-x",
		"--audio-format", "mp3",
		"-o", outputPath,
		"--no-playlist",
		url,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("audio download failed: %w\nOutput: %s", err, string(output))
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("audio file %s not found after download", outputPath)
	}
	return nil
}

// FetchVideo downloads the best video-only stream into dir and returns the
// resulting file path. yt-dlp reports the destination on stdout; if that
// line is absent (e.g. a cached fragment merge), the directory is scanned
// for the template prefix instead.
func (c *Client) FetchVideo(ctx context.Context, url, dir string) (string, error) {
	logger.Info("yt-dlp: downloading video-only stream")

	ctx, cancel := context.WithTimeout(ctx, config.ExecTimeoutYtdlp)
	defer cancel()

	template := filepath.Join(dir, videoTemplate)
	cmd := exec.CommandContext(ctx, c.path,
		"-f", "bestvideo",
		"-o", template,
		"--no-playlist",
		url,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("video download failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	videoPath := parseDestination(stdout.String())
	if videoPath == "" {
		videoPath = findVideoFile(dir)
	}
	if videoPath == "" {
		return "", fmt.Errorf("could not determine the downloaded video file in %s", dir)
	}
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("downloaded video file %s not found", videoPath)
	}
	return videoPath, nil
}

// parseDestination extracts the output path from yt-dlp's
// "[download] Destination: ..." progress line.
func parseDestination(output string) string {
	const marker = "[download] Destination: "
	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, marker); idx >= 0 {
			return strings.TrimSpace(line[idx+len(marker):])
		}
	}
	return ""
}

// findVideoFile scans dir for a file matching the video template prefix.
func findVideoFile(dir string) string {
	prefix := strings.SplitN(videoTemplate, ".", 2)[0]
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix+".") {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

// Streams holds the paths of the two downloaded streams.
type Streams struct {
	AudioPath string
	VideoPath string
}

// FetchStreams downloads the audio and video streams concurrently into dir.
// Both must succeed; the first error wins.
func (c *Client) FetchStreams(ctx context.Context, url, dir string) (Streams, error) {
	audioPath := filepath.Join(dir, "source_audio.mp3")

	var (
		wg        sync.WaitGroup
		videoPath string
		audioErr  error
		videoErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		audioErr = c.FetchAudio(ctx, url, audioPath)
	}()
	go func() {
		defer wg.Done()
		videoPath, videoErr = c.FetchVideo(ctx, url, dir)
	}()
	wg.Wait()

	if audioErr != nil {
		return Streams{}, audioErr
	}
	if videoErr != nil {
		return Streams{}, videoErr
	}
	return Streams{AudioPath: audioPath, VideoPath: videoPath}, nil
}
