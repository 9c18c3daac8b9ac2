// Package media provides audio/video processing utilities using FFmpeg.
package media

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"youtube-dubber/internal/config"
	"youtube-dubber/internal/logger"
)

// FFmpegService wraps FFmpeg commands for audio/video processing.
type FFmpegService struct {
	ffmpegPath  string
	ffprobePath string
	cache       *DurationCache
}

// NewFFmpegService creates a new FFmpeg service with auto-detected paths.
func NewFFmpegService() *FFmpegService {
	paths := []string{
		"/usr/local/bin/ffmpeg",
		"/usr/bin/ffmpeg",
		"/opt/homebrew/bin/ffmpeg",
		"ffmpeg",
	}

	ffmpegPath := "ffmpeg"
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			ffmpegPath = p
			break
		}
	}

	return NewFFmpegServiceWithPath(ffmpegPath)
}

// NewFFmpegServiceWithPath creates a new FFmpeg service with a custom path.
func NewFFmpegServiceWithPath(path string) *FFmpegService {
	return &FFmpegService{
		ffmpegPath:  path,
		ffprobePath: strings.Replace(path, "ffmpeg", "ffprobe", 1),
		cache:       NewDurationCache(),
	}
}

// CheckInstalled verifies FFmpeg is available.
func (s *FFmpegService) CheckInstalled() error {
	cmd := exec.Command(s.ffmpegPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", s.ffmpegPath, err)
	}
	return nil
}

// GetDuration returns the duration of a media file in seconds. Results are
// cached to avoid repeated ffprobe calls.
func (s *FFmpegService) GetDuration(mediaPath string) (float64, error) {
	if duration, ok := s.cache.Get(mediaPath); ok {
		return duration, nil
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	}

	cmd := exec.Command(s.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &duration); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	s.cache.Set(mediaPath, duration)
	return duration, nil
}

// GenerateSilence creates a silent audio file of the specified duration,
// matching the dub track's sample rate and channel layout.
func (s *FFmpegService) GenerateSilence(duration float64, outputPath string) error {
	if err := ensureDir(outputPath); err != nil {
		return err
	}

	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono:d=%.3f", config.AudioSampleRate, duration),
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", config.AudioSampleRate),
		"-ac", "1",
		"-y",
		outputPath,
	}

	return s.run(args, "silence generation")
}

// ConcatAudioFiles concatenates multiple audio files into one PCM track.
func (s *FFmpegService) ConcatAudioFiles(inputPaths []string, outputPath string) error {
	logger.Debug("FFmpeg: concatenating %d audio segments", len(inputPaths))

	if len(inputPaths) == 0 {
		return fmt.Errorf("no input files provided")
	}

	if err := ensureDir(outputPath); err != nil {
		return err
	}

	listPath := filepath.Join(filepath.Dir(outputPath), "concat_list.txt")
	var listContent strings.Builder
	for _, p := range inputPaths {
		listContent.WriteString(fmt.Sprintf("file '%s'\n", p))
	}

	if err := os.WriteFile(listPath, []byte(listContent.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", config.AudioSampleRate),
		"-ac", "1",
		"-y",
		outputPath,
	}

	return s.run(args, "concat")
}

// Combine muxes the original video stream with the dubbed audio track. The
// video stream is copied unchanged, audio is re-encoded to AAC 192k, and
// the output is truncated to the shorter of the two inputs.
func (s *FFmpegService) Combine(videoPath, audioPath, outputPath string) error {
	logger.Info("FFmpeg: combining video + dub audio -> %s", filepath.Base(outputPath))

	if err := ensureDir(outputPath); err != nil {
		return err
	}

	args := []string{
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-map", "0:v",
		"-map", "1:a",
		"-c:a", config.MuxAudioCodec,
		"-b:a", config.MuxAudioBitrate,
		"-shortest",
		"-y",
		outputPath,
	}

	return s.run(args, "combine")
}

// run executes an FFmpeg command and returns any error.
func (s *FFmpegService) run(args []string, operation string) error {
	cmd := exec.Command(s.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s failed: %w\nOutput: %s", operation, err, string(output))
	}
	return nil
}

// ensureDir creates the parent directory for a file path.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
