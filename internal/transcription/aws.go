package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"youtube-dubber/internal/config"
	"youtube-dubber/internal/logger"
	"youtube-dubber/internal/transcript"
)

// AWS transcribes audio with Amazon Transcribe: the file is uploaded to S3,
// a transcription job with speaker diarization runs against it, and the
// result JSON is fetched back from the same bucket.
type AWS struct {
	s3Client         *s3.Client
	transcribeClient *transcribe.Client
	bucket           string
	languageCode     string
	maxSpeakers      int
	pollInterval     time.Duration
}

// NewAWS creates an Amazon Transcribe provider using the default AWS
// credential chain.
func NewAWS(ctx context.Context, cfg Config) (*AWS, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	languageCode := cfg.LanguageCode
	if languageCode == "" {
		languageCode = "en-US"
	}
	maxSpeakers := cfg.MaxSpeakers
	if maxSpeakers <= 0 {
		maxSpeakers = config.MaxSpeakers
	}

	return &AWS{
		s3Client:         s3.NewFromConfig(awsCfg),
		transcribeClient: transcribe.NewFromConfig(awsCfg),
		bucket:           cfg.AWSBucket,
		languageCode:     languageCode,
		maxSpeakers:      maxSpeakers,
		pollInterval:     config.AWSPollInterval,
	}, nil
}

// Name returns the provider name.
func (a *AWS) Name() string { return "aws" }

// CheckReady verifies the provider settings.
func (a *AWS) CheckReady() error {
	if a.bucket == "" {
		return fmt.Errorf("aws provider requires an S3 bucket (--aws-bucket)")
	}
	return nil
}

// Transcribe uploads the audio to S3, runs a diarized transcription job,
// and converts the result.
func (a *AWS) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	if err := a.CheckReady(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	mediaKey := fmt.Sprintf("uploads/%s%s", id, filepath.Ext(audioPath))
	jobName := "youtube-dubber-" + id

	logger.Info("AWS Transcribe: uploading %s to s3://%s/%s", filepath.Base(audioPath), a.bucket, mediaKey)
	if err := a.uploadToS3(ctx, mediaKey, audioPath); err != nil {
		return nil, fmt.Errorf("upload audio to S3: %w", err)
	}

	if err := a.startJob(ctx, jobName, mediaKey, audioPath); err != nil {
		return nil, fmt.Errorf("start transcription job: %w", err)
	}
	logger.Info("AWS Transcribe: job %s started, polling", jobName)

	if err := a.waitForJob(ctx, jobName); err != nil {
		return nil, err
	}

	result, err := a.fetchResult(ctx, jobName+".json")
	if err != nil {
		return nil, fmt.Errorf("fetch transcription result: %w", err)
	}

	ts, err := convertAWS(result)
	if err != nil {
		return nil, err
	}
	logger.Info("AWS Transcribe: %d utterances, %d speakers", len(ts.Utterances), len(ts.Speakers()))
	return ts, nil
}

func (a *AWS) uploadToS3(ctx context.Context, key, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
		Body:   f,
	})
	return err
}

func (a *AWS) startJob(ctx context.Context, jobName, mediaKey, audioPath string) error {
	mediaURI := fmt.Sprintf("s3://%s/%s", a.bucket, mediaKey)
	showLabels := true
	maxSpeakers := int32(a.maxSpeakers)

	input := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: &jobName,
		LanguageCode:         transcribetypes.LanguageCode(a.languageCode),
		MediaFormat:          mediaFormatFor(audioPath),
		Media: &transcribetypes.Media{
			MediaFileUri: &mediaURI,
		},
		OutputBucketName: &a.bucket,
		Settings: &transcribetypes.Settings{
			ShowSpeakerLabels: &showLabels,
			MaxSpeakerLabels:  &maxSpeakers,
		},
	}
	_, err := a.transcribeClient.StartTranscriptionJob(ctx, input)
	return err
}

func (a *AWS) waitForJob(ctx context.Context, jobName string) error {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out, err := a.transcribeClient.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
				TranscriptionJobName: &jobName,
			})
			if err != nil {
				return fmt.Errorf("poll transcription job: %w", err)
			}

			job := out.TranscriptionJob
			logger.Debug("AWS Transcribe: job %s status %s", jobName, job.TranscriptionJobStatus)
			switch job.TranscriptionJobStatus {
			case transcribetypes.TranscriptionJobStatusCompleted:
				return nil
			case transcribetypes.TranscriptionJobStatusFailed:
				reason := ""
				if job.FailureReason != nil {
					reason = *job.FailureReason
				}
				return classifyAWSFailure(reason)
			}
		}
	}
}

// fetchResult downloads the job output JSON. Transcribe writes the result
// object shortly after the job reports completed, so NotFound is retried.
func (a *AWS) fetchResult(ctx context.Context, key string) (*awsResult, error) {
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}

		out, err := a.s3Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: &a.bucket,
			Key:    &key,
		})
		if err != nil {
			if isNotFoundError(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		var result awsResult
		err = json.NewDecoder(out.Body).Decode(&result)
		out.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode result JSON: %w", err)
		}
		return &result, nil
	}
	return nil, fmt.Errorf("result object %s never appeared: %w", key, lastErr)
}

// isNotFoundError determines if an AWS error indicates a missing object.
func isNotFoundError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NotFoundException", "404":
			return true
		}
	}
	return false
}

func classifyAWSFailure(reason string) error {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "media format") || strings.Contains(lower, "sample rate") || strings.Contains(lower, "audio"):
		return fmt.Errorf("%w: %s", ErrBadMedia, reason)
	case strings.Contains(lower, "limit") || strings.Contains(lower, "throttl"):
		return fmt.Errorf("%w: %s", ErrQuota, reason)
	default:
		return fmt.Errorf("transcription failed: %s", reason)
	}
}

func mediaFormatFor(audioPath string) transcribetypes.MediaFormat {
	switch strings.ToLower(filepath.Ext(audioPath)) {
	case ".wav":
		return transcribetypes.MediaFormatWav
	case ".m4a":
		return transcribetypes.MediaFormatM4a
	case ".flac":
		return transcribetypes.MediaFormatFlac
	case ".ogg":
		return transcribetypes.MediaFormatOgg
	default:
		return transcribetypes.MediaFormatMp3
	}
}

// awsResult is the JSON document Transcribe writes to the output bucket.
type awsResult struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []awsItem `json:"items"`
	} `json:"results"`
	Status string `json:"status"`
}

type awsItem struct {
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Type         string `json:"type"` // pronunciation or punctuation
	SpeakerLabel string `json:"speaker_label,omitempty"`
	Alternatives []struct {
		Content string `json:"content"`
	} `json:"alternatives"`
}

// convertAWS builds utterances from runs of consecutive words with the same
// speaker label. Punctuation items carry no timing and attach to the
// preceding word.
func convertAWS(result *awsResult) (*transcript.Transcript, error) {
	ts := &transcript.Transcript{}
	var current *transcript.Utterance

	flush := func() {
		if current != nil && len(current.Words) > 0 {
			ts.Utterances = append(ts.Utterances, *current)
		}
		current = nil
	}

	for _, item := range result.Results.Items {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content

		switch item.Type {
		case "punctuation":
			if current != nil {
				current.Text += content
				if n := len(current.Words); n > 0 {
					current.Words[n-1].Text += content
				}
			}

		case "pronunciation":
			start, err := parseSeconds(item.StartTime)
			if err != nil {
				return nil, fmt.Errorf("item start time %q: %w", item.StartTime, err)
			}
			end, err := parseSeconds(item.EndTime)
			if err != nil {
				return nil, fmt.Errorf("item end time %q: %w", item.EndTime, err)
			}

			speaker := strings.TrimPrefix(item.SpeakerLabel, "spk_")
			if current == nil || current.Speaker != speaker {
				flush()
				current = &transcript.Utterance{Speaker: speaker, Start: start}
			}

			if current.Text != "" {
				current.Text += " "
			}
			current.Text += content
			current.End = end
			current.Words = append(current.Words, transcript.Word{Text: content, Start: start, End: end})
		}
	}
	flush()

	if len(ts.Utterances) == 0 {
		return nil, fmt.Errorf("%w: transcript contains no speech items", ErrBadMedia)
	}

	ts.AudioDuration = ts.End()
	ts.SortChronological()
	return ts, nil
}

func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}
