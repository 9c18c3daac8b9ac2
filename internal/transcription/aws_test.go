package transcription

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

const awsResultFixture = `{
  "status": "COMPLETED",
  "results": {
    "transcripts": [{"transcript": "Hello there. Hi."}],
    "items": [
      {"type": "pronunciation", "start_time": "0.0", "end_time": "0.9",
       "speaker_label": "spk_0", "alternatives": [{"content": "Hello"}]},
      {"type": "pronunciation", "start_time": "0.95", "end_time": "2.0",
       "speaker_label": "spk_0", "alternatives": [{"content": "there"}]},
      {"type": "punctuation", "alternatives": [{"content": "."}]},
      {"type": "pronunciation", "start_time": "2.5", "end_time": "4.0",
       "speaker_label": "spk_1", "alternatives": [{"content": "Hi"}]},
      {"type": "punctuation", "alternatives": [{"content": "."}]}
    ]
  }
}`

func TestConvertAWS(t *testing.T) {
	var result awsResult
	if err := json.Unmarshal([]byte(awsResultFixture), &result); err != nil {
		t.Fatal(err)
	}

	ts, err := convertAWS(&result)
	if err != nil {
		t.Fatalf("convertAWS() error: %v", err)
	}

	if len(ts.Utterances) != 2 {
		t.Fatalf("got %d utterances, want 2", len(ts.Utterances))
	}

	first := ts.Utterances[0]
	if first.Speaker != "0" {
		t.Errorf("first speaker = %q, want \"0\"", first.Speaker)
	}
	if first.Text != "Hello there." {
		t.Errorf("first text = %q, want \"Hello there.\"", first.Text)
	}
	if first.Start != 0 || first.End != 2*time.Second {
		t.Errorf("first window = [%v, %v], want [0s, 2s]", first.Start, first.End)
	}
	if len(first.Words) != 2 || first.Words[1].Text != "there." {
		t.Errorf("first words = %+v", first.Words)
	}

	second := ts.Utterances[1]
	if second.Speaker != "1" || second.Text != "Hi." {
		t.Errorf("second utterance = %+v", second)
	}

	if ts.AudioDuration != 4*time.Second {
		t.Errorf("AudioDuration = %v, want 4s", ts.AudioDuration)
	}
}

func TestConvertAWSEmpty(t *testing.T) {
	if _, err := convertAWS(&awsResult{}); !errors.Is(err, ErrBadMedia) {
		t.Errorf("empty result should be ErrBadMedia, got %v", err)
	}
}

func TestClassifyAWSFailure(t *testing.T) {
	if err := classifyAWSFailure("The media format that you specified isn't supported"); !errors.Is(err, ErrBadMedia) {
		t.Errorf("media format failure = %v, want ErrBadMedia", err)
	}
	if err := classifyAWSFailure("You have reached the concurrent job limit"); !errors.Is(err, ErrQuota) {
		t.Errorf("limit failure = %v, want ErrQuota", err)
	}
	if err := classifyAWSFailure("something else"); errors.Is(err, ErrBadMedia) || errors.Is(err, ErrQuota) {
		t.Errorf("generic failure should stay generic, got %v", err)
	}
}

func TestMediaFormatFor(t *testing.T) {
	cases := map[string]transcribetypes.MediaFormat{
		"audio.mp3":  transcribetypes.MediaFormatMp3,
		"audio.WAV":  transcribetypes.MediaFormatWav,
		"audio.m4a":  transcribetypes.MediaFormatM4a,
		"audio.flac": transcribetypes.MediaFormatFlac,
		"audio.ogg":  transcribetypes.MediaFormatOgg,
		"audio.xyz":  transcribetypes.MediaFormatMp3,
	}
	for path, want := range cases {
		if got := mediaFormatFor(path); got != want {
			t.Errorf("mediaFormatFor(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestAWSCheckReadyRequiresBucket(t *testing.T) {
	a := &AWS{}
	if err := a.CheckReady(); err == nil {
		t.Error("CheckReady() without bucket should fail")
	}
}
