package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"youtube-dubber/internal/download"
	"youtube-dubber/internal/dub"
	"youtube-dubber/internal/logger"
	"youtube-dubber/internal/notify"
	"youtube-dubber/internal/transcript"
	"youtube-dubber/internal/transcription"
	"youtube-dubber/internal/worker"
)

// Downloader fetches media for one URL. *download.Client satisfies it.
type Downloader interface {
	ChannelName(ctx context.Context, url string) (string, error)
	FetchStreams(ctx context.Context, url, dir string) (download.Streams, error)
}

// Assembler builds the dub track. *dub.Assembler satisfies it.
type Assembler interface {
	Assemble(ctx context.Context, t *transcript.Transcript, workDir, outputPath string) (dub.Stats, error)
}

// Combiner muxes video and dub audio. *media.FFmpegService satisfies it.
type Combiner interface {
	Combine(videoPath, audioPath, outputPath string) error
}

// Options configure a pipeline run.
type Options struct {
	// OutputDir receives the final dubbed videos.
	OutputDir string

	// Workers bounds concurrent downloads across URLs.
	Workers int

	// KeepTemp leaves each job's working directory in place for debugging.
	KeepTemp bool

	// Notify sends a notification when each job completes.
	Notify bool
}

// Runner drives the full pipeline for a batch of URLs.
type Runner struct {
	downloader Downloader
	provider   transcription.Provider
	assembler  Assembler
	combiner   Combiner
	notifier   notify.Notifier
	namer      *OutputNamer
	opts       Options
}

// NewRunner wires up a pipeline runner. The output directory is created
// immediately so naming failures surface before any download starts.
func NewRunner(downloader Downloader, provider transcription.Provider, assembler Assembler, combiner Combiner, notifier notify.Notifier, opts Options) (*Runner, error) {
	namer, err := NewOutputNamer(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	return &Runner{
		downloader: downloader,
		provider:   provider,
		assembler:  assembler,
		combiner:   combiner,
		notifier:   notifier,
		namer:      namer,
		opts:       opts,
	}, nil
}

// downloaded is the phase-1 result for one URL.
type downloaded struct {
	channel string
	streams download.Streams
}

// Run processes all URLs and returns one job per URL, in input order.
// Downloads run concurrently; the transcribe/assemble/combine stages run
// one job at a time since they saturate the network API and local CPU
// respectively. A failing URL never stops the others.
func (r *Runner) Run(ctx context.Context, urls []string) []*Job {
	jobs := make([]*Job, len(urls))
	for i, url := range urls {
		jobs[i] = NewJob(url)
	}

	logger.Info("Processing %d URL(s) with %d download worker(s)", len(urls), r.opts.Workers)

	results := worker.Map(ctx, urls, r.opts.Workers,
		func(ctx context.Context, i int, url string) (downloaded, error) {
			return r.download(ctx, jobs[i])
		},
		func(completed, total int) {
			logger.Info("Downloads: %d/%d complete", completed, total)
		},
	)

	for i, res := range results {
		job := jobs[i]
		if res.Err != nil {
			logger.Error("Download failed for %s: %v", job.URL, res.Err)
			job.Fail(res.Err)
			r.cleanup(job)
			continue
		}
		if err := r.process(ctx, job, res.Value); err != nil {
			logger.Error("Job failed for %s: %v", job.URL, err)
			job.Fail(err)
		}
		r.cleanup(job)
	}

	return jobs
}

// download runs phase 1 for one job: resolve the channel name and fetch the
// separate audio and video streams into a fresh working directory.
func (r *Runner) download(ctx context.Context, job *Job) (downloaded, error) {
	job.SetStatus(StatusDownloading)

	workDir, err := os.MkdirTemp("", "youtube-dubber-")
	if err != nil {
		return downloaded{}, fmt.Errorf("create work dir: %w", err)
	}
	job.WorkDir = workDir

	channel, err := r.downloader.ChannelName(ctx, job.URL)
	if err != nil {
		return downloaded{}, err
	}
	job.Channel = channel
	logger.Info("Channel for %s: %s", job.URL, channel)

	streams, err := r.downloader.FetchStreams(ctx, job.URL, workDir)
	if err != nil {
		return downloaded{}, err
	}
	return downloaded{channel: channel, streams: streams}, nil
}

// process runs phases 2-4 for one job: transcribe, assemble, combine.
func (r *Runner) process(ctx context.Context, job *Job, dl downloaded) error {
	job.SetStatus(StatusTranscribing)
	logger.Info("Transcribing %s via %s", filepath.Base(dl.streams.AudioPath), r.provider.Name())

	t, err := r.provider.Transcribe(ctx, dl.streams.AudioPath)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	transcriptPath := filepath.Join(job.WorkDir, "transcript.json")
	if err := t.WriteFile(transcriptPath); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	job.SetStatus(StatusAssembling)
	dubPath := filepath.Join(job.WorkDir, "dub.wav")
	if _, err := r.assembler.Assemble(ctx, t, job.WorkDir, dubPath); err != nil {
		return fmt.Errorf("assemble dub: %w", err)
	}

	job.SetStatus(StatusCombining)
	outputPath, err := r.namer.Claim(dl.channel)
	if err != nil {
		return err
	}
	if err := r.combiner.Combine(dl.streams.VideoPath, dubPath, outputPath); err != nil {
		r.namer.Release(outputPath)
		return fmt.Errorf("combine: %w", err)
	}

	job.Complete(outputPath)
	logger.Info("Completed %s -> %s", job.URL, outputPath)
	r.sendNotification(ctx, job)
	return nil
}

// sendNotification delivers the completion message when enabled. Delivery
// problems are logged, never fatal.
func (r *Runner) sendNotification(ctx context.Context, job *Job) {
	if !r.opts.Notify || r.notifier == nil {
		return
	}
	subject := fmt.Sprintf("Dub ready: %s", filepath.Base(job.OutputPath))
	body := fmt.Sprintf("Finished dubbing %s in %s.", job.URL, job.Elapsed().Round(time.Second))
	if err := r.notifier.Notify(ctx, subject, body); err != nil {
		if errors.Is(err, notify.ErrNotImplemented) {
			logger.Warn("Notification requested but %v", err)
		} else {
			logger.Warn("Notification failed: %v", err)
		}
	}
}

// cleanup removes a job's working directory unless temp files are kept.
func (r *Runner) cleanup(job *Job) {
	if job.WorkDir == "" {
		return
	}
	if r.opts.KeepTemp {
		logger.Info("Keeping temp files in %s", job.WorkDir)
		return
	}
	if err := os.RemoveAll(job.WorkDir); err != nil {
		logger.Warn("Could not remove temp dir %s: %v", job.WorkDir, err)
	}
}

// Failed counts the jobs that did not complete.
func Failed(jobs []*Job) int {
	n := 0
	for _, j := range jobs {
		if j.Status != StatusCompleted {
			n++
		}
	}
	return n
}
