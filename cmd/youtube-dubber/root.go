package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"youtube-dubber/internal/config"
	"youtube-dubber/internal/download"
	"youtube-dubber/internal/dub"
	"youtube-dubber/internal/logger"
	"youtube-dubber/internal/media"
	"youtube-dubber/internal/notify"
	"youtube-dubber/internal/pipeline"
	"youtube-dubber/internal/transcription"
	"youtube-dubber/internal/tts"
)

type options struct {
	outputDir string
	workers   int
	provider  string
	speakers  string
	keepTemp  bool
	notify    bool
	verbose   bool
	apiKey    string
	awsRegion string
	awsBucket string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "youtube-dubber URL [URL...]",
		Short: "Dub YouTube videos with synthesized speaker voices",
		Long: `youtube-dubber downloads each URL's video and audio streams, fetches a
diarized transcript from a hosted speech-to-text API, synthesizes every
utterance with a per-speaker Piper voice, and muxes the assembled dub
track back onto the original video.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.outputDir, "output-dir", "o", "output", "directory for dubbed videos")
	f.IntVarP(&opts.workers, "workers", "w", config.DefaultDownloadWorkers, "concurrent downloads")
	f.StringVar(&opts.provider, "provider", "assemblyai", "transcription provider (assemblyai or aws)")
	f.StringVar(&opts.speakers, "speakers", "", "TOML speaker table overriding the built-in voices")
	f.BoolVar(&opts.keepTemp, "keep-temp", false, "keep per-job temp directories")
	f.BoolVar(&opts.notify, "notify", false, "send a notification when each job completes")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&opts.apiKey, "api-key", "", "AssemblyAI API key (default $ASSEMBLYAI_API_KEY)")
	f.StringVar(&opts.awsRegion, "aws-region", "", "AWS region for --provider aws")
	f.StringVar(&opts.awsBucket, "aws-bucket", "", "S3 bucket for --provider aws uploads")

	return cmd
}

func run(ctx context.Context, opts *options, urls []string) error {
	if opts.verbose {
		logger.SetLevel(logger.LevelDebug)
	}

	voices := config.DefaultVoiceTable()
	if opts.speakers != "" {
		loaded, err := config.LoadVoiceTable(opts.speakers)
		if err != nil {
			return err
		}
		voices = loaded
		logger.Info("Loaded speaker table from %s: %s", opts.speakers, strings.Join(voices.Labels(), ", "))
	}

	apiKey := opts.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}

	provider, err := transcription.New(ctx, opts.provider, transcription.Config{
		APIKey:      apiKey,
		AWSRegion:   opts.awsRegion,
		AWSBucket:   opts.awsBucket,
		MaxSpeakers: config.MaxSpeakers,
	})
	if err != nil {
		return err
	}

	downloader := download.New()
	ffmpeg := media.NewFFmpegService()
	engine := tts.NewPiper("", "")

	// Fail fast on anything missing before touching the network.
	checks := []struct {
		name  string
		check func() error
	}{
		{"yt-dlp", downloader.CheckInstalled},
		{"ffmpeg", ffmpeg.CheckInstalled},
		{"piper", engine.CheckInstalled},
		{provider.Name(), provider.CheckReady},
	}
	for _, c := range checks {
		if err := c.check(); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}

	workers := opts.workers
	if workers < 1 {
		workers = 1
	}
	if workers > config.MaxDownloadWorkers {
		workers = config.MaxDownloadWorkers
	}

	runner, err := pipeline.NewRunner(
		downloader,
		provider,
		dub.NewAssembler(engine, ffmpeg, voices),
		ffmpeg,
		notify.NewEmail(),
		pipeline.Options{
			OutputDir: opts.outputDir,
			Workers:   workers,
			KeepTemp:  opts.keepTemp,
			Notify:    opts.notify,
		},
	)
	if err != nil {
		return err
	}

	jobs := runner.Run(ctx, urls)
	printResults(os.Stdout, jobs)

	if n := pipeline.Failed(jobs); n > 0 {
		return fmt.Errorf("%d of %d URL(s) failed", n, len(jobs))
	}
	return nil
}
