// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/textmify/internal/certs"
	"github.com/pdiddy/textmify/internal/combine"
	"github.com/pdiddy/textmify/internal/convert"
	"github.com/pdiddy/textmify/internal/discover"
	"github.com/pdiddy/textmify/internal/formats"
	"github.com/pdiddy/textmify/internal/ledger"
	"github.com/pdiddy/textmify/internal/logging"
	"github.com/pdiddy/textmify/internal/models"
	"github.com/pdiddy/textmify/internal/progress"
	"github.com/pdiddy/textmify/internal/report"
	"github.com/pdiddy/textmify/internal/secrets"
	"github.com/pdiddy/textmify/pkg/types"
)

// errInterrupted is returned when the run is cancelled by a signal.
var errInterrupted = errors.New("process interrupted by user")

// defaultOutputDir is the output folder created inside the input folder.
const defaultOutputDir = "markdowns"

// converterFactory builds the backend for a run. Tests replace it.
type converterFactory func(ctx context.Context, cfg types.ConversionConfig, opts convert.BackendOptions) (convert.Converter, error)

// runSettings is everything one conversion run needs.
type runSettings struct {
	types.RunConfig

	// APIKey authenticates against docling-serve.
	APIKey string

	Progress bool
	Color    bool
}

// runEnv holds the collaborators of a run.
type runEnv struct {
	log          *logging.Logger
	stdout       io.Writer
	newConverter converterFactory
}

func runRoot(cmd *cobra.Command, args []string) error {
	settings := settingsFromConfig(args[0])
	env := runEnv{log: log, stdout: cmd.OutOrStdout(), newConverter: convert.New}

	summary, err := run(cmd.Context(), settings, env)
	if summary != nil {
		if rerr := report.Render(env.stdout, *summary, settings.Color); rerr != nil {
			return rerr
		}
	}
	return err
}

// settingsFromConfig reads flags, config file, and environment through viper.
func settingsFromConfig(folder string) runSettings {
	verbose := viper.GetBool("verbose")
	return runSettings{
		RunConfig: types.RunConfig{
			InputDir: folder,
			Combine:  viper.GetBool("combine"),
			CACert:   viper.GetString("ca-cert"),
			Conversion: types.ConversionConfig{
				Backend:       types.ConversionBackend(viper.GetString("backend")),
				OutputDir:     viper.GetString("output-dir"),
				Retries:       viper.GetInt("retries"),
				RetryDelay:    viper.GetDuration("retry-delay"),
				NoOCR:         viper.GetBool("no-ocr"),
				ArtifactsPath: viper.GetString("artifacts-path"),
				SkipExisting:  viper.GetBool("skip-existing"),
				ServeURL:      viper.GetString("serve-url"),
				HTTPConfig: types.HTTPConfig{
					Timeout:   viper.GetDuration("timeout"),
					UserAgent: "textmify/" + version,
				},
			},
			Combining: types.CombineConfig{
				MaxWords: viper.GetInt("max-words"),
				Prefix:   combine.DefaultPrefix,
			},
			Discovery: types.DiscoveryConfig{
				Recursive: viper.GetBool("recursive"),
				Exclude:   viper.GetStringSlice("exclude"),
			},
		},
		APIKey:   loadedSecrets.Get(secrets.DoclingServeAPIKey, viper.GetString("serve-api-key")),
		Progress: !viper.GetBool("no-progress") && !verbose,
		Color:    colorEnabled(),
	}
}

// run converts the input folder and optionally combines the results. It
// returns a nil summary when there was nothing to convert.
func run(ctx context.Context, s runSettings, env runEnv) (*report.Summary, error) {
	start := time.Now()
	lg := env.log

	info, err := os.Stat(s.InputDir)
	if err != nil || !info.IsDir() {
		lg.Error().Str("folder", s.InputDir).Msg("Folder does not exist or is not a directory")
		return nil, fmt.Errorf("folder %q does not exist or is not a directory", s.InputDir)
	}

	conv := s.Conversion
	if conv.OutputDir == "" {
		conv.OutputDir = filepath.Join(s.InputDir, defaultOutputDir)
	}

	bundle, err := certs.Resolve(s.CACert)
	if err != nil {
		return nil, err
	}
	if bundle.Warning != "" {
		lg.Warn().Msg(bundle.Warning)
		lg.Warn().Msg("SSL certificate verification might fail")
	}
	if bundle.Path != "" {
		lg.Debug().Str("path", bundle.Path).Str("source", string(bundle.Source)).Msg("Using certificate bundle")
	}

	if conv.ArtifactsPath != "" && (conv.Backend == types.BackendDocling || conv.Backend == "") {
		if err := models.Check(conv.ArtifactsPath); err != nil {
			lg.Warn().Err(err).Msg("Specified artifacts path is not usable; docling will fetch models on demand")
			lg.Warn().Msg("Run 'textmify models download' to download the models first")
			conv.ArtifactsPath = ""
		} else {
			lg.Info().Str("path", conv.ArtifactsPath).Msg("Using model artifacts")
		}
	}

	if err := discover.ValidatePatterns(s.Discovery.Exclude); err != nil {
		return nil, err
	}
	listing, err := discover.Scan(s.InputDir, discover.Options{
		Recursive: s.Discovery.Recursive,
		Exclude:   s.Discovery.Exclude,
		SkipDirs:  []string{conv.OutputDir},
	})
	if err != nil {
		return nil, err
	}
	for _, f := range listing.Unsupported {
		lg.Debug().Str("file", f.Path).Msg("Skipping unsupported file")
	}
	if len(listing.Supported) == 0 {
		lg.Warn().Str("folder", s.InputDir).Msg("No supported files found")
		lg.Info().Msg("Supported formats: " + formats.Describe())
		return nil, nil
	}
	lg.Info().Msgf("Found %d supported files to process out of %d total files", len(listing.Supported), listing.Total())

	if err := os.MkdirAll(conv.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	lg.Info().Str("dir", conv.OutputDir).Msg("Output directory")

	converter, err := env.newConverter(ctx, conv, convert.BackendOptions{
		Env:    bundle.Env(),
		TLS:    bundle.TLSConfig(),
		APIKey: s.APIKey,
	})
	if err != nil {
		return nil, err
	}
	lg.Debug().Str("backend", converter.Name()).Msg("Converter ready")

	store, runID := openLedger(ctx, s.InputDir, conv.OutputDir, converter.Name(), lg)
	if store != nil {
		defer store.Close()
	}

	bar := progress.New(len(listing.Supported), progress.DescConverting, s.Progress)
	opts := convert.BatchOptions{
		OnResult: func(res types.ConversionResult) {
			_ = bar.Add(1)
			if store == nil {
				return
			}
			if err := store.Record(context.WithoutCancel(ctx), runID, res); err != nil {
				lg.Warn().Err(err).Msg("Could not record conversion in ledger")
			}
		},
	}
	if conv.SkipExisting && store != nil {
		opts.UpToDate = func(src types.SourceFile, outPath string) bool {
			return store.UpToDate(ctx, src, outPath)
		}
	}

	result := convert.ConvertBatch(ctx, converter, listing.Supported, conv, lg, opts)
	_ = bar.Finish()

	if store != nil {
		counts := ledger.Counts{
			Converted:   result.Converted,
			Partial:     result.Partial,
			Skipped:     result.Skipped,
			Unsupported: result.Unsupported,
			Failed:      result.Failed,
		}
		if err := store.FinishRun(context.WithoutCancel(ctx), runID, counts, result.Interrupted); err != nil {
			lg.Warn().Err(err).Msg("Could not finish run in ledger")
		}
	}

	summary := &report.Summary{
		InputDir:    s.InputDir,
		OutputDir:   conv.OutputDir,
		Processed:   result.Total(),
		Converted:   result.Converted,
		Partial:     result.Partial,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
		Interrupted: result.Interrupted,
	}

	if result.Interrupted {
		summary.Duration = time.Since(start)
		lg.Warn().Msg("Process interrupted by user")
		return summary, errInterrupted
	}

	if s.Combine && result.Succeeded() == 0 {
		lg.Warn().Msg("No files converted, skipping combine")
	} else if s.Combine {
		summary.Combine = true
		buckets, err := combineDir(conv.OutputDir, s.Combining, s.Progress, lg)
		if err != nil {
			return summary, err
		}
		summary.Combined = len(buckets)
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// openLedger opens the run ledger. The ledger is optional: on failure the
// run continues without history and --skip-existing has no effect.
func openLedger(ctx context.Context, inputDir, outputDir, backend string, lg *logging.Logger) (*ledger.Store, int64) {
	store, err := ledger.Open(outputDir)
	if err != nil {
		lg.Warn().Err(err).Msg("Run ledger unavailable")
		return nil, 0
	}
	absIn, _ := filepath.Abs(inputDir)
	absOut, _ := filepath.Abs(outputDir)
	runID, err := store.BeginRun(ctx, absIn, absOut, backend)
	if err != nil {
		lg.Warn().Err(err).Msg("Run ledger unavailable")
		store.Close()
		return nil, 0
	}
	return store, runID
}

// combineDir packs the Markdown files in dir and logs each bucket.
func combineDir(dir string, cfg types.CombineConfig, showProgress bool, lg *logging.Logger) ([]types.Bucket, error) {
	maxWords := cfg.MaxWords
	if maxWords <= 0 {
		maxWords = combine.DefaultMaxWords
	}
	lg.Info().Msgf("Combining markdown files (max %d words per file)...", maxWords)

	bar := progress.New(-1, progress.DescCombining, showProgress)
	buckets, err := combine.Combine(dir, combine.Options{
		MaxWords:   maxWords,
		Prefix:     cfg.Prefix,
		OnDocument: func(string) { _ = bar.Add(1) },
	}, lg)
	_ = bar.Finish()
	if err != nil {
		return buckets, fmt.Errorf("combining markdown files: %w", err)
	}

	if len(buckets) > 0 {
		lg.Info().Msgf("Created %d combined files:", len(buckets))
		for _, b := range buckets {
			lg.Info().Msgf("  - %s (%d words)", filepath.Base(b.Path), b.Words)
		}
	}
	return buckets, nil
}
