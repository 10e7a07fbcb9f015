// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns source documents into Markdown through pluggable
// backends, retrying failed attempts and writing one file per document.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/textmify/internal/combine"
	"github.com/pdiddy/textmify/internal/logging"
	"github.com/pdiddy/textmify/pkg/types"
)

// ErrEmptyOutput is returned when a backend produces no Markdown.
var ErrEmptyOutput = errors.New("converter produced empty output")

// Output is the Markdown produced by one successful conversion attempt.
type Output struct {
	Markdown string

	// Partial is set when the backend converted the document with errors;
	// the Markdown is kept but may be missing content.
	Partial bool
}

//go:generate mockgen -source=convert.go -destination=convertmock/converter.go -package=convertmock

// Converter transforms a source document into Markdown. Different backends
// (docling CLI, docling-serve, markitdown) implement this interface.
type Converter interface {
	// Name identifies the backend in logs.
	Name() string

	// Convert reads the document at src.Path and returns its Markdown.
	Convert(ctx context.Context, src types.SourceFile) (Output, error)
}

// BatchResult holds the outcome of a batch conversion run. A file cut
// short by cancellation is not counted.
type BatchResult struct {
	Converted   int
	Partial     int
	Skipped     int
	Unsupported int
	Failed      int

	// Outputs lists the Markdown files written or kept, in input order.
	Outputs []string

	// Interrupted is set when the context was cancelled mid-batch.
	Interrupted bool
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Partial + r.Skipped + r.Unsupported + r.Failed
}

// Succeeded returns the number of files that have a Markdown output.
func (r BatchResult) Succeeded() int {
	return r.Converted + r.Partial + r.Skipped
}

// HasFailures reports whether any files failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(res types.ConversionResult) {
	switch res.Status {
	case types.ConversionDone:
		r.Converted++
	case types.ConversionPartial:
		r.Partial++
	case types.ConversionNone:
		r.Skipped++
	case types.ConversionUnsupported:
		r.Unsupported++
	case types.ConversionFailed:
		r.Failed++
	}
	if res.OutputPath != "" {
		r.Outputs = append(r.Outputs, res.OutputPath)
	}
}

// BatchOptions carries optional hooks for ConvertBatch.
type BatchOptions struct {
	// UpToDate reports whether src already has a current output at
	// outPath. Such files are skipped with status ConversionNone.
	UpToDate func(src types.SourceFile, outPath string) bool

	// OnResult is called after each file, in order.
	OnResult func(types.ConversionResult)
}

// ConvertFile converts a single document into cfg.OutputDir/<stem>.md.
func ConvertFile(ctx context.Context, c Converter, src types.SourceFile, cfg types.ConversionConfig, log *logging.Logger) types.ConversionResult {
	return convertTo(ctx, c, src, filepath.Join(cfg.OutputDir, src.Stem()+".md"), cfg, log)
}

// ConvertBatch converts files one at a time. A file that fails every attempt
// is logged and skipped; the batch continues with the next file. When ctx is
// cancelled the batch stops and Interrupted is set.
func ConvertBatch(ctx context.Context, c Converter, files []types.SourceFile, cfg types.ConversionConfig, log *logging.Logger, opts BatchOptions) BatchResult {
	var result BatchResult
	names := OutputNames(files)

	for _, src := range files {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		outPath := filepath.Join(cfg.OutputDir, names[src.Path])
		var res types.ConversionResult
		if opts.UpToDate != nil && src.Supported() && opts.UpToDate(src, outPath) {
			log.WithFile(src.Path).Info().Str("output", outPath).Msg("Skipping unchanged file")
			res = types.ConversionResult{Source: src, OutputPath: outPath, Status: types.ConversionNone}
		} else {
			log.Info().Str("file", src.Path).Msg("Processing file")
			res = convertTo(ctx, c, src, outPath, cfg, log)
		}

		if res.Status == types.ConversionInterrupted {
			result.Interrupted = true
		}
		result.add(res)
		if opts.OnResult != nil {
			opts.OnResult(res)
		}
		if result.Interrupted {
			break
		}
	}

	log.Info().
		Int("converted", result.Converted).
		Int("partial", result.Partial).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msgf("Successfully converted %d out of %d files", result.Succeeded(), result.Total()-result.Unsupported)
	return result
}

// OutputNames maps each source path to a distinct Markdown file name. The
// first source with a given stem gets <stem>.md; later ones get
// <stem>_<ext>.md, then <stem>_<ext>_2.md and so on until the name is free.
// Names are compared case-insensitively.
func OutputNames(files []types.SourceFile) map[string]string {
	taken := make(map[string]bool, len(files))
	names := make(map[string]string, len(files))
	for _, f := range files {
		name := f.Stem() + ".md"
		if taken[strings.ToLower(name)] {
			base := f.Stem() + "_" + strings.TrimPrefix(f.Ext, ".")
			name = base + ".md"
			for n := 2; taken[strings.ToLower(name)]; n++ {
				name = fmt.Sprintf("%s_%d.md", base, n)
			}
		}
		taken[strings.ToLower(name)] = true
		names[f.Path] = name
	}
	return names
}

func convertTo(ctx context.Context, c Converter, src types.SourceFile, outPath string, cfg types.ConversionConfig, log *logging.Logger) types.ConversionResult {
	start := time.Now()
	flog := log.WithFile(src.Path)
	res := types.ConversionResult{Source: src}

	if !src.Supported() {
		flog.Warn().Msg("Skipping unsupported file type")
		res.Status = types.ConversionUnsupported
		return res
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		res.Status = types.ConversionFailed
		res.Error = err.Error()
		flog.Error().Err(err).Msg("Failed to create output directory")
		return res
	}

	retrier := NewRetrier(cfg.Retries, cfg.RetryDelay)
	var out Output
	attempts, err := retrier.Do(ctx, func(attempt int) error {
		flog.Debug().Str("backend", c.Name()).Int("attempt", attempt).Msg("Converting to markdown")
		o, err := c.Convert(ctx, src)
		if err == nil && strings.TrimSpace(o.Markdown) == "" {
			err = ErrEmptyOutput
		}
		if err != nil {
			if ctx.Err() == nil {
				flog.Warn().Err(err).Msgf("Error converting (attempt %d/%d)", attempt, retrier.Attempts())
			}
			return err
		}
		out = o
		return nil
	}, func(_ error, wait time.Duration) {
		flog.Debug().Dur("delay", wait).Msg("Retrying")
	})
	res.Attempts = attempts
	res.Duration = time.Since(start)

	if err != nil {
		res.Error = err.Error()
		if ctx.Err() != nil {
			res.Status = types.ConversionInterrupted
			flog.Warn().Msg("Conversion interrupted")
			return res
		}
		res.Status = types.ConversionFailed
		flog.Error().Msgf("Failed to convert after %d attempts", attempts)
		return res
	}

	if err := os.WriteFile(outPath, []byte(out.Markdown), 0o644); err != nil {
		res.Status = types.ConversionFailed
		res.Error = fmt.Sprintf("writing %s: %v", outPath, err)
		flog.Error().Err(err).Msg("Failed to write markdown")
		return res
	}

	res.OutputPath = outPath
	res.Words = combine.CountWords(out.Markdown)
	if out.Partial {
		res.Status = types.ConversionPartial
		flog.Warn().Msg("Partial success converting file. Some content may be missing.")
	} else {
		res.Status = types.ConversionDone
		flog.Debug().Str("output", outPath).Msg("Successfully converted")
	}
	return res
}
