// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/textmify/internal/formats"
	"github.com/pdiddy/textmify/internal/logging"
	"github.com/pdiddy/textmify/pkg/types"
)

// fakeConverter implements Converter for testing. fn decides the outcome of
// each call; calls counts invocations.
type fakeConverter struct {
	fn    func(call int, src types.SourceFile) (Output, error)
	calls int
}

func (f *fakeConverter) Name() string { return "fake" }

func (f *fakeConverter) Convert(_ context.Context, src types.SourceFile) (Output, error) {
	f.calls++
	return f.fn(f.calls, src)
}

func succeed(md string) *fakeConverter {
	return &fakeConverter{fn: func(int, types.SourceFile) (Output, error) { return Output{Markdown: md}, nil }}
}

func fail(err error) *fakeConverter {
	return &fakeConverter{fn: func(int, types.SourceFile) (Output, error) { return Output{}, err }}
}

// source writes a file under dir and returns its SourceFile.
func source(t *testing.T, dir, name string) types.SourceFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("document bytes"), 0o644))
	format, _ := formats.Detect(name)
	return types.SourceFile{Path: path, Name: name, Ext: filepath.Ext(name), Format: format}
}

func testConfig(t *testing.T) (types.ConversionConfig, string) {
	t.Helper()
	dir := t.TempDir()
	return types.ConversionConfig{
		OutputDir:  filepath.Join(dir, "markdowns"),
		Retries:    3,
		RetryDelay: time.Millisecond,
	}, dir
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		converter    *fakeConverter
		wantStatus   types.ConversionStatus
		wantAttempts int
		wantCalls    int
		wantOutput   bool
	}{
		{
			name:         "successful conversion",
			file:         "report.pdf",
			converter:    succeed("# Title\n\nContent here."),
			wantStatus:   types.ConversionDone,
			wantAttempts: 1,
			wantCalls:    1,
			wantOutput:   true,
		},
		{
			name: "partial success keeps output",
			file: "deck.pptx",
			converter: &fakeConverter{fn: func(int, types.SourceFile) (Output, error) {
				return Output{Markdown: "# Slide", Partial: true}, nil
			}},
			wantStatus:   types.ConversionPartial,
			wantAttempts: 1,
			wantCalls:    1,
			wantOutput:   true,
		},
		{
			name: "succeeds on second attempt",
			file: "scan.png",
			converter: &fakeConverter{fn: func(call int, _ types.SourceFile) (Output, error) {
				if call == 1 {
					return Output{}, errors.New("model load timeout")
				}
				return Output{Markdown: "text"}, nil
			}},
			wantStatus:   types.ConversionDone,
			wantAttempts: 2,
			wantCalls:    2,
			wantOutput:   true,
		},
		{
			name:         "failure after all attempts",
			file:         "broken.pdf",
			converter:    fail(errors.New("corrupt xref table")),
			wantStatus:   types.ConversionFailed,
			wantAttempts: 3,
			wantCalls:    3,
		},
		{
			name:         "empty output counts as failure",
			file:         "blank.docx",
			converter:    succeed("  \n"),
			wantStatus:   types.ConversionFailed,
			wantAttempts: 3,
			wantCalls:    3,
		},
		{
			name:       "unsupported file skipped",
			file:       "notes.txt",
			converter:  succeed("never"),
			wantStatus: types.ConversionUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, dir := testConfig(t)
			src := source(t, dir, tt.file)

			res := ConvertFile(context.Background(), tt.converter, src, cfg, logging.Nop())

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantAttempts, res.Attempts)
			assert.Equal(t, tt.wantCalls, tt.converter.calls)

			mdPath := filepath.Join(cfg.OutputDir, src.Stem()+".md")
			if tt.wantOutput {
				assert.Equal(t, mdPath, res.OutputPath)
				assert.FileExists(t, mdPath)
				assert.Positive(t, res.Words)
				assert.Empty(t, res.Error)
			} else {
				assert.Empty(t, res.OutputPath)
				assert.NoFileExists(t, mdPath)
			}
			if tt.wantStatus == types.ConversionFailed {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}

func TestConvertFile_ExactAttempts(t *testing.T) {
	for _, retries := range []int{1, 2, 4, 5} {
		cfg, dir := testConfig(t)
		cfg.Retries = retries
		conv := fail(errors.New("boom"))

		res := ConvertFile(context.Background(), conv, source(t, dir, "a.pdf"), cfg, logging.Nop())

		assert.Equal(t, retries, conv.calls, "retries=%d", retries)
		assert.Equal(t, retries, res.Attempts)
		assert.Equal(t, types.ConversionFailed, res.Status)
	}
}

func TestConvertFile_WritesMarkdown(t *testing.T) {
	cfg, dir := testConfig(t)
	src := source(t, dir, "paper.pdf")

	res := ConvertFile(context.Background(), succeed("# Paper Title\n\nSome content."), src, cfg, logging.Nop())
	require.Equal(t, types.ConversionDone, res.Status)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "# Paper Title\n\nSome content.", string(data))
	assert.Equal(t, 4, res.Words)
}

func TestConvertBatch(t *testing.T) {
	cfg, dir := testConfig(t)
	files := []types.SourceFile{
		source(t, dir, "a.pdf"),
		source(t, dir, "b.docx"),
		source(t, dir, "c.pdf"),
		source(t, dir, "d.exe"),
		source(t, dir, "e.html"),
	}

	conv := &fakeConverter{fn: func(_ int, src types.SourceFile) (Output, error) {
		switch src.Name {
		case "c.pdf":
			return Output{}, errors.New("bad pdf")
		case "e.html":
			return Output{Markdown: "partial", Partial: true}, nil
		}
		return Output{Markdown: "# " + src.Name}, nil
	}}

	var order []string
	result := ConvertBatch(context.Background(), conv, files, cfg, logging.Nop(), BatchOptions{
		UpToDate: func(src types.SourceFile, _ string) bool { return src.Name == "b.docx" },
		OnResult: func(r types.ConversionResult) { order = append(order, r.Source.Name+":"+string(r.Status)) },
	})

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Partial)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Unsupported)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 5, result.Total())
	assert.Equal(t, 3, result.Succeeded())
	assert.True(t, result.HasFailures())
	assert.False(t, result.Interrupted)
	assert.Equal(t, []string{
		"a.pdf:converted", "b.docx:none", "c.pdf:failed", "d.exe:unsupported", "e.html:partial",
	}, order)
	assert.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "a.md"),
		filepath.Join(cfg.OutputDir, "b.md"),
		filepath.Join(cfg.OutputDir, "e.md"),
	}, result.Outputs)
	// 1 (a) + 3 attempts (c) + 1 (e); b and d never reach the converter.
	assert.Equal(t, 5, conv.calls)
}

func TestConvertBatch_Interrupted(t *testing.T) {
	cfg, dir := testConfig(t)
	files := []types.SourceFile{source(t, dir, "a.pdf"), source(t, dir, "b.pdf"), source(t, dir, "c.pdf")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := ConvertBatch(ctx, succeed("# ok"), files, cfg, logging.Nop(), BatchOptions{
		OnResult: func(types.ConversionResult) { cancel() },
	})

	assert.True(t, result.Interrupted)
	assert.Equal(t, 1, result.Total())
}

func TestOutputNames(t *testing.T) {
	src := func(path string) types.SourceFile {
		name := filepath.Base(path)
		return types.SourceFile{Path: path, Name: name, Ext: filepath.Ext(name)}
	}

	tests := []struct {
		name  string
		paths []string
		want  map[string]string
	}{
		{
			name:  "shared stem takes extension suffix",
			paths: []string{"/in/report.pdf", "/in/report.docx", "/in/Report.html", "/in/other.md"},
			want: map[string]string{
				"/in/report.pdf":  "report.md",
				"/in/report.docx": "report_docx.md",
				"/in/Report.html": "Report_html.md",
				"/in/other.md":    "other.md",
			},
		},
		{
			name:  "same name in three folders",
			paths: []string{"/in/a/report.pdf", "/in/b/report.pdf", "/in/c/report.pdf"},
			want: map[string]string{
				"/in/a/report.pdf": "report.md",
				"/in/b/report.pdf": "report_pdf.md",
				"/in/c/report.pdf": "report_pdf_2.md",
			},
		},
		{
			name:  "suffixed name collides with a real stem",
			paths: []string{"/in/x.docx", "/in/x.pdf", "/in/x_pdf.html"},
			want: map[string]string{
				"/in/x.docx":     "x.md",
				"/in/x.pdf":      "x_pdf.md",
				"/in/x_pdf.html": "x_pdf_html.md",
			},
		},
		{
			name:  "real stem arrives after the suffixed name",
			paths: []string{"/in/a/y.pdf", "/in/b/y.pdf", "/in/c/y_pdf.pdf"},
			want: map[string]string{
				"/in/a/y.pdf":     "y.md",
				"/in/b/y.pdf":     "y_pdf.md",
				"/in/c/y_pdf.pdf": "y_pdf_pdf.md",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := make([]types.SourceFile, len(tt.paths))
			for i, p := range tt.paths {
				files[i] = src(p)
			}
			got := OutputNames(files)
			assert.Equal(t, tt.want, got)

			owner := make(map[string]string, len(got))
			for path, name := range got {
				key := strings.ToLower(name)
				if prev, ok := owner[key]; ok {
					t.Errorf("%s and %s both write %s", prev, path, name)
				}
				owner[key] = path
			}
		})
	}
}

func TestConvertBatch_CancelledMidAttempt(t *testing.T) {
	cfg, dir := testConfig(t)
	files := []types.SourceFile{source(t, dir, "a.pdf"), source(t, dir, "b.pdf")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var recorded []types.ConversionResult
	conv := &fakeConverter{fn: func(int, types.SourceFile) (Output, error) {
		cancel()
		return Output{}, ctx.Err()
	}}
	result := ConvertBatch(ctx, conv, files, cfg, logging.Nop(), BatchOptions{
		OnResult: func(r types.ConversionResult) { recorded = append(recorded, r) },
	})

	assert.True(t, result.Interrupted)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.Total())
	require.Len(t, recorded, 1)
	assert.Equal(t, types.ConversionInterrupted, recorded[0].Status)
	assert.Empty(t, recorded[0].OutputPath)
	assert.Equal(t, 1, conv.calls)
}
