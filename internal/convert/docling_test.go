// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/textmify/internal/shell"
	"github.com/pdiddy/textmify/pkg/types"
)

// doclingExec imitates the docling CLI: it writes markdown into the
// directory passed with --output and echoes logs.
type doclingExec struct {
	missing  bool
	markdown string
	logs     string
	err      error
	got      shell.Command
}

func (d *doclingExec) LookPath(file string) (string, error) {
	if d.missing {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/opt/venv/bin/" + file, nil
}

func (d *doclingExec) Run(_ context.Context, cmd shell.Command) error {
	d.got = cmd
	if d.logs != "" {
		_, _ = io.WriteString(cmd.Stderr, d.logs)
	}
	if d.err != nil {
		return d.err
	}
	if d.markdown == "" {
		return nil
	}
	var outDir string
	for i, a := range cmd.Args {
		if a == "--output" {
			outDir = cmd.Args[i+1]
		}
	}
	stem := filepath.Base(cmd.Args[len(cmd.Args)-1])
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	return os.WriteFile(filepath.Join(outDir, stem+".md"), []byte(d.markdown), 0o644)
}

func TestDoclingConverter_Args(t *testing.T) {
	d, err := newDoclingConverter(&doclingExec{}, DoclingOptions{NoOCR: true, ArtifactsPath: "/models"})
	require.NoError(t, err)

	pdf := types.SourceFile{Path: "/in/a.pdf", Name: "a.pdf", Format: types.FormatPDF}
	assert.Equal(t, []string{
		"--to", "md", "--image-export-mode", "placeholder", "--output", "/tmp/x",
		"--no-ocr", "--artifacts-path", "/models", "/in/a.pdf",
	}, d.Args(pdf, "/tmp/x"))

	docx := types.SourceFile{Path: "/in/b.docx", Name: "b.docx", Format: types.FormatDOCX}
	assert.NotContains(t, d.Args(docx, "/tmp/x"), "--no-ocr")
}

func TestDoclingConverter_Convert(t *testing.T) {
	dir := t.TempDir()
	src := source(t, dir, "paper.pdf")

	tests := []struct {
		name        string
		exec        *doclingExec
		wantMD      string
		wantPartial bool
		wantErr     string
	}{
		{
			name:   "success",
			exec:   &doclingExec{markdown: "# Paper"},
			wantMD: "# Paper",
		},
		{
			name:        "partial conversion",
			exec:        &doclingExec{markdown: "# Paper", logs: "WARNING: Document paper.pdf was partially converted with the following errors:\n"},
			wantMD:      "# Paper",
			wantPartial: true,
		},
		{
			name:    "process failure reports last log line",
			exec:    &doclingExec{logs: "loading models\nRuntimeError: out of memory\n", err: errors.New("exit status 1")},
			wantErr: "RuntimeError: out of memory",
		},
		{
			name:    "no output written",
			exec:    &doclingExec{},
			wantErr: "no markdown produced",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := newDoclingConverter(tt.exec, DoclingOptions{Env: []string{"SSL_CERT_FILE=/ca.pem"}})
			require.NoError(t, err)

			out, err := d.Convert(context.Background(), src)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMD, out.Markdown)
			assert.Equal(t, tt.wantPartial, out.Partial)
			assert.Equal(t, "docling", tt.exec.got.Name)
			assert.Equal(t, []string{"SSL_CERT_FILE=/ca.pem"}, tt.exec.got.Env)
		})
	}
}

func TestNewDoclingConverter_MissingCLI(t *testing.T) {
	_, err := newDoclingConverter(&doclingExec{missing: true}, DoclingOptions{})
	assert.ErrorContains(t, err, "docling CLI not found")
}

func TestReadProduced_FallsBackToSingleFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "renamed.md"), []byte("body"), 0o644))

	md, err := readProduced(dir, "original")
	require.NoError(t, err)
	assert.Equal(t, "body", md)
}
