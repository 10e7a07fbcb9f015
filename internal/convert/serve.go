// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/pdiddy/textmify/internal/httputil"
	"github.com/pdiddy/textmify/pkg/types"
)

const (
	serveConvertPath = "/v1/convert/file"
	serveAPIKeyHdr   = "X-Api-Key"

	serveStatusSuccess = "success"
	serveStatusPartial = "partial_success"

	maxErrorBody = 512
)

// ServeOptions configures the docling-serve backend.
type ServeOptions struct {
	// BaseURL is the docling-serve root, e.g. http://localhost:5001.
	BaseURL string

	// APIKey is sent as X-Api-Key when set.
	APIKey string

	UserAgent string

	// NoOCR disables OCR for PDF inputs.
	NoOCR bool

	// MaxRetries bounds 429 retries inside a single attempt (0 = default).
	MaxRetries int
}

// ServeConverter converts documents by uploading them to a docling-serve
// instance.
type ServeConverter struct {
	client *http.Client
	opts   ServeOptions
}

// NewServeConverter creates an HTTP backend using client.
func NewServeConverter(client *http.Client, opts ServeOptions) (*ServeConverter, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("docling-serve backend requires a server URL")
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &ServeConverter{client: client, opts: opts}, nil
}

// Name implements Converter.
func (s *ServeConverter) Name() string { return string(types.BackendDoclingServe) }

// serveResponse is the subset of the docling-serve conversion response used.
type serveResponse struct {
	Document struct {
		Filename  string `json:"filename"`
		MDContent string `json:"md_content"`
	} `json:"document"`
	Status string `json:"status"`
	Errors []struct {
		ErrorMessage string `json:"error_message"`
	} `json:"errors"`
}

// Convert implements Converter.
func (s *ServeConverter) Convert(ctx context.Context, src types.SourceFile) (Output, error) {
	body, contentType, err := s.buildForm(src)
	if err != nil {
		return Output{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.BaseURL+serveConvertPath, bytes.NewReader(body))
	if err != nil {
		return Output{}, fmt.Errorf("building request for %s: %w", src.Name, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if s.opts.UserAgent != "" {
		req.Header.Set("User-Agent", s.opts.UserAgent)
	}
	if s.opts.APIKey != "" {
		req.Header.Set(serveAPIKeyHdr, s.opts.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.opts.MaxRetries)
	if err != nil {
		return Output{}, fmt.Errorf("uploading %s to docling-serve: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Output{}, fmt.Errorf("docling-serve returned %d for %s: %s",
			resp.StatusCode, src.Name, strings.TrimSpace(string(snippet)))
	}

	var sr serveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Output{}, fmt.Errorf("decoding docling-serve response for %s: %w", src.Name, err)
	}

	switch sr.Status {
	case serveStatusSuccess:
		return Output{Markdown: sr.Document.MDContent}, nil
	case serveStatusPartial:
		return Output{Markdown: sr.Document.MDContent, Partial: true}, nil
	default:
		msgs := make([]string, 0, len(sr.Errors))
		for _, e := range sr.Errors {
			msgs = append(msgs, e.ErrorMessage)
		}
		return Output{}, fmt.Errorf("docling-serve status %q for %s: %s",
			sr.Status, src.Name, strings.Join(msgs, "; "))
	}
}

func (s *ServeConverter) buildForm(src types.SourceFile) ([]byte, string, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"to_formats", "md"},
		{"image_export_mode", "placeholder"},
		{"abort_on_error", "false"},
	}
	if s.opts.NoOCR && src.Format == types.FormatPDF {
		fields = append(fields, [2]string{"do_ocr", "false"})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}

	part, err := mw.CreateFormFile("files", src.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", src.Path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
