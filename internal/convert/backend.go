// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/pdiddy/textmify/internal/container"
	"github.com/pdiddy/textmify/pkg/types"
)

// BackendOptions carries the setup-time inputs a backend may need.
type BackendOptions struct {
	// Env is appended to converter subprocesses (certificate settings).
	Env []string

	// TLS is used by the HTTP backend.
	TLS *tls.Config

	// APIKey authenticates against docling-serve.
	APIKey string
}

// New builds the Converter selected by cfg.Backend.
func New(ctx context.Context, cfg types.ConversionConfig, opts BackendOptions) (Converter, error) {
	switch cfg.Backend {
	case types.BackendDocling, "":
		return NewDoclingConverter(DoclingOptions{
			NoOCR:         cfg.NoOCR,
			ArtifactsPath: cfg.ArtifactsPath,
			Env:           opts.Env,
		})
	case types.BackendDoclingServe:
		client := &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{TLSClientConfig: opts.TLS, Proxy: http.ProxyFromEnvironment},
		}
		return NewServeConverter(client, ServeOptions{
			BaseURL:   cfg.ServeURL,
			APIKey:    opts.APIKey,
			UserAgent: cfg.UserAgent,
			NoOCR:     cfg.NoOCR,
		})
	case types.BackendMarkitdown:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewMarkitdownConverter(ctx, rt)
	default:
		return nil, fmt.Errorf("unknown backend %q: use docling, docling-serve, or markitdown", cfg.Backend)
	}
}
