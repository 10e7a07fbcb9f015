// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/textmify/internal/container"
	"github.com/pdiddy/textmify/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

// MarkitdownConverter converts documents by piping them through the
// markitdown container image. It depends on a container.Runtime (docker or
// podman) injected at construction time.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run the markitdown image. It verifies that the markitdown image
// exists locally before returning.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

// Name implements Converter.
func (m *MarkitdownConverter) Name() string { return string(types.BackendMarkitdown) }

// Convert streams the document through the markitdown container and returns
// the resulting Markdown text.
func (m *MarkitdownConverter) Convert(ctx context.Context, src types.SourceFile) (Output, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return Output{}, fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, f, &out); err != nil {
		return Output{}, fmt.Errorf("converting %s with markitdown: %w", src.Name, err)
	}

	if out.Len() == 0 {
		return Output{}, fmt.Errorf("markitdown on %s: %w", src.Name, ErrEmptyOutput)
	}

	return Output{Markdown: out.String()}, nil
}
