// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package combine packs per-document Markdown files into a few larger files,
// each bounded by a word count, for tools that take a limited number of
// uploads.
package combine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/textmify/internal/logging"
	"github.com/pdiddy/textmify/pkg/types"
)

const (
	// DefaultMaxWords bounds each packed file.
	DefaultMaxWords = 100000

	// DefaultPrefix names packed files: packed_0.md, packed_1.md, ...
	DefaultPrefix = "packed_"

	separator = "\n\n---\n\n"
)

// Document is one Markdown input rendered for packing.
type Document struct {
	Name    string
	Content string
	Words   int
}

// NewDocument renders name and body as a packed section and counts its words.
func NewDocument(name, body string) Document {
	content := "## " + name + "\n\n" + body
	return Document{Name: name, Content: content, Words: CountWords(content)}
}

// Pack groups docs greedily, in order. A document joins the current bucket
// unless the bucket is non-empty and the document would push it past
// maxWords, in which case a new bucket starts. A single document larger
// than maxWords therefore gets a bucket of its own.
func Pack(docs []Document, maxWords int) [][]Document {
	var (
		buckets [][]Document
		current []Document
		words   int
	)
	for _, d := range docs {
		if len(current) > 0 && words+d.Words > maxWords {
			buckets = append(buckets, current)
			current, words = nil, 0
		}
		current = append(current, d)
		words += d.Words
	}
	if len(current) > 0 {
		buckets = append(buckets, current)
	}
	return buckets
}

// Options controls Combine.
type Options struct {
	MaxWords int
	Prefix   string

	// OnDocument is called after each input file is read.
	OnDocument func(name string)
}

func (o Options) withDefaults() Options {
	if o.MaxWords <= 0 {
		o.MaxWords = DefaultMaxWords
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	return o
}

// Combine packs every *.md file in dir, except earlier packed files, into
// <prefix><n>.md files in dir. Inputs are taken in name order. Packed files
// left from a previous run are removed first.
func Combine(dir string, opts Options, log *logging.Logger) ([]types.Bucket, error) {
	opts = opts.withDefaults()
	log = log.WithComponent("combine")

	inputs, err := markdownInputs(dir, opts.Prefix)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		log.Warn().Str("dir", dir).Msg("No markdown files found")
		return nil, nil
	}

	if err := removeStale(dir, opts.Prefix); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(inputs))
	for _, path := range inputs {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		text, err := ReadText(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Error reading markdown file")
		} else {
			docs = append(docs, NewDocument(name, text))
		}
		if opts.OnDocument != nil {
			opts.OnDocument(name)
		}
	}

	packed := Pack(docs, opts.MaxWords)
	buckets := make([]types.Bucket, 0, len(packed))
	for i, group := range packed {
		b, err := writeBucket(dir, fmt.Sprintf("%s%d.md", opts.Prefix, i), group)
		if err != nil {
			return buckets, err
		}
		if b.Words > opts.MaxWords {
			log.Warn().Str("bucket", filepath.Base(b.Path)).Int("words", b.Words).
				Msg("Single document exceeds the word limit")
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func markdownInputs(dir, prefix string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	inputs := matches[:0]
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), prefix) {
			continue
		}
		if info, err := os.Stat(m); err != nil || !info.Mode().IsRegular() {
			continue
		}
		inputs = append(inputs, m)
	}
	sort.Strings(inputs)
	return inputs, nil
}

// removeStale deletes numbered buckets (<prefix><n>.md) left by an earlier
// run. Other files sharing the prefix are kept.
func removeStale(dir, prefix string) error {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*.md"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if !isBucketName(filepath.Base(m), prefix) {
			continue
		}
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("removing old packed file: %w", err)
		}
	}
	return nil
}

func isBucketName(name, prefix string) bool {
	n := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".md")
	if n == "" || len(n) == len(name) {
		return false
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeBucket(dir, name string, docs []Document) (types.Bucket, error) {
	b := types.Bucket{Path: filepath.Join(dir, name)}
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
		b.Documents = append(b.Documents, d.Name)
		b.Words += d.Words
	}
	if err := os.WriteFile(b.Path, []byte(strings.Join(parts, separator)), 0o644); err != nil {
		return types.Bucket{}, fmt.Errorf("writing %s: %w", b.Path, err)
	}
	return b, nil
}
