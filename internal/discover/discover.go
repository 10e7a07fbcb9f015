// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover enumerates the source documents of an input folder.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/pdiddy/textmify/internal/formats"
	"github.com/pdiddy/textmify/pkg/types"
)

// Options controls which files Scan returns.
type Options struct {
	// Recursive descends into subdirectories.
	Recursive bool

	// Exclude holds doublestar patterns matched against the slash-separated
	// path relative to the root and against the base name.
	Exclude []string

	// SkipDirs are directories never descended into (e.g. the output dir).
	SkipDirs []string
}

// Listing is the result of a scan.
type Listing struct {
	Supported   []types.SourceFile
	Unsupported []types.SourceFile
}

// Total returns the number of files found, supported or not.
func (l Listing) Total() int {
	return len(l.Supported) + len(l.Unsupported)
}

// ValidatePatterns checks that every exclude pattern is well formed.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// Scan lists the regular, non-hidden files under root. Results are sorted
// by path so the conversion order is stable.
func Scan(root string, opts Options) (Listing, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Listing{}, fmt.Errorf("folder %s: %w", root, err)
	}
	if !info.IsDir() {
		return Listing{}, fmt.Errorf("folder %s is not a directory", root)
	}
	if err := ValidatePatterns(opts.Exclude); err != nil {
		return Listing{}, err
	}

	var files []types.SourceFile
	if opts.Recursive {
		files, err = walk(root, opts)
	} else {
		files, err = readDir(root, opts)
	}
	if err != nil {
		return Listing{}, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var l Listing
	for _, f := range files {
		if f.Supported() {
			l.Supported = append(l.Supported, f)
		} else {
			l.Unsupported = append(l.Unsupported, f)
		}
	}
	return l, nil
}

func readDir(root string, opts Options) ([]types.SourceFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading folder %s: %w", root, err)
	}

	var files []types.SourceFile
	for _, e := range entries {
		if isHidden(e.Name()) || e.IsDir() {
			continue
		}
		path := filepath.Join(root, e.Name())
		if excluded(e.Name(), e.Name(), opts.Exclude) {
			continue
		}
		if f, ok := sourceFile(path); ok {
			files = append(files, f)
		}
	}
	return files, nil
}

func walk(root string, opts Options) ([]types.SourceFile, error) {
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip[abs] = true
		}
	}
	cleanRoot := filepath.Clean(root)

	var (
		mu    sync.Mutex
		files []types.SourceFile
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if filepath.Clean(path) == cleanRoot {
			return nil
		}
		if d.IsDir() {
			if isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(path); err == nil && skip[abs] {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(cleanRoot, path)
		if err != nil {
			rel = d.Name()
		}
		if excluded(filepath.ToSlash(rel), d.Name(), opts.Exclude) {
			return nil
		}
		f, ok := sourceFile(path)
		if !ok {
			return nil
		}
		mu.Lock()
		files = append(files, f)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking folder %s: %w", root, err)
	}
	return files, nil
}

// sourceFile stats path, following symlinks, and builds a SourceFile for
// regular files.
func sourceFile(path string) (types.SourceFile, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return types.SourceFile{}, false
	}
	format, _ := formats.Detect(path)
	return types.SourceFile{
		Path:    path,
		Name:    info.Name(),
		Ext:     strings.ToLower(filepath.Ext(path)),
		Format:  format,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, true
}

func excluded(rel, name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
