// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the textmify stages.
package types

import (
	"path/filepath"
	"strings"
	"time"
)

// InputFormat identifies the document family of a source file.
type InputFormat string

const (
	FormatPDF      InputFormat = "pdf"
	FormatDOCX     InputFormat = "docx"
	FormatXLSX     InputFormat = "xlsx"
	FormatPPTX     InputFormat = "pptx"
	FormatMarkdown InputFormat = "md"
	FormatAsciiDoc InputFormat = "asciidoc"
	FormatHTML     InputFormat = "html"
	FormatCSV      InputFormat = "csv"
	FormatImage    InputFormat = "image"
	FormatXML      InputFormat = "xml"
	FormatJSON     InputFormat = "json"
	FormatUnknown  InputFormat = ""
)

// SourceFile is a document found in the input folder.
type SourceFile struct {
	// Path is the filesystem path to the document.
	Path string `json:"path" yaml:"path"`

	// Name is the base name including extension.
	Name string `json:"name" yaml:"name"`

	// Ext is the lower-cased extension including the leading dot.
	Ext string `json:"ext" yaml:"ext"`

	// Format is the detected input format, empty when unsupported.
	Format InputFormat `json:"format" yaml:"format"`

	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// Stem returns the base name without its extension.
func (s SourceFile) Stem() string {
	return strings.TrimSuffix(s.Name, filepath.Ext(s.Name))
}

// Supported reports whether a format was detected for the file.
func (s SourceFile) Supported() bool {
	return s.Format != FormatUnknown
}

// ConversionStatus indicates the outcome of converting one source file.
type ConversionStatus string

const (
	// ConversionNone means conversion was skipped because an up-to-date
	// output already exists.
	ConversionNone        ConversionStatus = "none"
	ConversionDone        ConversionStatus = "converted"
	ConversionPartial     ConversionStatus = "partial"
	ConversionUnsupported ConversionStatus = "unsupported"
	ConversionFailed      ConversionStatus = "failed"

	// ConversionInterrupted means cancellation stopped the file mid-attempt.
	ConversionInterrupted ConversionStatus = "interrupted"
)

// Succeeded reports whether the status left a Markdown file behind.
func (s ConversionStatus) Succeeded() bool {
	return s == ConversionDone || s == ConversionPartial || s == ConversionNone
}

// ConversionResult records what happened to one source file.
type ConversionResult struct {
	Source SourceFile `json:"source" yaml:"source"`

	// OutputPath is the Markdown file written, empty on failure.
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	Status ConversionStatus `json:"status" yaml:"status"`

	// Attempts is the number of converter calls made for the file.
	Attempts int `json:"attempts" yaml:"attempts"`

	// Words is the word count of the written Markdown.
	Words int `json:"words" yaml:"words"`

	// Error is the last conversion error, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Bucket is one combined output file produced in combine mode.
type Bucket struct {
	// Path is the packed Markdown file.
	Path string `json:"path" yaml:"path"`

	// Documents lists the member document stems in order.
	Documents []string `json:"documents" yaml:"documents"`

	// Words is the total word count of the bucket.
	Words int `json:"words" yaml:"words"`
}
