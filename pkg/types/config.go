// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionBackend identifies how the conversion library is reached.
type ConversionBackend string

const (
	BackendDocling      ConversionBackend = "docling"
	BackendDoclingServe ConversionBackend = "docling-serve"
	BackendMarkitdown   ConversionBackend = "markitdown"
)

// Backends lists the accepted backend names in display order.
var Backends = []ConversionBackend{BackendDocling, BackendDoclingServe, BackendMarkitdown}

// HTTPConfig holds settings for backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the conversion route: docling, docling-serve, or markitdown.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// OutputDir receives one Markdown file per converted document.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Retries is the number of conversion attempts per file (default 3).
	Retries int `json:"retries" yaml:"retries"`

	// RetryDelay is the wait before the second attempt; it doubles after
	// each further failure (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// NoOCR disables OCR for PDF inputs.
	NoOCR bool `json:"no_ocr" yaml:"no_ocr"`

	// ArtifactsPath is the docling model artifacts directory.
	ArtifactsPath string `json:"artifacts_path" yaml:"artifacts_path"`

	// SkipExisting skips sources whose last successful conversion is
	// still current.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`

	// ServeURL is the base URL of a docling-serve instance.
	ServeURL string `json:"serve_url,omitempty" yaml:"serve_url,omitempty"`

	HTTPConfig `yaml:",inline"`
}

// CombineConfig holds settings for packing Markdown outputs.
type CombineConfig struct {
	// MaxWords bounds the word count of each packed file (default 100000).
	MaxWords int `json:"max_words" yaml:"max_words"`

	// Prefix names packed files (default "packed_").
	Prefix string `json:"prefix" yaml:"prefix"`
}

// DiscoveryConfig controls which files in the input folder are considered.
type DiscoveryConfig struct {
	Recursive bool     `json:"recursive" yaml:"recursive"`
	Exclude   []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// RunConfig groups all stage configurations for one invocation.
type RunConfig struct {
	InputDir   string           `json:"input_dir" yaml:"input_dir"`
	Combine    bool             `json:"combine" yaml:"combine"`
	CACert     string           `json:"ca_cert,omitempty" yaml:"ca_cert,omitempty"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Combining  CombineConfig    `json:"combining" yaml:"combining"`
	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery"`
}
