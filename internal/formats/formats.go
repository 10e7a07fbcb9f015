// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package formats maps file extensions to the input formats the conversion
// library accepts.
package formats

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/textmify/pkg/types"
)

var byExtension = map[string]types.InputFormat{
	".pdf":      types.FormatPDF,
	".docx":     types.FormatDOCX,
	".xlsx":     types.FormatXLSX,
	".pptx":     types.FormatPPTX,
	".md":       types.FormatMarkdown,
	".asciidoc": types.FormatAsciiDoc,
	".html":     types.FormatHTML,
	".xhtml":    types.FormatHTML,
	".htm":      types.FormatHTML,
	".csv":      types.FormatCSV,
	".png":      types.FormatImage,
	".jpg":      types.FormatImage,
	".jpeg":     types.FormatImage,
	".tiff":     types.FormatImage,
	".bmp":      types.FormatImage,
	".xml":      types.FormatXML,
	".json":     types.FormatJSON,
}

// Detect returns the input format for path based on its extension.
// Matching is case-insensitive.
func Detect(path string) (types.InputFormat, bool) {
	f, ok := byExtension[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Supported reports whether path has an extension the converter accepts.
func Supported(path string) bool {
	_, ok := Detect(path)
	return ok
}

// Extensions returns the supported extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Describe returns the human-readable list of supported formats.
func Describe() string {
	return "PDF, DOCX, XLSX, PPTX, MD, AsciiDoc, HTML, XHTML, CSV, PNG, JPEG, TIFF, BMP, XML, JSON"
}
