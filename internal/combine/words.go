// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package combine

import (
	"fmt"
	"io"
	"os"
	"unicode"

	textunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CountWords returns the number of words in text. A word is a maximal run
// of letters, numbers, or underscores, so punctuation and Markdown syntax
// such as "---" or "##" do not count. Combining marks are not word runes:
// a decomposed "na\u0308ive" counts as two words.
func CountWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if isWordRune(r) {
			if !inWord {
				count++
				inWord = true
			}
			continue
		}
		inWord = false
	}
	return count
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// ReadText reads a text file leniently: a byte order mark selects the
// encoding and is dropped, and invalid UTF-8 is replaced with U+FFFD.
func ReadText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dec := textunicode.BOMOverride(textunicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(data), nil
}

// CountFileWords returns the word count of the file at path.
func CountFileWords(path string) (int, error) {
	text, err := ReadText(path)
	if err != nil {
		return 0, err
	}
	return CountWords(text), nil
}
