// Package chunker splits extracted document text into overlapping chunks
// sized for one extraction call each.
package chunker

import (
	"regexp"
	"strings"
)

// Default chunking parameters. Larger chunks mean fewer oracle calls.
const (
	DefaultChunkSize = 3000
	DefaultOverlap   = 300
	DefaultMinLength = 100
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Options controls chunk sizing.
type Options struct {
	ChunkSize int // max chunk length in runes
	Overlap   int // runes shared between consecutive chunks
	MinLength int // chunks at or below this length (trimmed) are dropped
}

// DefaultOptions returns the standard chunking parameters.
func DefaultOptions() Options {
	return Options{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
		MinLength: DefaultMinLength,
	}
}

// Split cuts text into overlapping chunks. Chunk boundaries snap back to
// the last sentence-ending period when one falls in the second half of the
// window; chunks whose trimmed length does not exceed MinLength are dropped.
func Split(text string, opts Options) []string {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	// Sentence snapping can pull a chunk end back to just past the window
	// midpoint, so the overlap must stay below half the chunk size or the
	// next start would not advance.
	if opts.Overlap < 0 || opts.Overlap >= opts.ChunkSize/2 {
		opts.Overlap = opts.ChunkSize / 10
	}

	text = strings.TrimSpace(blankRunRe.ReplaceAllString(text, "\n\n"))
	runes := []rune(text)

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + opts.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if end < len(runes) {
			// Snap to a sentence boundary if one exists past the midpoint.
			if p := lastPeriod(runes, start, end); p > start+opts.ChunkSize/2 {
				end = p + 1
			}
		}
		chunks = append(chunks, string(runes[start:end]))
		if end >= len(runes) {
			break
		}
		start = end - opts.Overlap
	}

	out := chunks[:0]
	for _, c := range chunks {
		if len(strings.TrimSpace(c)) > opts.MinLength {
			out = append(out, c)
		}
	}
	return out
}

// lastPeriod returns the index of the last '.' in runes[start:end], or -1.
func lastPeriod(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '.' {
			return i
		}
	}
	return -1
}
