package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

var paragraphBreak = regexp.MustCompile(`\r?\n[ \t\r]*\n\s*`)

type span struct{ start, end int }

func (s span) len() int { return s.end - s.start }

// chunkText splits raw on blank lines, merges paragraphs shorter than floor
// into their neighbours and, when ceiling > 0, cuts longer paragraphs into
// overlapping windows. Every chunk is an exact slice of raw.
func chunkText(raw string, floor, ceiling, overlap int) []commonModels.Chunk {
	paragraphs := splitParagraphs(raw)
	if len(paragraphs) == 0 {
		return nil
	}
	merged := mergeShort(paragraphs, floor)

	var spans []span
	for _, s := range merged {
		if ceiling > 0 && s.len() > ceiling {
			spans = append(spans, splitSpan(raw, s, ceiling, overlap)...)
			continue
		}
		spans = append(spans, s)
	}

	chunks := make([]commonModels.Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = commonModels.Chunk{Index: i, Text: raw[s.start:s.end], Start: s.start, End: s.end}
	}
	return chunks
}

func splitParagraphs(raw string) []span {
	var out []span
	prev := 0
	for _, loc := range paragraphBreak.FindAllStringIndex(raw, -1) {
		if s, ok := trimSpan(raw, span{prev, loc[0]}); ok {
			out = append(out, s)
		}
		prev = loc[1]
	}
	if s, ok := trimSpan(raw, span{prev, len(raw)}); ok {
		out = append(out, s)
	}
	return out
}

func trimSpan(raw string, s span) (span, bool) {
	text := raw[s.start:s.end]
	left := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
	right := len(strings.TrimRightFunc(text, unicode.IsSpace))
	if right <= left {
		return span{}, false
	}
	return span{s.start + left, s.start + right}, true
}

func mergeShort(paragraphs []span, floor int) []span {
	out := make([]span, 0, len(paragraphs))
	current := paragraphs[0]
	for _, next := range paragraphs[1:] {
		if current.len() < floor {
			current.end = next.end
			continue
		}
		out = append(out, current)
		current = next
	}
	if current.len() < floor && len(out) > 0 {
		out[len(out)-1].end = current.end
	} else {
		out = append(out, current)
	}
	return out
}

// splitSpan cuts s into windows of at most limit bytes, preferring to end a
// window on a line break, sentence end or space, and starting each window
// overlap bytes before the previous end.
func splitSpan(raw string, s span, limit, overlap int) []span {
	separators := []string{"\n", ". ", " "}
	if overlap >= limit {
		overlap = limit / 2
	}
	var out []span
	start := s.start
	for start < s.end {
		end := min(start+limit, s.end)
		if end < s.end {
			window := raw[start:end]
			for _, sep := range separators {
				if i := strings.LastIndex(window, sep); i > limit/2 {
					end = start + i + len(sep)
					break
				}
			}
		}
		if t, ok := trimSpan(raw, span{start, end}); ok {
			out = append(out, t)
		}
		if end >= s.end {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}
