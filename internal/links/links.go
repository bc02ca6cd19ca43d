// Package links implements internal-link insertion over markdown documents.
// It is strictly textual: no external calls, deterministic output.
package links

import (
	"fmt"
	"regexp"
	"sort"
)

// Suggestion pairs anchor text with a link target.
type Suggestion struct {
	Anchor string `json:"anchor"`
	Target string `json:"target"`
}

// markdownLink matches an existing markdown link construct.
var markdownLink = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)

// htmlAnchor matches an inline HTML anchor, which generated bodies may contain.
var htmlAnchor = regexp.MustCompile(`(?is)<a\b.*?</a>`)

// Insert wraps the first unlinked occurrence of each suggestion's anchor text
// in a markdown link. Suggestions are applied longest anchor first so a short
// anchor cannot claim a substring of a longer one. Anchors with no unlinked
// occurrence are no-ops, never errors. Suggestions with an empty anchor or
// target are skipped.
func Insert(doc string, suggestions []Suggestion) string {
	valid := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Anchor != "" && s.Target != "" {
			valid = append(valid, s)
		}
	}

	// Longest first; stable so equal-length anchors keep caller order.
	sort.SliceStable(valid, func(i, j int) bool {
		return len(valid[i].Anchor) > len(valid[j].Anchor)
	})

	for _, s := range valid {
		doc = insertOne(doc, s)
	}

	return doc
}

// insertOne links the first occurrence of s.Anchor that is not already inside
// a link construct. Later occurrences are left untouched.
func insertOne(doc string, s Suggestion) string {
	pattern := regexp.MustCompile(regexp.QuoteMeta(s.Anchor))
	spans := linkSpans(doc)

	for _, loc := range pattern.FindAllStringIndex(doc, -1) {
		if insideAny(loc, spans) {
			continue
		}
		return doc[:loc[0]] +
			fmt.Sprintf("[%s](%s)", doc[loc[0]:loc[1]], s.Target) +
			doc[loc[1]:]
	}

	return doc
}

// linkSpans returns the index ranges of all existing link constructs.
func linkSpans(doc string) [][]int {
	spans := markdownLink.FindAllStringIndex(doc, -1)
	spans = append(spans, htmlAnchor.FindAllStringIndex(doc, -1)...)
	return spans
}

// insideAny reports whether loc overlaps any of the given spans.
func insideAny(loc []int, spans [][]int) bool {
	for _, span := range spans {
		if loc[0] < span[1] && loc[1] > span[0] {
			return true
		}
	}
	return false
}
