// Package section locates and rewrites labeled subsections of a document
// body. A section starts at a second-level Markdown heading and runs to the
// next such heading, or to the natural end of its prose when no heading
// follows. All operations are pure string transforms; metadata is never
// touched here.
package section

import (
	"regexp"
	"strings"
)

// Mode selects how Merge combines new content with an existing section.
type Mode int

const (
	// Replace swaps the section's full span for the new content. When the
	// content carries no heading of its own, the existing heading line is
	// kept and only the section body is replaced.
	Replace Mode = iota
	// AppendAfter inserts the content immediately after the section's end.
	AppendAfter
	// AppendAtEnd appends the content to the end of the body.
	AppendAtEnd
)

// Span is a half-open [Start, End) byte range within a body.
type Span struct {
	Start int
	End   int
}

var headingRe = regexp.MustCompile(`(?m)^[ \t]*##[ \t]+(.*?)[ \t]*\r?$`)

// Locate finds the span of the section labeled label, matched
// case-insensitively against the heading text with flexible surrounding
// whitespace. The end of the span is, in priority order: the start of the
// next second-level heading anywhere after this one; otherwise the first
// blank line past the section's opening that is not followed by list-like
// content (lines starting with -, * or |); otherwise the end of the body.
//
// The blank-line rule is a prose heuristic, not a grammar: a code fence or
// blockquote sitting after a blank line ends the section too.
func Locate(body, label string) (Span, bool) {
	matches := headingRe.FindAllStringSubmatchIndex(body, -1)
	found := -1
	for i, m := range matches {
		if strings.EqualFold(body[m[2]:m[3]], label) {
			found = i
			break
		}
	}
	if found < 0 {
		return Span{}, false
	}

	start := matches[found][0]
	if found+1 < len(matches) {
		return Span{Start: start, End: matches[found+1][0]}, true
	}
	return Span{Start: start, End: proseEnd(body, matches[found][1])}, true
}

// Merge applies content to the section labeled label according to mode and
// returns the rewritten body. Inserted content is always separated from its
// neighbors by exactly one blank line, whatever whitespace the inputs carry.
func Merge(body, label, content string, mode Mode) string {
	span, ok := Locate(body, label)

	switch {
	case mode == Replace && ok:
		block := strings.TrimSpace(content)
		if !strings.HasPrefix(block, "##") {
			// Keep the existing heading; replace only the section body.
			heading := headingLine(body, span.Start)
			block = heading + "\n\n" + block
		}
		return splice(body, body[:span.Start], block, body[span.End:])

	case mode == AppendAfter && ok:
		return splice(body, body[:span.End], strings.TrimSpace(content), body[span.End:])

	default:
		// AppendAtEnd, and the fallback for both other modes when the
		// section does not exist yet.
		return splice(body, body, strings.TrimSpace(content), "")
	}
}

// proseEnd implements the natural-end heuristic: starting after the heading
// line, skip the blank lines that open the section, then stop at the first
// blank line whose following line is not list-like.
func proseEnd(body string, from int) int {
	pos := from
	if pos < len(body) && body[pos] == '\n' {
		pos++
	}
	seenContent := false
	for pos < len(body) {
		lineEnd := strings.IndexByte(body[pos:], '\n')
		next := len(body)
		if lineEnd >= 0 {
			next = pos + lineEnd + 1
		}
		line := strings.TrimRight(body[pos:next], "\n")

		if strings.TrimSpace(line) == "" {
			if seenContent && !listLike(body, next) {
				return pos
			}
		} else {
			seenContent = true
		}
		pos = next
	}
	return len(body)
}

// listLike reports whether the line starting at pos opens list-like content.
func listLike(body string, pos int) bool {
	if pos >= len(body) {
		return false
	}
	rest := strings.TrimLeft(body[pos:], " \t")
	return strings.HasPrefix(rest, "-") || strings.HasPrefix(rest, "*") || strings.HasPrefix(rest, "|")
}

// headingLine returns the heading line beginning at start, without its
// terminating newline.
func headingLine(body string, start int) string {
	end := strings.IndexByte(body[start:], '\n')
	if end < 0 {
		return body[start:]
	}
	return body[start : start+end]
}

// splice joins before, block, and after with exactly one blank line at each
// boundary, preserving a single trailing newline if the original body had
// one.
func splice(original, before, block, after string) string {
	var b strings.Builder
	lead := strings.TrimRight(before, " \t\n")
	trail := strings.TrimLeft(after, " \t\n")
	block = strings.Trim(block, "\n")

	if lead != "" {
		b.WriteString(lead)
		if block != "" || trail != "" {
			b.WriteString("\n\n")
		}
	}
	b.WriteString(block)
	if trail != "" {
		b.WriteString("\n\n")
		b.WriteString(trail)
	}

	out := b.String()
	if strings.HasSuffix(original, "\n") && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}
