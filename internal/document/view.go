package document

import (
	"fmt"
	"strings"

	"github.com/dshills/agentide/internal/coord"
)

// View renders the full buffer with 1-based line numbers and cursor
// markers interleaved at their positions. Intended as the primary
// representation handed back to a caller after mutations.
func (d *Document) View() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	lines := make([]string, len(d.lines))
	copy(lines, d.lines)

	// Markers are spliced bottom-up so earlier insertions do not shift
	// the positions of markers above them on the same line.
	cursors := d.Cursors()
	for i := len(cursors) - 1; i >= 0; i-- {
		c := cursors[i]
		if c.Position.Line < 1 || c.Position.Line > len(lines) {
			continue
		}
		runes := []rune(lines[c.Position.Line-1])
		ch := c.Position.Character
		if ch > len(runes)+1 {
			ch = len(runes) + 1
		}
		lines[c.Position.Line-1] = string(runes[:ch-1]) + c.String() + string(runes[ch-1:])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s (%s) version %d\n", d.uri, d.languageID, d.version)
	writeNumbered(&b, lines, 1)
	return b.String()
}

// SimpleView renders the buffer with line numbers only, no header
// decoration beyond the URI and no cursor markers. Used when payload
// size matters more than orientation cues.
func (d *Document) SimpleView() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", d.uri)
	writeNumbered(&b, d.lines, 1)
	return b.String()
}

// ViewRange renders the slice of the buffer covered by the clamped
// range, optionally prefixed with line numbers.
func (d *Document) ViewRange(r coord.Range, withLineNum bool) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	start := d.validateLocked(r.Start)
	end := d.validateLocked(r.End)
	if end.IsBefore(start) {
		start, end = end, start
	}

	slice := strings.Split(d.valueLocked(coord.Range{Start: start, End: end}), "\n")
	if !withLineNum {
		return strings.Join(slice, "\n")
	}
	var b strings.Builder
	writeNumbered(&b, slice, start.Line)
	return b.String()
}

// ContextAround renders the lines covering rng expanded by margin lines
// on each side, with line numbers. Used for post-edit feedback.
func (d *Document) ContextAround(rng coord.Range, margin int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	startLine := rng.Start.Line - margin
	if startLine < 1 {
		startLine = 1
	}
	endLine := rng.End.Line + margin
	if endLine > len(d.lines) {
		endLine = len(d.lines)
	}

	var b strings.Builder
	writeNumbered(&b, d.lines[startLine-1:endLine], startLine)
	return b.String()
}

// writeNumbered writes lines prefixed with left-aligned width-5 line
// numbers followed by a pipe.
func writeNumbered(b *strings.Builder, lines []string, firstLine int) {
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(b, "%-5d|%s", firstLine+i, line)
	}
}
