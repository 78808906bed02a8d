// Package document implements a line-indexed text buffer with versioning,
// batched reversible edits, named cursor markers, and search.
package document

import (
	"strings"
	"sync"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/agentide/internal/coord"
)

const (
	// DefaultUndoDepth is the maximum number of edit batches kept for undo.
	DefaultUndoDepth = 10

	// DefaultCursorCapacity bounds the named cursor map.
	DefaultCursorCapacity = 10
)

// Document is a mutable, line-indexed text buffer.
//
// Content is stored as lines without trailing newlines. An empty document
// is a single empty line, so line 1 is always addressable. Version starts
// at 0 and increments exactly once per applied edit batch.
type Document struct {
	mu sync.RWMutex

	uri        string
	languageID string
	version    int
	lines      []string

	cursors *lru.Cache[string, coord.Position]
	history *undoStack
}

// Option configures a Document.
type Option func(*options)

type options struct {
	undoDepth int
	cursorCap int
}

// WithUndoDepth sets the undo deque bound.
func WithUndoDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.undoDepth = depth
		}
	}
}

// WithCursorCapacity sets the named cursor map bound.
func WithCursorCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cursorCap = n
		}
	}
}

// New creates a Document from the given content. CRLF line endings are
// normalized to LF.
func New(uri, languageID, content string, opts ...Option) *Document {
	o := options{
		undoDepth: DefaultUndoDepth,
		cursorCap: DefaultCursorCapacity,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cursors, _ := lru.New[string, coord.Position](o.cursorCap)

	content = strings.ReplaceAll(content, "\r\n", "\n")
	return &Document{
		uri:        uri,
		languageID: languageID,
		lines:      strings.Split(content, "\n"),
		cursors:    cursors,
		history:    newUndoStack(o.undoDepth),
	}
}

// URI returns the document identifier.
func (d *Document) URI() string { return d.uri }

// LanguageID returns the document's language identifier.
func (d *Document) LanguageID() string { return d.languageID }

// Version returns the current document version.
func (d *Document) Version() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// Line returns the content of the 1-based line, without a trailing newline.
func (d *Document) Line(line int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	resolved, err := coord.ResolveLine(line, len(d.lines))
	if err != nil {
		return "", err
	}
	return d.lines[resolved-1], nil
}

// LineLength returns the rune length of the 1-based line.
func (d *Document) LineLength(line int) (int, error) {
	content, err := d.Line(line)
	if err != nil {
		return 0, err
	}
	return utf8.RuneCountInString(content), nil
}

// Content returns the full document text joined with LF.
func (d *Document) Content() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.Join(d.lines, "\n")
}

// FullRange returns the resolved range covering the whole document.
func (d *Document) FullRange() coord.Range {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fullRangeLocked()
}

func (d *Document) fullRangeLocked() coord.Range {
	last := len(d.lines)
	return coord.Range{
		Start: coord.Position{Line: 1, Character: 1},
		End:   coord.Position{Line: last, Character: utf8.RuneCountInString(d.lines[last-1]) + 1},
	}
}

// ResolvePosition resolves a possibly-negative Position against the
// current buffer bounds. Fails with coord.ErrInvalidCoordinate when a
// component is zero or out of bounds.
func (d *Document) ResolvePosition(p coord.Position) (coord.Position, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolveLocked(p)
}

func (d *Document) resolveLocked(p coord.Position) (coord.Position, error) {
	line, err := coord.ResolveLine(p.Line, len(d.lines))
	if err != nil {
		return coord.Position{}, err
	}
	ch, err := coord.ResolveCharacter(p.Character, utf8.RuneCountInString(d.lines[line-1]))
	if err != nil {
		return coord.Position{}, err
	}
	return coord.Position{Line: line, Character: ch}, nil
}

// ResolveRange resolves both ends of a Range and verifies ordering.
func (d *Document) ResolveRange(r coord.Range) (coord.Range, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolveRangeLocked(r)
}

func (d *Document) resolveRangeLocked(r coord.Range) (coord.Range, error) {
	start, err := d.resolveLocked(r.Start)
	if err != nil {
		return coord.Range{}, err
	}
	end, err := d.resolveLocked(r.End)
	if err != nil {
		return coord.Range{}, err
	}
	if end.IsBefore(start) {
		return coord.Range{}, &coord.RangeError{Range: r, Reason: "start must not sort after end"}
	}
	return coord.Range{Start: start, End: end}, nil
}

// ValidatePosition returns the nearest in-bounds resolved Position,
// clamping out-of-range components instead of failing.
func (d *Document) ValidatePosition(p coord.Position) coord.Position {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.validateLocked(p)
}

func (d *Document) validateLocked(p coord.Position) coord.Position {
	line := p.Line
	if line < 0 {
		line = len(d.lines) + line + 1
	}
	if line < 1 {
		line = 1
	}
	if line > len(d.lines) {
		line = len(d.lines)
	}

	lineLen := utf8.RuneCountInString(d.lines[line-1])
	ch := p.Character
	if ch < 0 {
		ch = lineLen + ch + 2
	}
	if ch < 1 {
		ch = 1
	}
	if ch > lineLen+1 {
		ch = lineLen + 1
	}
	return coord.Position{Line: line, Character: ch}
}

// ValidateRange clamps both ends of a Range to the buffer bounds.
func (d *Document) ValidateRange(r coord.Range) coord.Range {
	d.mu.RLock()
	defer d.mu.RUnlock()
	start := d.validateLocked(r.Start)
	end := d.validateLocked(r.End)
	if end.IsBefore(start) {
		start, end = end, start
	}
	return coord.Range{Start: start, End: end}
}

// ValueInRange returns the text covered by the resolved range.
func (d *Document) ValueInRange(r coord.Range) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	resolved, err := d.resolveRangeLocked(r)
	if err != nil {
		return "", err
	}
	return d.valueLocked(resolved), nil
}

// valueLocked extracts text for an already-resolved range.
func (d *Document) valueLocked(r coord.Range) string {
	if r.Start.Line == r.End.Line {
		runes := []rune(d.lines[r.Start.Line-1])
		return string(runes[r.Start.Character-1 : r.End.Character-1])
	}

	var b strings.Builder
	first := []rune(d.lines[r.Start.Line-1])
	b.WriteString(string(first[r.Start.Character-1:]))
	for line := r.Start.Line + 1; line < r.End.Line; line++ {
		b.WriteByte('\n')
		b.WriteString(d.lines[line-1])
	}
	last := []rune(d.lines[r.End.Line-1])
	b.WriteByte('\n')
	b.WriteString(string(last[:r.End.Character-1]))
	return b.String()
}

// OffsetAt returns the rune offset of a resolved Position within the
// LF-joined document content.
func (d *Document) OffsetAt(p coord.Position) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.offsetAtLocked(p)
}

func (d *Document) offsetAtLocked(p coord.Position) int {
	offset := 0
	for line := 1; line < p.Line; line++ {
		offset += utf8.RuneCountInString(d.lines[line-1]) + 1
	}
	return offset + p.Character - 1
}

// PositionAt returns the resolved Position for a rune offset within the
// LF-joined document content. Offsets past the end clamp to the last slot.
func (d *Document) PositionAt(offset int) coord.Position {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.positionAtLocked(offset)
}

func (d *Document) positionAtLocked(offset int) coord.Position {
	if offset < 0 {
		offset = 0
	}
	for line, content := range d.lines {
		length := utf8.RuneCountInString(content)
		if offset <= length {
			return coord.Position{Line: line + 1, Character: offset + 1}
		}
		offset -= length + 1
	}
	last := len(d.lines)
	return coord.Position{Line: last, Character: utf8.RuneCountInString(d.lines[last-1]) + 1}
}
