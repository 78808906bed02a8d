package document

import (
	"sort"
	"strings"

	"github.com/dshills/agentide/internal/coord"
)

// EditOperation replaces the text covered by Range with Text.
// An empty Text deletes the range.
type EditOperation struct {
	Range coord.Range `json:"range"`
	Text  string      `json:"text"`
}

// resolvedEdit pairs an edit with its snapshot-resolved range.
type resolvedEdit struct {
	rng  coord.Range
	text string
}

// ApplyEdits applies a batch of edits atomically.
//
// Every range is resolved against the pre-batch content, so edits in the
// same batch address a single consistent snapshot. Overlapping resolved
// ranges reject the whole batch; touching ranges are permitted. The
// version increments exactly once per batch.
//
// When computeUndo is true the returned batch, applied the same way,
// restores the pre-batch content; it is also pushed onto the bounded
// undo stack.
func (d *Document) ApplyEdits(edits []EditOperation, computeUndo bool) ([]EditOperation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applyLocked(edits, computeUndo, true)
}

// Undo pops the newest inverse batch and applies it. The applied batch
// is returned so callers can report what changed. Undoing increments
// the version like any other batch.
func (d *Document) Undo() ([]EditOperation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch, err := d.history.pop()
	if err != nil {
		return nil, err
	}
	if _, err := d.applyLocked(batch, false, false); err != nil {
		// Restore the batch so a later retry is possible.
		d.history.push(batch)
		return nil, err
	}
	return batch, nil
}

// UndoDepth returns the number of batches currently undoable.
func (d *Document) UndoDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.depth()
}

func (d *Document) applyLocked(edits []EditOperation, computeUndo, record bool) ([]EditOperation, error) {
	// An empty batch is a no-op: bumping the version without a matching
	// undo entry would let version and history drift apart.
	if len(edits) == 0 {
		return nil, nil
	}

	resolved := make([]resolvedEdit, len(edits))
	for i, e := range edits {
		rng, err := d.resolveRangeLocked(e.Range)
		if err != nil {
			return nil, err
		}
		resolved[i] = resolvedEdit{rng: rng, text: strings.ReplaceAll(e.Text, "\r\n", "\n")}
	}

	// Ascending by start for overlap detection and inverse computation.
	order := make([]int, len(resolved))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return resolved[order[a]].rng.Start.IsBefore(resolved[order[b]].rng.Start)
	})

	for i := 1; i < len(order); i++ {
		prev, cur := resolved[order[i-1]].rng, resolved[order[i]].rng
		if prev.Overlaps(cur) {
			return nil, &coord.RangeError{Range: cur, Reason: "overlapping edit ranges are not allowed"}
		}
	}

	var inverse []EditOperation
	if computeUndo {
		inverse = d.inverseLocked(resolved, order)
	}

	// Apply bottom-up so earlier splices do not shift later ranges.
	for i := len(order) - 1; i >= 0; i-- {
		e := resolved[order[i]]
		d.spliceLocked(e.rng, e.text)
	}
	d.version++

	if computeUndo && record {
		d.history.push(inverse)
	}
	return inverse, nil
}

// spliceLocked replaces the text covered by an already-resolved range.
func (d *Document) spliceLocked(r coord.Range, text string) {
	startRunes := []rune(d.lines[r.Start.Line-1])
	endRunes := []rune(d.lines[r.End.Line-1])
	prefix := string(startRunes[:r.Start.Character-1])
	suffix := string(endRunes[r.End.Character-1:])

	replacement := strings.Split(prefix+text+suffix, "\n")

	updated := make([]string, 0, len(d.lines)-(r.End.Line-r.Start.Line+1)+len(replacement))
	updated = append(updated, d.lines[:r.Start.Line-1]...)
	updated = append(updated, replacement...)
	updated = append(updated, d.lines[r.End.Line:]...)
	d.lines = updated
}

// inverseLocked computes, for each edit, the range its new text will
// occupy in the post-batch document paired with the text it replaces.
// Earlier edits shift the lines (and, on a shared line, the columns) of
// later ones; the deltas are accumulated in ascending range order.
func (d *Document) inverseLocked(resolved []resolvedEdit, order []int) []EditOperation {
	inverse := make([]EditOperation, 0, len(order))

	lineDelta := 0
	prevEndLine := 0
	prevCharDelta := 0
	for _, idx := range order {
		e := resolved[idx]
		old := d.valueLocked(e.rng)

		startLine := e.rng.Start.Line + lineDelta
		startChar := e.rng.Start.Character
		if e.rng.Start.Line == prevEndLine {
			startChar += prevCharDelta
		}

		newlines := strings.Count(e.text, "\n")
		var endLine, endChar int
		if newlines == 0 {
			endLine = startLine
			endChar = startChar + runeLen(e.text)
		} else {
			endLine = startLine + newlines
			tail := e.text[strings.LastIndexByte(e.text, '\n')+1:]
			endChar = runeLen(tail) + 1
		}

		inverse = append(inverse, EditOperation{
			Range: coord.Range{
				Start: coord.Position{Line: startLine, Character: startChar},
				End:   coord.Position{Line: endLine, Character: endChar},
			},
			Text: old,
		})

		lineDelta += newlines - (e.rng.End.Line - e.rng.Start.Line)
		prevEndLine = e.rng.End.Line
		prevCharDelta = endChar - e.rng.End.Character
	}
	return inverse
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
