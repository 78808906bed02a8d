package document

import (
	"fmt"
	"sort"

	"github.com/dshills/agentide/internal/coord"
)

// Cursor is a named position marker. Markers are snapshots: they do not
// shift when edits land before them.
type Cursor struct {
	Key      string         `json:"key"`
	Position coord.Position `json:"position"`
}

// String renders the marker as it appears interleaved in views.
func (c Cursor) String() string {
	return fmt.Sprintf(">%s|%d:%d<", c.Key, c.Position.Line, c.Position.Character)
}

// InsertCursor registers a marker at the resolved position. The marker
// map is bounded; inserting beyond the bound evicts the least recently
// touched marker.
func (d *Document) InsertCursor(key string, pos coord.Position) (coord.Position, error) {
	resolved, err := d.ResolvePosition(pos)
	if err != nil {
		return coord.Position{}, err
	}
	d.cursors.Add(key, resolved)
	return resolved, nil
}

// DeleteCursor removes the marker registered under key.
func (d *Document) DeleteCursor(key string) error {
	if ok := d.cursors.Remove(key); !ok {
		return fmt.Errorf("%w: %q", ErrCursorNotFound, key)
	}
	return nil
}

// ClearCursors removes all markers.
func (d *Document) ClearCursors() {
	d.cursors.Purge()
}

// Cursors returns all markers ordered by position.
func (d *Document) Cursors() []Cursor {
	keys := d.cursors.Keys()
	cursors := make([]Cursor, 0, len(keys))
	for _, key := range keys {
		if pos, ok := d.cursors.Peek(key); ok {
			cursors = append(cursors, Cursor{Key: key, Position: pos})
		}
	}
	sort.Slice(cursors, func(i, j int) bool {
		return cursors[i].Position.IsBefore(cursors[j].Position)
	})
	return cursors
}
