package document

import "errors"

// Standard errors returned by document operations.
var (
	// ErrUndoStackEmpty indicates there is no edit batch left to undo.
	ErrUndoStackEmpty = errors.New("undo stack is empty")

	// ErrCursorNotFound indicates no cursor is registered under the key.
	ErrCursorNotFound = errors.New("cursor not found")

	// ErrEmptyQuery indicates a search was requested with an empty query.
	ErrEmptyQuery = errors.New("search query is empty")
)
