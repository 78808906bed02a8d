package workspace

import (
	"errors"
	"fmt"
)

// Standard errors returned by the workspace.
var (
	// ErrUnsupportedAction indicates an unknown action name within a
	// known category.
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrUnsupportedCategory indicates an unknown action category.
	ErrUnsupportedCategory = errors.New("unsupported action category")

	// ErrInvalidEditGranularity indicates an edit boundary that violates
	// the whole-line policy.
	ErrInvalidEditGranularity = errors.New("invalid edit granularity")

	// ErrFileExists indicates a create targeting an existing file.
	ErrFileExists = errors.New("file already exists")

	// ErrFileNotFound indicates an operation on a file that does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrNotOpen indicates an operation on a document that is not open.
	ErrNotOpen = errors.New("document not open")
)

// GranularityError reports an edit boundary that sits mid-line under the
// whole-line policy, with the columns a caller should use instead.
type GranularityError struct {
	Line      int
	Character int
}

func (e *GranularityError) Error() string {
	return fmt.Sprintf(
		"invalid edit granularity: character %d on line %d is mid-line; whole-line edits must start at character 1 or end at character -1",
		e.Character, e.Line,
	)
}

func (e *GranularityError) Unwrap() error { return ErrInvalidEditGranularity }
