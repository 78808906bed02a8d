package workspace

import "github.com/dshills/agentide/internal/document"

// EditPolicy restricts which edit batches the workspace accepts before
// they reach the buffer. The buffer itself stays unrestricted; the
// policy is a workspace-level gate.
type EditPolicy int

const (
	// PolicyUnrestricted accepts any edit the buffer can resolve.
	PolicyUnrestricted EditPolicy = iota

	// PolicyWholeLine requires every edit boundary to sit at column 1 or
	// column -1. Keeping edits line-granular makes the resulting diffs
	// reviewable and keeps inverse edits trivially alignable.
	PolicyWholeLine
)

// checkEdits validates a batch against the policy before it is applied.
func (p EditPolicy) checkEdits(edits []document.EditOperation) error {
	if p != PolicyWholeLine {
		return nil
	}
	for _, e := range edits {
		for _, pos := range []struct{ line, ch int }{
			{e.Range.Start.Line, e.Range.Start.Character},
			{e.Range.End.Line, e.Range.End.Character},
		} {
			if pos.ch != 1 && pos.ch != -1 {
				return &GranularityError{Line: pos.line, Character: pos.ch}
			}
		}
	}
	return nil
}
