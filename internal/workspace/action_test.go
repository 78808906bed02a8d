package workspace

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/agentide/internal/terminal"
)

func dispatch(t *testing.T, w *Workspace, category, name string, args any) Result {
	t.Helper()
	var raw json.RawMessage
	if args != nil {
		var err error
		raw, err = json.Marshal(args)
		require.NoError(t, err)
	}
	return w.Dispatch(context.Background(), Action{Category: category, Name: name, Args: raw})
}

func TestDispatchUnknownCategory(t *testing.T) {
	w := newTestWorkspace(t)

	res := dispatch(t, w, "browser", "open", nil)
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Payload, "unsupported action category")
}

func TestDispatchUnknownName(t *testing.T) {
	w := newTestWorkspace(t)

	res := dispatch(t, w, CategoryWorkspace, "teleport", nil)
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Payload, "unsupported action")
}

func TestDispatchDeleteIsRejected(t *testing.T) {
	w := newTestWorkspace(t)

	res := dispatch(t, w, CategoryWorkspace, ActionDelete, map[string]string{"file_path": "a.py"})
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Payload, "not implemented")
}

func TestDispatchOpenAndRead(t *testing.T) {
	w := newTestWorkspace(t)
	writeFile(t, w, "a.py", "x = 1\ny = 2\n")

	res := dispatch(t, w, CategoryWorkspace, ActionOpen, map[string]string{"file_path": "a.py"})
	require.True(t, res.Succeeded, res.Payload)
	assert.Contains(t, res.Payload, "x = 1")
	assert.Contains(t, res.Payload, "version 0")

	res = dispatch(t, w, CategoryWorkspace, ActionRead, map[string]any{
		"file_path": "a.py",
		"range": map[string]any{
			"start": map[string]int{"line": 2, "character": 1},
			"end":   map[string]int{"line": 2, "character": -1},
		},
	})
	require.True(t, res.Succeeded, res.Payload)
	assert.Contains(t, res.Payload, "y = 2")
	assert.NotContains(t, res.Payload, "x = 1")
}

func TestDispatchApplyEditReturnsUndo(t *testing.T) {
	w := newTestWorkspace(t)
	writeFile(t, w, "a.py", "old line\n")

	res := dispatch(t, w, CategoryWorkspace, ActionApplyEdit, map[string]any{
		"file_path": "a.py",
		"edits": []map[string]any{{
			"range": map[string]any{
				"start": map[string]int{"line": 1, "character": 1},
				"end":   map[string]int{"line": 1, "character": -1},
			},
			"text": "new line",
		}},
	})
	require.True(t, res.Succeeded, res.Payload)
	assert.Contains(t, res.Payload, "new line")
	assert.Contains(t, res.Payload, "undo:")
	assert.Contains(t, res.Payload, "old line", "undo batch carries the replaced text")
}

func TestDispatchApplyEditGranularityFailure(t *testing.T) {
	w := newTestWorkspace(t)
	writeFile(t, w, "a.py", "x = 1\n")

	res := dispatch(t, w, CategoryWorkspace, ActionApplyEdit, map[string]any{
		"file_path": "a.py",
		"edits": []map[string]any{{
			"range": map[string]any{
				"start": map[string]int{"line": 1, "character": 2},
				"end":   map[string]int{"line": 1, "character": -1},
			},
			"text": "y",
		}},
	})
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Payload, "character 1 or end at character -1",
		"failure message tells the caller what to use instead")
}

func TestDispatchFindInFile(t *testing.T) {
	w := newTestWorkspace(t)
	writeFile(t, w, "a.py", "cat\ncatalog\nconcat cat\n")

	res := dispatch(t, w, CategoryWorkspace, ActionFindInFile, map[string]any{
		"file_path": "a.py",
		"query":     "cat",
		"options":   map[string]any{"word_separators": " \t"},
	})
	require.True(t, res.Succeeded, res.Payload)
	assert.Contains(t, res.Payload, "2 match(es)")
}

func TestDispatchReplaceInFile(t *testing.T) {
	w := newTestWorkspace(t)
	writeFile(t, w, "a.py", "foo bar foo\n")

	res := dispatch(t, w, CategoryWorkspace, ActionReplaceInFile, map[string]any{
		"file_path":   "a.py",
		"query":       "foo",
		"replacement": "baz",
	})
	require.True(t, res.Succeeded, res.Payload)
	assert.Contains(t, res.Payload, "replaced 2 occurrence(s)")

	doc, err := w.Activate("a.py")
	require.NoError(t, err)
	assert.Equal(t, "baz bar baz\n", doc.Content())
}

func TestDispatchCursorLifecycle(t *testing.T) {
	w := newTestWorkspace(t)
	writeFile(t, w, "a.py", "x = 1\ny = 2\n")

	res := dispatch(t, w, CategoryWorkspace, ActionInsertCursor, map[string]any{
		"file_path": "a.py",
		"key":       "here",
		"position":  map[string]int{"line": -2, "character": 1},
	})
	require.True(t, res.Succeeded, res.Payload)
	assert.Contains(t, res.Payload, `cursor "here" set at 2:1`)

	res = dispatch(t, w, CategoryWorkspace, ActionDeleteCursor, map[string]any{
		"file_path": "a.py",
		"key":       "here",
	})
	require.True(t, res.Succeeded, res.Payload)

	res = dispatch(t, w, CategoryWorkspace, ActionDeleteCursor, map[string]any{
		"file_path": "a.py",
		"key":       "here",
	})
	assert.False(t, res.Succeeded)
}

func TestDispatchTerminal(t *testing.T) {
	exec := terminal.NewExecutor(terminal.NewAllowFilter([]string{"echo"}), t.TempDir(), 5*time.Second, nil)
	w := newTestWorkspace(t, WithExecutor(exec))

	res := dispatch(t, w, CategoryTerminal, "run", "echo hello")
	require.True(t, res.Succeeded, res.Payload)
	assert.Equal(t, "hello\n", res.Payload)

	res = dispatch(t, w, CategoryTerminal, "run", "rm -rf /")
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Payload, "not allowed")
}

func TestDispatchTerminalWithoutExecutor(t *testing.T) {
	w := newTestWorkspace(t)

	res := dispatch(t, w, CategoryTerminal, "run", "echo hi")
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Payload, "no command executor")
}

func TestDispatchTerminalTimeoutKeepsPartialOutput(t *testing.T) {
	exec := terminal.NewExecutor(terminal.NewAllowFilter([]string{"sh"}), t.TempDir(), 200*time.Millisecond, nil)
	w := newTestWorkspace(t, WithExecutor(exec))

	res := dispatch(t, w, CategoryTerminal, "run", `sh -c "echo started; sleep 5"`)
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Payload, "started", "output before the deadline is preserved")
	assert.Contains(t, res.Payload, "timed out")
}
