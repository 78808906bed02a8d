package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/agentide/internal/coord"
	"github.com/dshills/agentide/internal/document"
)

// Action categories.
const (
	CategoryWorkspace = "workspace"
	CategoryTerminal  = "terminal"
)

// Workspace action names.
const (
	ActionOpen          = "open"
	ActionApplyEdit     = "applyEdit"
	ActionUndo          = "undo"
	ActionSave          = "save"
	ActionClose         = "close"
	ActionCreate        = "create"
	ActionDelete        = "delete"
	ActionRead          = "read"
	ActionFindInFile    = "findInFile"
	ActionReplaceInFile = "replaceInFile"
	ActionFileSymbols   = "getFileSymbols"
	ActionInsertCursor  = "insertCursor"
	ActionDeleteCursor  = "deleteCursor"
	ActionClearCursors  = "clearCursors"
	ActionGrammarErrors = "inspectGrammarErrors"
)

// Action is one request against the workspace or terminal.
type Action struct {
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Args     json.RawMessage `json:"args,omitempty"`
}

// Result is the uniform outcome of a dispatched action. Terminal marks
// results that end the interaction.
type Result struct {
	Payload   string `json:"payload"`
	Succeeded bool   `json:"succeeded"`
	Terminal  bool   `json:"terminal"`
}

func success(payload string) Result {
	return Result{Payload: payload, Succeeded: true}
}

func failure(err error) Result {
	return Result{Payload: err.Error(), Succeeded: false}
}

type fileArgs struct {
	FilePath string `json:"file_path"`
}

type editArgs struct {
	FilePath    string                   `json:"file_path"`
	Edits       []document.EditOperation `json:"edits"`
	ComputeUndo *bool                    `json:"compute_undo,omitempty"`
}

type createArgs struct {
	FilePath    string `json:"file_path"`
	InitContent string `json:"init_content,omitempty"`
}

type readArgs struct {
	FilePath string       `json:"file_path"`
	Range    *coord.Range `json:"range,omitempty"`
}

type searchArgs struct {
	FilePath    string                 `json:"file_path"`
	Query       string                 `json:"query"`
	Replacement string                 `json:"replacement,omitempty"`
	Scopes      []coord.Range          `json:"scopes,omitempty"`
	Options     document.SearchOptions `json:"options,omitempty"`
}

type cursorArgs struct {
	FilePath string         `json:"file_path"`
	Key      string         `json:"key"`
	Position coord.Position `json:"position"`
}

// Dispatch routes one action to the buffer, analyzer, or executor and
// translates every recoverable failure into a failed Result with an
// actionable message. Malformed input never panics or crashes the
// process.
func (w *Workspace) Dispatch(ctx context.Context, action Action) Result {
	switch action.Category {
	case CategoryWorkspace:
		return w.dispatchWorkspace(ctx, action)
	case CategoryTerminal:
		return w.dispatchTerminal(ctx, action)
	default:
		return failure(fmt.Errorf("%w: %q", ErrUnsupportedCategory, action.Category))
	}
}

func (w *Workspace) dispatchWorkspace(ctx context.Context, action Action) Result {
	switch action.Name {
	case ActionOpen:
		return w.doOpen(action.Args)
	case ActionApplyEdit:
		return w.doApplyEdit(action.Args)
	case ActionUndo:
		return w.doUndo(action.Args)
	case ActionSave:
		return w.doSave(action.Args)
	case ActionClose:
		return w.doClose(action.Args)
	case ActionCreate:
		return w.doCreate(action.Args)
	case ActionDelete:
		return failure(fmt.Errorf("%w: delete is not implemented; remove files outside the workspace", ErrUnsupportedAction))
	case ActionRead:
		return w.doRead(action.Args)
	case ActionFindInFile:
		return w.doFind(action.Args)
	case ActionReplaceInFile:
		return w.doReplace(action.Args)
	case ActionFileSymbols:
		return w.doSymbols(ctx, action.Args)
	case ActionInsertCursor:
		return w.doInsertCursor(action.Args)
	case ActionDeleteCursor:
		return w.doDeleteCursor(action.Args)
	case ActionClearCursors:
		return w.doClearCursors(action.Args)
	case ActionGrammarErrors:
		return w.doGrammarErrors(ctx, action.Args)
	default:
		return failure(fmt.Errorf("%w: %q", ErrUnsupportedAction, action.Name))
	}
}

func (w *Workspace) dispatchTerminal(ctx context.Context, action Action) Result {
	if w.exec == nil {
		return failure(fmt.Errorf("%w: no command executor configured", ErrUnsupportedCategory))
	}

	// Terminal args are either a raw command line string or {command}.
	var line string
	if err := json.Unmarshal(action.Args, &line); err != nil {
		var obj struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(action.Args, &obj); err != nil || obj.Command == "" {
			return failure(errors.New("terminal args must be a command line string"))
		}
		line = obj.Command
	}
	if action.Name != "" && action.Name != "run" {
		line = strings.TrimSpace(action.Name + " " + line)
	}

	out, ok, err := w.exec.RunLine(ctx, line)
	if err != nil {
		// Timeouts can leave partial output behind; the caller should
		// still see what ran before the deadline.
		payload := err.Error()
		if out != "" {
			payload = out + "\n" + err.Error()
		}
		return Result{Payload: payload, Succeeded: false}
	}
	return Result{Payload: out, Succeeded: ok}
}

func decodeArgs[T any](raw json.RawMessage, into *T) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing action args")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("malformed action args: %w", err)
	}
	return nil
}

func (w *Workspace) doOpen(raw json.RawMessage) Result {
	var args fileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	doc, err := w.Open(args.FilePath)
	if err != nil {
		return failure(err)
	}
	return success(doc.View())
}

func (w *Workspace) doApplyEdit(raw json.RawMessage) Result {
	var args editArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	computeUndo := true
	if args.ComputeUndo != nil {
		computeUndo = *args.ComputeUndo
	}

	inverse, feedback, err := w.ApplyEdits(args.FilePath, args.Edits, computeUndo)
	if err != nil {
		return failure(err)
	}

	var b strings.Builder
	b.WriteString(feedback)
	if feedback != "" && !strings.HasSuffix(feedback, "\n") {
		b.WriteByte('\n')
	}
	if computeUndo {
		undo, err := json.Marshal(inverse)
		if err == nil {
			b.WriteString("undo: " + string(undo) + "\n")
		}
	}
	return success(b.String())
}

func (w *Workspace) doUndo(raw json.RawMessage) Result {
	var args fileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	if _, err := w.Undo(args.FilePath); err != nil {
		return failure(err)
	}
	doc, err := w.Activate(args.FilePath)
	if err != nil {
		return failure(err)
	}
	return success(doc.View())
}

func (w *Workspace) doSave(raw json.RawMessage) Result {
	var args fileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	if err := w.Save(args.FilePath); err != nil {
		return failure(err)
	}
	return success("saved " + args.FilePath + "\n")
}

func (w *Workspace) doClose(raw json.RawMessage) Result {
	var args fileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	if err := w.Close(args.FilePath); err != nil {
		return failure(err)
	}
	return success("closed " + args.FilePath + "\n")
}

func (w *Workspace) doCreate(raw json.RawMessage) Result {
	var args createArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	doc, err := w.CreateFile(args.FilePath, args.InitContent)
	if err != nil {
		return failure(err)
	}
	return success(doc.View())
}

func (w *Workspace) doRead(raw json.RawMessage) Result {
	var args readArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	view, err := w.Read(args.FilePath, args.Range)
	if err != nil {
		return failure(err)
	}
	return success(view)
}

func (w *Workspace) doFind(raw json.RawMessage) Result {
	var args searchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	doc, err := w.Open(args.FilePath)
	if err != nil {
		return failure(err)
	}
	matches, err := doc.FindMatches(args.Query, args.Scopes, args.Options)
	if err != nil {
		return failure(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d match(es)\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "[%d:%d-%d:%d]", m.Range.Start.Line, m.Range.Start.Character,
			m.Range.End.Line, m.Range.End.Character)
		if m.Match != "" {
			b.WriteString(" " + m.Match)
		}
		b.WriteString("\n")
	}
	return success(b.String())
}

func (w *Workspace) doReplace(raw json.RawMessage) Result {
	var args searchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	doc, err := w.Open(args.FilePath)
	if err != nil {
		return failure(err)
	}
	count, applied, err := doc.Replace(args.Query, args.Replacement, args.Scopes, args.Options)
	if err != nil {
		return failure(err)
	}

	w.syncChanges(doc, applied)
	return success(fmt.Sprintf("replaced %d occurrence(s)\n", count))
}

func (w *Workspace) doSymbols(ctx context.Context, raw json.RawMessage) Result {
	var args fileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	outline, err := w.Symbols(ctx, args.FilePath)
	if err != nil {
		return failure(err)
	}
	return success(outline)
}

func (w *Workspace) doInsertCursor(raw json.RawMessage) Result {
	var args cursorArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	doc, err := w.Open(args.FilePath)
	if err != nil {
		return failure(err)
	}
	resolved, err := doc.InsertCursor(args.Key, args.Position)
	if err != nil {
		return failure(err)
	}
	return success(fmt.Sprintf("cursor %q set at %d:%d\n", args.Key, resolved.Line, resolved.Character))
}

func (w *Workspace) doDeleteCursor(raw json.RawMessage) Result {
	var args cursorArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	doc, err := w.Activate(args.FilePath)
	if err != nil {
		return failure(err)
	}
	if err := doc.DeleteCursor(args.Key); err != nil {
		return failure(err)
	}
	return success(fmt.Sprintf("cursor %q deleted\n", args.Key))
}

func (w *Workspace) doClearCursors(raw json.RawMessage) Result {
	var args fileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	doc, err := w.Activate(args.FilePath)
	if err != nil {
		return failure(err)
	}
	doc.ClearCursors()
	return success("cursors cleared\n")
}

func (w *Workspace) doGrammarErrors(ctx context.Context, raw json.RawMessage) Result {
	var args fileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return failure(err)
	}
	report, err := w.GrammarErrors(ctx, args.FilePath)
	if err != nil {
		return failure(err)
	}
	return success(report)
}
