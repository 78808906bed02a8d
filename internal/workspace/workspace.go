// Package workspace orchestrates document buffers, the analyzer session,
// and the command executor behind a single action-dispatch surface. It
// tracks open documents in most-recently-used order and evicts (and
// analyzer-closes) the stalest one when the active cap is exceeded.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/dshills/agentide/internal/analyzer"
	"github.com/dshills/agentide/internal/coord"
	"github.com/dshills/agentide/internal/document"
	"github.com/dshills/agentide/internal/terminal"
)

// DefaultMaxActiveDocuments caps how many documents stay open at once.
const DefaultMaxActiveDocuments = 3

// editContextMargin is how many lines of surrounding context an applyEdit
// result includes around the touched ranges.
const editContextMargin = 3

// diagnosticsWait bounds how long inspectGrammarErrors waits for the
// analyzer to push findings after an edit.
const diagnosticsWait = 2 * time.Second

// Workspace owns the open-document set for one project root.
//
// A single logical caller drives each workspace; the open set and the
// documents inside it are not shared across workspaces.
type Workspace struct {
	rootDir string
	name    string

	open    *lru.Cache[string, *document.Document]
	session *analyzer.Session
	exec    *terminal.Executor

	policy    EditPolicy
	headers   map[string]string
	maxActive int
	undoDepth int
	log       *logrus.Entry
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithAnalyzer attaches an analyzer session. The session is started
// during New; a handshake failure fails construction.
func WithAnalyzer(session *analyzer.Session) Option {
	return func(w *Workspace) { w.session = session }
}

// WithExecutor attaches the command-execution collaborator for
// terminal-category actions.
func WithExecutor(exec *terminal.Executor) Option {
	return func(w *Workspace) { w.exec = exec }
}

// WithEditPolicy sets the edit granularity policy.
func WithEditPolicy(policy EditPolicy) Option {
	return func(w *Workspace) { w.policy = policy }
}

// WithMaxActiveDocuments sets the open-document cap.
func WithMaxActiveDocuments(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.maxActive = n
		}
	}
}

// WithHeaders sets the extension-to-header mapping used on file
// creation. Keys include the dot, e.g. ".py".
func WithHeaders(headers map[string]string) Option {
	return func(w *Workspace) { w.headers = headers }
}

// WithUndoDepth sets the per-document undo bound.
func WithUndoDepth(depth int) Option {
	return func(w *Workspace) { w.undoDepth = depth }
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Logger) Option {
	return func(w *Workspace) {
		w.log = log.WithField("component", "workspace")
	}
}

// New builds a workspace rooted at rootDir and starts the analyzer
// session when one is attached. Handshake failure is fatal: without a
// session no document synchronization can be trusted, so the error is
// returned rather than degraded.
func New(ctx context.Context, rootDir, name string, opts ...Option) (*Workspace, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	w := &Workspace{
		rootDir:   abs,
		name:      name,
		policy:    PolicyWholeLine,
		maxActive: DefaultMaxActiveDocuments,
		undoDepth: document.DefaultUndoDepth,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		log := logrus.New()
		log.SetOutput(os.Stderr)
		w.log = log.WithField("component", "workspace")
	}

	w.open, err = lru.NewWithEvict(w.maxActive, func(uri string, _ *document.Document) {
		if w.session != nil {
			if err := w.session.DidClose(uri); err != nil {
				w.log.WithError(err).WithField("uri", uri).Warn("analyzer close failed")
			}
		}
		w.log.WithField("uri", uri).Debug("document evicted")
	})
	if err != nil {
		return nil, err
	}

	if w.session != nil && w.session.State() == analyzer.StateUnstarted {
		if err := w.session.Start(ctx); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// RootDir returns the project root directory.
func (w *Workspace) RootDir() string { return w.rootDir }

// Name returns the project name.
func (w *Workspace) Name() string { return w.name }

// OpenURIs returns the open documents in least-to-most recently used
// order.
func (w *Workspace) OpenURIs() []string {
	return w.open.Keys()
}

// Shutdown closes all open documents and stops the analyzer session.
func (w *Workspace) Shutdown(ctx context.Context) error {
	w.open.Purge()
	if w.session != nil {
		return w.session.Shutdown(ctx)
	}
	return nil
}

// uriFor normalizes a caller path into a file URI rooted at the
// workspace directory.
func (w *Workspace) uriFor(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.rootDir, path)
	}
	return analyzer.FilePathToURI(path)
}

// pathFor converts a URI or path back to a filesystem path.
func (w *Workspace) pathFor(uriOrPath string) string {
	p := analyzer.URIToFilePath(uriOrPath)
	if !filepath.IsAbs(p) {
		p = filepath.Join(w.rootDir, p)
	}
	return p
}

// Open loads a document into the active set, reading it from disk when
// it is not already open. Opening marks the document most recently used
// and may evict the stalest open document.
func (w *Workspace) Open(path string) (*document.Document, error) {
	uri := w.uriFor(path)
	if doc, ok := w.open.Get(uri); ok {
		return doc, nil
	}

	fsPath := w.pathFor(uri)
	data, err := os.ReadFile(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fsPath)
		}
		return nil, fmt.Errorf("read %s: %w", fsPath, err)
	}

	doc := document.New(uri, languageFor(fsPath), string(data),
		document.WithUndoDepth(w.undoDepth))
	w.open.Add(uri, doc)

	if w.session != nil {
		if err := w.session.DidOpen(uri, doc.LanguageID(), doc.Version(), doc.Content()); err != nil {
			w.log.WithError(err).WithField("uri", uri).Warn("analyzer open failed")
		}
	}
	w.log.WithFields(logrus.Fields{"uri": uri, "version": doc.Version()}).Debug("document opened")
	return doc, nil
}

// Activate returns the open document for path, marking it most recently
// used, or ErrNotOpen when it has not been opened.
func (w *Workspace) Activate(path string) (*document.Document, error) {
	uri := w.uriFor(path)
	if doc, ok := w.open.Get(uri); ok {
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotOpen, uri)
}

// Close removes a document from the active set, notifying the analyzer
// through the eviction callback.
func (w *Workspace) Close(path string) error {
	uri := w.uriFor(path)
	if !w.open.Remove(uri) {
		return fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	return nil
}

// ApplyEdits runs a batch through the policy gate, applies it, syncs
// the analyzer, and returns the inverse batch together with the touched
// slice of the post-edit buffer expanded by three lines of context.
//
// Buffer truth takes priority over analyzer truth: once the batch has
// applied locally, an analyzer failure is logged and degraded, never
// rolled back.
func (w *Workspace) ApplyEdits(path string, edits []document.EditOperation, computeUndo bool) ([]document.EditOperation, string, error) {
	doc, err := w.Open(path)
	if err != nil {
		return nil, "", err
	}

	if err := w.policy.checkEdits(edits); err != nil {
		return nil, "", err
	}

	resolved, err := w.resolveEdits(doc, edits)
	if err != nil {
		return nil, "", err
	}

	inverse, err := doc.ApplyEdits(edits, computeUndo)
	if err != nil {
		return nil, "", err
	}

	w.syncChanges(doc, resolved)
	return inverse, w.editFeedback(doc, edits, inverse), nil
}

// resolveEdits normalizes a batch's ranges against the pre-edit
// snapshot, keeping each edit's text, so the analyzer leg can relay the
// exact regions being replaced.
func (w *Workspace) resolveEdits(doc *document.Document, edits []document.EditOperation) ([]document.EditOperation, error) {
	resolved := make([]document.EditOperation, len(edits))
	for i, e := range edits {
		rng, err := doc.ResolveRange(e.Range)
		if err != nil {
			return nil, err
		}
		resolved[i] = document.EditOperation{Range: rng, Text: e.Text}
	}
	return resolved, nil
}

// contentChanges converts an applied batch into the didChange payload:
// one change per edit, carrying the edit's resolved range in 0-based
// wire coordinates and its new text.
func contentChanges(edits []document.EditOperation) []analyzer.ContentChange {
	changes := make([]analyzer.ContentChange, len(edits))
	for i, e := range edits {
		startLine, startChar := e.Range.Start.ToLSP()
		endLine, endChar := e.Range.End.ToLSP()
		changes[i] = analyzer.ContentChange{
			Range: &analyzer.Range{
				Start: analyzer.Position{Line: startLine, Character: startChar},
				End:   analyzer.Position{Line: endLine, Character: endChar},
			},
			Text: e.Text,
		}
	}
	return changes
}

// syncChanges relays an applied batch to the analyzer with the
// document's new version. Failures degrade: the buffer has already
// moved on.
func (w *Workspace) syncChanges(doc *document.Document, edits []document.EditOperation) {
	if w.session == nil || len(edits) == 0 {
		return
	}
	if err := w.session.DidChange(doc.URI(), doc.Version(), contentChanges(edits)); err != nil {
		w.log.WithError(err).WithField("uri", doc.URI()).Warn("analyzer change sync failed")
	}
}

// editFeedback renders the merged post-edit ranges with surrounding
// context so the caller sees the result without re-reading the file.
func (w *Workspace) editFeedback(doc *document.Document, edits, inverse []document.EditOperation) string {
	touched := make([]coord.Range, 0, len(edits))
	if len(inverse) > 0 {
		// Inverse ranges cover exactly where the new text landed.
		for _, e := range inverse {
			touched = append(touched, e.Range)
		}
	} else {
		for _, e := range edits {
			touched = append(touched, doc.ValidateRange(e.Range))
		}
	}

	var b strings.Builder
	for i, rng := range coord.Union(touched) {
		if i > 0 {
			b.WriteString("\n...\n")
		}
		b.WriteString(doc.ContextAround(rng, editContextMargin))
	}
	return b.String()
}

// Undo reverts the newest tracked batch on an open document and syncs
// the analyzer with the restored content.
func (w *Workspace) Undo(path string) ([]document.EditOperation, error) {
	doc, err := w.Activate(path)
	if err != nil {
		return nil, err
	}
	batch, err := doc.Undo()
	if err != nil {
		return nil, err
	}
	// Inverse batches carry already-resolved ranges.
	w.syncChanges(doc, batch)
	return batch, nil
}

// languageFor maps a file extension to an analyzer language identifier.
func languageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return "python"
	case ".go":
		return "go"
	case ".js":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".rs":
		return "rust"
	case ".md":
		return "markdown"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "plaintext"
	}
}
