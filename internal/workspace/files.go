package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/agentide/internal/coord"
	"github.com/dshills/agentide/internal/document"
)

// CreateFile creates a new file under the workspace root. The header for
// the file's extension, when configured, is written first; initial
// content follows on its own line. Creation notifies the analyzer and
// opens the document.
func (w *Workspace) CreateFile(path, initContent string) (*document.Document, error) {
	fsPath := w.pathFor(w.uriFor(path))
	if _, err := os.Stat(fsPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileExists, fsPath)
	}

	if err := os.MkdirAll(filepath.Dir(fsPath), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}

	content := w.headers[filepath.Ext(fsPath)]
	if initContent != "" {
		if content != "" {
			content += "\n"
		}
		content += initContent
	}

	if err := os.WriteFile(fsPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", fsPath, err)
	}

	uri := w.uriFor(fsPath)
	if w.session != nil {
		if err := w.session.DidCreateFiles(uri); err != nil {
			w.log.WithError(err).WithField("uri", uri).Warn("analyzer create sync failed")
		}
	}
	return w.Open(fsPath)
}

// Save writes an open document's buffer back to disk and notifies the
// analyzer.
func (w *Workspace) Save(path string) error {
	doc, err := w.Activate(path)
	if err != nil {
		return err
	}

	fsPath := w.pathFor(doc.URI())
	if err := os.WriteFile(fsPath, []byte(doc.Content()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fsPath, err)
	}

	if w.session != nil {
		if err := w.session.DidSave(doc.URI(), doc.Content()); err != nil {
			w.log.WithError(err).WithField("uri", doc.URI()).Warn("analyzer save sync failed")
		}
	}
	return nil
}

// Read returns a numbered view of a document, opening it when needed.
// A nil range views the whole document with cursor markers.
func (w *Workspace) Read(path string, rng *coord.Range) (string, error) {
	doc, err := w.Open(path)
	if err != nil {
		return "", err
	}
	if rng == nil {
		return doc.View(), nil
	}
	resolved, err := doc.ResolveRange(*rng)
	if err != nil {
		return "", err
	}
	return doc.ViewRange(resolved, true), nil
}
