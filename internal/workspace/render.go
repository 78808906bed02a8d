package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/agentide/internal/analyzer"
)

// ignoredDirs are skipped when rendering the directory tree.
var ignoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	"__pycache__":  true,
	"node_modules": true,
	".venv":        true,
	"vendor":       true,
}

// Render produces the full workspace view: the directory tree, a symbol
// outline for every open document except the most recently used, then
// the most recently used document in full. Exactly one document is shown
// in full; the rest are summarized structurally.
func (w *Workspace) Render(ctx context.Context) string {
	var b strings.Builder

	b.WriteString("Project: " + w.name + "\n")
	b.WriteString(w.renderTree())

	uris := w.open.Keys()
	if len(uris) == 0 {
		return b.String()
	}

	for _, uri := range uris[:len(uris)-1] {
		b.WriteString("\n")
		b.WriteString(w.renderOutline(ctx, uri))
	}

	last := uris[len(uris)-1]
	if doc, ok := w.open.Peek(last); ok {
		b.WriteString("\n")
		b.WriteString(doc.View())
	}
	return b.String()
}

// renderTree lists the workspace directory as an indented tree.
func (w *Workspace) renderTree() string {
	var b strings.Builder
	b.WriteString(filepath.Base(w.rootDir) + "/\n")
	w.writeTree(&b, w.rootDir, 1)
	return b.String()
}

func (w *Workspace) writeTree(b *strings.Builder, dir string, depth int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	indent := strings.Repeat("  ", depth)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && entry.IsDir() {
			continue
		}
		if entry.IsDir() {
			if ignoredDirs[name] {
				continue
			}
			b.WriteString(indent + name + "/\n")
			w.writeTree(b, filepath.Join(dir, name), depth+1)
		} else {
			b.WriteString(indent + name + "\n")
		}
	}
}

// renderOutline summarizes one open document as its symbol tree. When
// the analyzer cannot answer, the document is listed by name only.
func (w *Workspace) renderOutline(ctx context.Context, uri string) string {
	doc, ok := w.open.Peek(uri)
	if !ok {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s (%s) version %d\n", doc.URI(), doc.LanguageID(), doc.Version())

	if w.session == nil {
		b.WriteString("  (no analyzer session)\n")
		return b.String()
	}

	symbols, err := w.session.DocumentSymbols(ctx, uri)
	if err != nil {
		b.WriteString("  (symbols unavailable: " + err.Error() + ")\n")
		return b.String()
	}
	if len(symbols) == 0 {
		b.WriteString("  (no symbols)\n")
		return b.String()
	}
	writeSymbols(&b, symbols, 1)
	return b.String()
}

// writeSymbols renders a symbol tree with 1-based source ranges.
func writeSymbols(b *strings.Builder, symbols []analyzer.DocumentSymbol, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, sym := range symbols {
		fmt.Fprintf(b, "%s%s (%s) [%d:%d-%d:%d]\n",
			indent, sym.Name, sym.Kind,
			sym.Range.Start.Line+1, sym.Range.Start.Character+1,
			sym.Range.End.Line+1, sym.Range.End.Character+1)
		if len(sym.Children) > 0 {
			writeSymbols(b, sym.Children, depth+1)
		}
	}
}

// Symbols fetches and renders the symbol outline for one document.
func (w *Workspace) Symbols(ctx context.Context, path string) (string, error) {
	doc, err := w.Open(path)
	if err != nil {
		return "", err
	}
	if w.session == nil {
		return "", analyzer.ErrUnavailable
	}
	symbols, err := w.session.DocumentSymbols(ctx, doc.URI())
	if err != nil {
		return "", err
	}
	var b strings.Builder
	writeSymbols(&b, symbols, 0)
	return b.String(), nil
}

// GrammarErrors waits briefly for pushed diagnostics on a document and
// renders them with 1-based positions.
func (w *Workspace) GrammarErrors(ctx context.Context, path string) (string, error) {
	doc, err := w.Open(path)
	if err != nil {
		return "", err
	}
	if w.session == nil {
		return "", analyzer.ErrUnavailable
	}

	diags := w.session.WaitDiagnostics(ctx, doc.URI(), diagnosticsWait)
	if len(diags) == 0 {
		return "no grammar errors found\n", nil
	}

	var b strings.Builder
	for _, d := range diags {
		fmt.Fprintf(&b, "[%d:%d-%d:%d] %s\n",
			d.Range.Start.Line+1, d.Range.Start.Character+1,
			d.Range.End.Line+1, d.Range.End.Character+1,
			d.Message)
	}
	return b.String(), nil
}
