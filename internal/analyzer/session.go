// Package analyzer manages the external code-analysis process: spawning,
// the initialize handshake, length-prefixed JSON-RPC framing, and the
// document-sync notifications that keep the analyzer's view of every
// buffer consistent with the engine's.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the session lifecycle state.
type State int32

const (
	StateUnstarted State = iota
	StateInitializing
	StateReady
	StateShuttingDown
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	defaultRequestTimeout  = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Config defines how to start the analyzer process.
type Config struct {
	// Command is the analyzer executable.
	Command string

	// Args are command-line arguments.
	Args []string

	// Env are additional environment variables as KEY=VALUE pairs.
	Env []string

	// WorkDir is the working directory (defaults to the root path).
	WorkDir string

	// RootPath is the workspace root sent during initialize.
	RootPath string

	// Timeout bounds each request (default 30s).
	Timeout time.Duration
}

// Session owns one analyzer process for the lifetime of a workspace.
//
// The pipes are byte-oriented: the wire protocol's length prefix counts
// UTF-8 bytes, so any text-mode translation would corrupt framing under
// multi-byte content.
type Session struct {
	mu sync.Mutex

	id     string
	config Config
	log    *logrus.Entry

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	transport *Transport
	state     atomic.Int32

	capabilities ServerCapabilities
	serverInfo   *ServerInfo

	diagnostics   map[string][]Diagnostic
	diagnosticsMu sync.RWMutex
}

// NewSession creates a session in the Unstarted state.
func NewSession(config Config, log *logrus.Logger) *Session {
	if config.Timeout == 0 {
		config.Timeout = defaultRequestTimeout
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	id := uuid.NewString()
	return &Session{
		id:          id,
		config:      config,
		log:         log.WithFields(logrus.Fields{"component": "analyzer", "session": id}),
		diagnostics: make(map[string][]Diagnostic),
	}
}

// ID returns the session identity.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Capabilities returns the analyzer's advertised capabilities.
func (s *Session) Capabilities() ServerCapabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capabilities
}

// Start spawns the analyzer and runs the initialize handshake.
// Any failure during the handshake is fatal and wrapped in
// ErrHandshakeFailed; the process is torn down before returning.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateUnstarted {
		return ErrAlreadyStarted
	}
	s.state.Store(int32(StateInitializing))

	if err := s.startProcess(ctx); err != nil {
		s.state.Store(int32(StateClosed))
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	s.transport = NewTransport(s.stdout, s.stdin)
	s.registerHandlers()
	s.transport.Start()
	go s.drainStderr()

	if err := s.initialize(ctx); err != nil {
		s.state.Store(int32(StateClosed))
		s.stopProcess()
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	s.state.Store(int32(StateReady))
	s.log.WithField("command", s.config.Command).Info("analyzer session ready")
	return nil
}

func (s *Session) startProcess(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.config.Command, s.config.Args...)
	cmd.Env = append(os.Environ(), s.config.Env...)
	if s.config.WorkDir != "" {
		cmd.Dir = s.config.WorkDir
	} else {
		cmd.Dir = s.config.RootPath
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("start process: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = stdout
	s.stderr = stderr
	return nil
}

// drainStderr consumes analyzer stderr so the process never blocks on a
// full pipe, logging each chunk at debug level.
func (s *Session) drainStderr() {
	buf := make([]byte, 4096)
	for {
		n, err := s.stderr.Read(buf)
		if n > 0 {
			s.log.WithField("stream", "stderr").Debug(string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) stopProcess() {
	if s.transport != nil {
		s.transport.Close()
	}
	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.stdout != nil {
		s.stdout.Close()
	}
	if s.stderr != nil {
		s.stderr.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
}

// initialize performs the initialize/initialized exchange.
func (s *Session) initialize(ctx context.Context) error {
	rootURI := FilePathToURI(s.config.RootPath)
	params := InitializeParams{
		ProcessID:    os.Getpid(),
		RootURI:      rootURI,
		Capabilities: DefaultClientCapabilities(),
		WorkspaceFolders: []WorkspaceFolder{
			{URI: rootURI, Name: "workspace"},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	var result InitializeResult
	if err := s.transport.Call(ctx, "initialize", params, &result); err != nil {
		return fmt.Errorf("initialize request: %w", err)
	}

	s.capabilities = result.Capabilities
	s.serverInfo = result.ServerInfo

	if err := s.transport.Notify("initialized", InitializedParams{}); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}
	return nil
}

func (s *Session) registerHandlers() {
	s.transport.OnNotification("textDocument/publishDiagnostics", func(_ string, params json.RawMessage) {
		var p PublishDiagnosticsParams
		if err := json.Unmarshal(params, &p); err != nil {
			return
		}
		s.diagnosticsMu.Lock()
		if len(p.Diagnostics) == 0 {
			delete(s.diagnostics, p.URI)
		} else {
			s.diagnostics[p.URI] = p.Diagnostics
		}
		s.diagnosticsMu.Unlock()
	})
}

// Shutdown sends the shutdown request with a bounded wait, then
// terminates the process regardless of whether a reply arrived.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.State()
	if state == StateClosed || state == StateShuttingDown || state == StateUnstarted {
		s.state.Store(int32(StateClosed))
		return nil
	}
	s.state.Store(int32(StateShuttingDown))

	if s.transport != nil && !s.transport.IsClosed() {
		shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
		defer cancel()
		_ = s.transport.Call(shutdownCtx, "shutdown", nil, nil)
		_ = s.transport.Notify("exit", nil)
	}

	s.stopProcess()
	s.state.Store(int32(StateClosed))
	s.log.Info("analyzer session closed")
	return nil
}

// notify guards a notification behind the Ready state and degrades pipe
// failures to ErrUnavailable.
func (s *Session) notify(method string, params any) error {
	if s.State() != StateReady {
		return ErrNotReady
	}
	if err := s.transport.Notify(method, params); err != nil {
		s.log.WithError(err).WithField("method", method).Warn("analyzer notification failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DidOpen announces a newly opened document with its full content.
func (s *Session) DidOpen(uri, languageID string, version int, content string) error {
	return s.notify("textDocument/didOpen", DidOpenParams{
		TextDocument: TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    version,
			Text:       content,
		},
	})
}

// DidChange announces applied edits with the document's new version.
func (s *Session) DidChange(uri string, version int, changes []ContentChange) error {
	return s.notify("textDocument/didChange", DidChangeParams{
		TextDocument: VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: changes,
	})
}

// DidClose announces a closed document.
func (s *Session) DidClose(uri string) error {
	return s.notify("textDocument/didClose", DidCloseParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	})
}

// DidSave announces a saved document with its content.
func (s *Session) DidSave(uri, content string) error {
	return s.notify("textDocument/didSave", DidSaveParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Text:         content,
	})
}

// DidCreateFiles announces created files.
func (s *Session) DidCreateFiles(uris ...string) error {
	files := make([]FileCreate, len(uris))
	for i, uri := range uris {
		files[i] = FileCreate{URI: uri}
	}
	return s.notify("workspace/didCreateFiles", DidCreateFilesParams{Files: files})
}

// DocumentSymbols requests the symbol outline of a document, bounded by
// the configured request timeout. Transport failures degrade to
// ErrUnavailable.
func (s *Session) DocumentSymbols(ctx context.Context, uri string) ([]DocumentSymbol, error) {
	if s.State() != StateReady {
		return nil, ErrNotReady
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	var result []DocumentSymbol
	err := s.transport.Call(ctx, "textDocument/documentSymbol", DocumentSymbolParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	}, &result)
	if err != nil {
		if _, ok := err.(*RPCError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, nil
}

// Diagnostics returns the latest pushed diagnostics for a document.
func (s *Session) Diagnostics(uri string) []Diagnostic {
	s.diagnosticsMu.RLock()
	defer s.diagnosticsMu.RUnlock()
	return s.diagnostics[uri]
}

// WaitDiagnostics polls for diagnostics on uri until some arrive or the
// deadline passes; analyzers push findings asynchronously after edits.
func (s *Session) WaitDiagnostics(ctx context.Context, uri string, wait time.Duration) []Diagnostic {
	deadline := time.Now().Add(wait)
	for {
		if diags := s.Diagnostics(uri); len(diags) > 0 {
			return diags
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return s.Diagnostics(uri)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
