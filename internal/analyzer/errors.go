package analyzer

import (
	"errors"
	"fmt"
)

// Standard errors returned by the analyzer session.
var (
	// ErrHandshakeFailed indicates the initialize exchange did not complete.
	// Fatal at session start: no synchronization can be trusted after it.
	ErrHandshakeFailed = errors.New("analyzer handshake failed")

	// ErrUnavailable indicates the analyzer process is unreachable after a
	// successful handshake. Non-fatal: buffer operations continue locally.
	ErrUnavailable = errors.New("analyzer unavailable")

	// ErrNotReady indicates the session is not in the Ready state.
	ErrNotReady = errors.New("analyzer session not ready")

	// ErrAlreadyStarted indicates Start was called on a live session.
	ErrAlreadyStarted = errors.New("analyzer session already started")

	// ErrShutdown indicates the session has been shut down.
	ErrShutdown = errors.New("analyzer session shut down")
)

// RPCError is a JSON-RPC error returned by the analyzer.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeServerNotInitialized = -32002
	CodeRequestCancelled     = -32800
	CodeContentModified      = -32801
)
