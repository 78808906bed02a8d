package analyzer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame encodes one wire message.
func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

// readFrame parses one framed message from r, skipping noise like the
// transport does, for mock-server use in tests.
func readFrame(t *testing.T, r *bufio.Reader) []byte {
	t.Helper()
	length := 0
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" && length > 0 {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			length, err = strconv.Atoi(strings.TrimSpace(line[len("content-length:"):]))
			require.NoError(t, err)
		}
	}
	body := make([]byte, length)
	_, err := io.ReadFull(r, body)
	require.NoError(t, err)
	return body
}

func TestTransportNotifyOmitsID(t *testing.T) {
	serverIn, clientOut := io.Pipe()
	tr := NewTransport(strings.NewReader(""), clientOut)
	defer tr.Close()

	done := make(chan []byte, 1)
	go func() {
		done <- readFrame(t, bufio.NewReader(serverIn))
	}()

	require.NoError(t, tr.Notify("textDocument/didClose", map[string]any{"uri": "file:///f.py"}))

	body := <-done
	var msg map[string]any
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, "textDocument/didClose", msg["method"])
	assert.NotContains(t, msg, "id", "notifications must not carry an id")
}

func TestTransportCallCorrelatesResponse(t *testing.T) {
	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	tr := NewTransport(clientIn, clientOut)
	tr.Start()
	defer tr.Close()

	go func() {
		body := readFrame(t, bufio.NewReader(serverIn))
		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			return
		}
		resp := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"answer":42}}`, req.ID)
		io.WriteString(serverOut, frame(resp))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result struct {
		Answer int `json:"answer"`
	}
	require.NoError(t, tr.Call(ctx, "test/echo", nil, &result))
	assert.Equal(t, 42, result.Answer)
}

func TestTransportSkipsNoiseBeforeHeader(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"result":"ok"}`
	stream := "analyzer booting...\nsome log line\n" + frame(body)

	tr := NewTransport(strings.NewReader(stream), io.Discard)
	msg, err := tr.readMessage()
	require.NoError(t, err)
	assert.JSONEq(t, body, string(msg))
}

func TestTransportCallReturnsRPCError(t *testing.T) {
	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	tr := NewTransport(clientIn, clientOut)
	tr.Start()
	defer tr.Close()

	go func() {
		body := readFrame(t, bufio.NewReader(serverIn))
		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			return
		}
		resp := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
		io.WriteString(serverOut, frame(resp))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := tr.Call(ctx, "nope/nothing", nil, nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeMethodNotFound, rpcErr.Code)
}

func TestTransportNotificationHandler(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"textDocument/publishDiagnostics","params":{"uri":"file:///f.py","diagnostics":[]}}`

	tr := NewTransport(strings.NewReader(frame(body)), io.Discard)

	got := make(chan string, 1)
	tr.OnNotification("textDocument/publishDiagnostics", func(method string, _ json.RawMessage) {
		got <- method
	})
	tr.Start()
	defer tr.Close()

	select {
	case method := <-got:
		assert.Equal(t, "textDocument/publishDiagnostics", method)
	case <-time.After(2 * time.Second):
		t.Fatal("notification handler was not invoked")
	}
}

func TestTransportCallAfterClose(t *testing.T) {
	tr := NewTransport(strings.NewReader(""), io.Discard)
	require.NoError(t, tr.Close())

	err := tr.Call(context.Background(), "any", nil, nil)
	assert.ErrorIs(t, err, ErrShutdown)
	assert.ErrorIs(t, tr.Notify("any", nil), ErrShutdown)
}
