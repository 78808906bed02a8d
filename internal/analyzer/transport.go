package analyzer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Transport speaks JSON-RPC 2.0 over length-prefixed frames:
// "Content-Length: <N>\r\n\r\n" followed by exactly N bytes of body,
// where N is the UTF-8 byte length. The transport owns the read side of
// the pipe exclusively; callers interact only through Call and Notify.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer

	mu       sync.Mutex
	nextID   atomic.Int64
	pending  map[int64]chan *Response
	handlers map[string]NotificationHandler

	closed atomic.Bool
	done   chan struct{}
}

// NotificationHandler handles notifications pushed by the analyzer.
type NotificationHandler func(method string, params json.RawMessage)

// Request is an outbound JSON-RPC message. A zero ID marks a
// notification; confusing the two breaks the analyzer's framing state,
// so the ID field is omitted from the wire entirely for notifications.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is an inbound JSON-RPC reply.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// NewTransport creates a transport reading frames from r and writing to w.
func NewTransport(r io.Reader, w io.Writer) *Transport {
	return &Transport{
		reader:   bufio.NewReaderSize(r, 64*1024),
		writer:   w,
		pending:  make(map[int64]chan *Response),
		handlers: make(map[string]NotificationHandler),
		done:     make(chan struct{}),
	}
}

// Start launches the read loop. Call once, before the first request.
func (t *Transport) Start() {
	go t.readLoop()
}

// Close shuts the transport down and releases waiting callers.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	close(t.done)

	t.mu.Lock()
	t.pending = make(map[int64]chan *Response)
	t.mu.Unlock()
	return nil
}

// IsClosed returns true once the transport has been closed.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}

// Call sends a request and blocks until the correlated response arrives,
// the context expires, or the transport closes.
func (t *Transport) Call(ctx context.Context, method string, params, result any) error {
	if t.closed.Load() {
		return ErrShutdown
	}

	id := t.nextID.Add(1)
	ch := make(chan *Response, 1)

	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	req := &Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := t.send(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrShutdown
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}
}

// Notify sends a fire-and-forget message: no id, no response awaited.
func (t *Transport) Notify(method string, params any) error {
	if t.closed.Load() {
		return ErrShutdown
	}
	return t.send(&Request{JSONRPC: "2.0", Method: method, Params: params})
}

// OnNotification registers a handler for analyzer-pushed notifications.
func (t *Transport) OnNotification(method string, handler NotificationHandler) {
	t.mu.Lock()
	t.handlers[method] = handler
	t.mu.Unlock()
}

// send frames and writes one message under the write lock.
func (t *Transport) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := io.WriteString(t.writer, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := t.writer.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

func (t *Transport) readLoop() {
	for {
		select {
		case <-t.done:
			return
		default:
		}

		msg, err := t.readMessage()
		if err != nil {
			if t.closed.Load() || err == io.EOF || err == io.ErrClosedPipe {
				return
			}
			continue
		}
		t.dispatch(msg)
	}
}

// readMessage reads one frame. Lines before the Content-Length header
// that are not headers are treated as stream noise and skipped, never
// failed on: analyzers are known to log diagnostics to stdout.
func (t *Transport) readMessage() (json.RawMessage, error) {
	contentLength := 0
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if contentLength > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			value := strings.TrimSpace(line[len("content-length:"):])
			length, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("malformed Content-Length header: %q", line)
			}
			contentLength = length
		}
		// Content-Type, other headers, and noise lines are ignored.
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// dispatch routes a frame to a waiting caller or a notification handler.
func (t *Transport) dispatch(data json.RawMessage) {
	var probe struct {
		ID     *int64          `json:"id"`
		Method string          `json:"method"`
		Error  *RPCError       `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return
	}

	if probe.ID != nil && probe.Method == "" {
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}
		t.handleResponse(&resp)
		return
	}

	if probe.Method != "" {
		var notif notification
		if err := json.Unmarshal(data, &notif); err != nil {
			return
		}
		t.handleNotification(&notif)
	}
}

func (t *Transport) handleResponse(resp *Response) {
	if t.closed.Load() {
		return
	}

	t.mu.Lock()
	ch, ok := t.pending[resp.ID]
	if ok {
		delete(t.pending, resp.ID)
	}
	t.mu.Unlock()

	if ok {
		select {
		case ch <- resp:
		default:
		}
	}
}

func (t *Transport) handleNotification(notif *notification) {
	t.mu.Lock()
	handler, ok := t.handlers[notif.Method]
	t.mu.Unlock()

	if ok && handler != nil {
		// Handlers run off the read loop so a slow handler cannot stall framing.
		go handler(notif.Method, notif.Params)
	}
}
