package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
)

// DefaultUnaryTimeout bounds message/send and task/get calls.
const DefaultUnaryTimeout = 120 * time.Second

const maxErrorBody = 200

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client

	// UnaryTimeout bounds a single request/response call. Zero disables it.
	UnaryTimeout time.Duration

	// StreamTimeout bounds a whole message/stream exchange. Zero leaves the
	// stream bounded by the caller's context only.
	StreamTimeout time.Duration

	Logger logging.Logger
}

// Client talks JSON-RPC to one A2A endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	opts     Options
	logger   logging.Logger
}

// NewClient creates a client for endpoint. A trailing slash is trimmed.
func NewClient(endpoint string, optFns ...func(o *Options)) *Client {
	opts := Options{
		HTTPClient:   http.DefaultClient,
		UnaryTimeout: DefaultUnaryTimeout,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     opts.HTTPClient,
		opts:     opts,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Endpoint returns the normalized RPC endpoint.
func (c *Client) Endpoint() string { return c.endpoint }

// SendMessage issues message/send and returns the decoded envelope. A
// protocol level error is reported through Response.Error, not as a Go error.
func (c *Client) SendMessage(ctx context.Context, msg Message) (*Response, error) {
	return c.call(ctx, MethodSendMessage, "agentlab-send-"+newRequestID(), messageParams{Message: msg})
}

// GetTask issues task/get for taskID.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Response, error) {
	return c.call(ctx, MethodGetTask, "agentlab-get-task-"+newRequestID(), taskQueryParams{ID: taskID})
}

// StreamMessage issues message/stream and returns the open event stream. The
// caller must Close it.
func (c *Client) StreamMessage(ctx context.Context, msg Message) (*Stream, error) {
	cancel := context.CancelFunc(func() {})
	if c.opts.StreamTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.opts.StreamTimeout)
	}

	req, err := c.newRequest(ctx, Request{
		JSONRPC: "2.0",
		Method:  MethodStreamMessage,
		ID:      "agentlab-stream-" + newRequestID(),
		Params:  messageParams{Message: msg},
	})
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	c.logger.Info("Sending A2A RPC", "method", MethodStreamMessage, "endpoint", c.endpoint)

	res, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, &core.BackendCommunicationError{Backend: "a2a", Op: MethodStreamMessage, Err: err}
	}

	if err := checkStatus(res, MethodStreamMessage); err != nil {
		cancel()
		return nil, err
	}

	// A final data line without the blank-line terminator still counts as a
	// frame.
	res.Body = terminatedBody{Reader: io.MultiReader(res.Body, strings.NewReader("\n\n")), Closer: res.Body}

	return &Stream{decoder: ssestream.NewDecoder(res), res: res, cancel: cancel}, nil
}

type terminatedBody struct {
	io.Reader
	io.Closer
}

func (c *Client) call(ctx context.Context, method, id string, params any) (*Response, error) {
	if c.opts.UnaryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.UnaryTimeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, Request{JSONRPC: "2.0", Method: method, ID: id, Params: params})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Sending A2A RPC", "method", method, "id", id, "endpoint", c.endpoint)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &core.BackendCommunicationError{Backend: "a2a", Op: method, Err: err}
	}
	defer res.Body.Close()

	c.logger.Info("Received A2A response", "method", method, "status", res.StatusCode)

	if err := checkStatus(res, method); err != nil {
		return nil, err
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &core.BackendCommunicationError{Backend: "a2a", Op: method, Err: fmt.Errorf("decode response: %w", err)}
	}

	return &out, nil
}

func (c *Client) newRequest(ctx context.Context, rpc Request) (*http.Request, error) {
	body, err := json.Marshal(rpc)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", rpc.Method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &core.BackendCommunicationError{Backend: "a2a", Op: rpc.Method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// checkStatus closes the body and returns a BackendCommunicationError for
// non-2xx responses.
func checkStatus(res *http.Response, method string) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))

	return &core.BackendCommunicationError{
		Backend:    "a2a",
		Op:         method,
		StatusCode: res.StatusCode,
		Body:       truncate(string(body), maxErrorBody),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func newRequestID() string { return ulid.Make().String() }
