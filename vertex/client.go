package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
)

// Scope is the OAuth2 scope required by the Agent Engine API.
const Scope = "https://www.googleapis.com/auth/cloud-platform"

const maxErrorBody = 200

// Options configures a Client.
type Options struct {
	// HTTPClient performs authenticated requests. When nil, New builds one
	// from Application Default Credentials.
	HTTPClient *http.Client

	// Endpoint overrides the regional base URL
	// https://{location}-aiplatform.googleapis.com.
	Endpoint string

	// Timeout bounds CreateSession. Zero disables it.
	Timeout time.Duration

	Logger logging.Logger
}

// Client talks to the Agent Engine REST API.
type Client struct {
	http     *http.Client
	endpoint string
	timeout  time.Duration
	logger   logging.Logger
}

// New creates a Client. Without an explicit HTTPClient it authenticates with
// Application Default Credentials.
func New(ctx context.Context, optFns ...func(o *Options)) (*Client, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTPClient == nil {
		hc, err := google.DefaultClient(ctx, Scope)
		if err != nil {
			return nil, fmt.Errorf("vertex: default credentials: %w", err)
		}
		opts.HTTPClient = hc
	}

	return &Client{
		http:     opts.HTTPClient,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		timeout:  opts.Timeout,
		logger:   logging.OrNoOp(opts.Logger),
	}, nil
}

// CreateSession opens a session of resource for userID and returns its id.
func (c *Client) CreateSession(ctx context.Context, resource, userID string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	base, err := c.baseURL(resource)
	if err != nil {
		return "", err
	}

	res, err := c.post(ctx, "create_session", base+"/v1beta1/"+resource+"/sessions", map[string]any{"userId": userID})
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var op struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(res.Body).Decode(&op); err != nil {
		return "", &core.BackendCommunicationError{Backend: "vertex", Op: "create_session", Err: fmt.Errorf("decode response: %w", err)}
	}

	id := SessionIDFromName(op.Name)
	if id == "" {
		return "", &core.BackendCommunicationError{Backend: "vertex", Op: "create_session", Err: fmt.Errorf("unexpected operation name %q", op.Name)}
	}

	c.logger.Info("Created Vertex session", "resource", resource, "session_id", id)

	return id, nil
}

// StreamQuery sends message to the deployed agent within sessionID and
// returns the stream of events. The caller must Close it.
func (c *Client) StreamQuery(ctx context.Context, resource, userID, sessionID, message string) (*Stream, error) {
	base, err := c.baseURL(resource)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"class_method": "stream_query",
		"input": map[string]any{
			"user_id":    userID,
			"session_id": sessionID,
			"message":    message,
		},
	}

	res, err := c.post(ctx, "stream_query", base+"/v1/"+resource+":streamQuery", body)
	if err != nil {
		return nil, err
	}

	return newStream(res.Body, c.logger), nil
}

func (c *Client) post(ctx context.Context, op, url string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &core.BackendCommunicationError{Backend: "vertex", Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &core.BackendCommunicationError{Backend: "vertex", Op: op, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer res.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return nil, &core.BackendCommunicationError{Backend: "vertex", Op: op, StatusCode: res.StatusCode, Body: string(b)}
	}

	return res, nil
}

func (c *Client) baseURL(resource string) (string, error) {
	if c.endpoint != "" {
		return c.endpoint, nil
	}

	loc, err := LocationFromResource(resource)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://%s-aiplatform.googleapis.com", loc), nil
}

// LocationFromResource extracts the region of a resource name of the form
// projects/{p}/locations/{loc}/reasoningEngines/{id}.
func LocationFromResource(resource string) (string, error) {
	segs := strings.Split(strings.Trim(resource, "/"), "/")
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == "locations" && segs[i+1] != "" {
			return segs[i+1], nil
		}
	}

	return "", &core.ValidationError{Field: "vertexAiResourceName", Reason: fmt.Sprintf("no location in %q", resource)}
}

// SessionIDFromName extracts the session id from the long running operation
// name returned by the sessions endpoint:
// .../sessions/{session}/operations/{operation}.
func SessionIDFromName(name string) string {
	segs := strings.Split(name, "/")
	if len(segs) < 3 {
		return ""
	}
	return segs[len(segs)-3]
}
