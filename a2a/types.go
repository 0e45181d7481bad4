package a2a

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Method names of the JSON-RPC calls issued by Client.
const (
	MethodSendMessage   = "message/send"
	MethodStreamMessage = "message/stream"
	MethodGetTask       = "task/get"
)

// Part kinds.
const (
	PartKindText = "text"
	PartKindFile = "file"
)

// Part is one segment of an A2A message.
type Part struct {
	Kind string    `json:"kind"`
	Text string    `json:"text,omitempty"`
	File *FilePart `json:"file,omitempty"`
}

// FilePart references a file by URI.
type FilePart struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
}

// NewTextPart returns a text part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewFilePart returns a file part referencing uri.
func NewFilePart(uri, mimeType string) Part {
	return Part{Kind: PartKindFile, File: &FilePart{URI: uri, MimeType: mimeType}}
}

// Message is the payload of message/send and message/stream.
type Message struct {
	MessageID string `json:"messageId"`
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
	Kind      string `json:"kind,omitempty"`
}

// NewUserMessage creates a user message with a fresh message id.
func NewUserMessage(parts ...Part) Message {
	return Message{MessageID: uuid.NewString(), Role: "user", Parts: parts, Kind: "message"}
}

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      string `json:"id"`
	Params  any    `json:"params"`
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result and
// Error is expected to be set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// HasResult reports whether the response carries a non-null result.
func (r *Response) HasResult() bool {
	return len(r.Result) > 0 && string(r.Result) != "null"
}

// HasError reports whether the response carries a non-null error.
func (r *Response) HasError() bool {
	return len(r.Error) > 0 && string(r.Error) != "null"
}

type messageParams struct {
	Message Message `json:"message"`
}

type taskQueryParams struct {
	ID string `json:"id"`
}
