package a2a

import (
	"bytes"
	"context"
	"net/http"

	"github.com/openai/openai-go/packages/ssestream"

	"github.com/hupe1980/agentlab/core"
)

// Stream iterates the data frames of a message/stream response.
//
//	for s.Next() {
//		frame := s.Current()
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	decoder ssestream.Decoder
	res     *http.Response
	cancel  context.CancelFunc
	cur     []byte
	done    bool
}

// Next advances to the next non-empty data frame.
func (s *Stream) Next() bool {
	if s.done || s.decoder == nil {
		return false
	}
	for s.decoder.Next() {
		data := bytes.TrimSpace(s.decoder.Event().Data)
		if len(data) == 0 {
			continue
		}
		s.cur = data
		return true
	}
	s.done = true
	return false
}

// Current returns the raw JSON of the current frame.
func (s *Stream) Current() []byte { return s.cur }

// Err returns the transport error that ended the stream, if any.
func (s *Stream) Err() error {
	if s.decoder == nil {
		return nil
	}
	if err := s.decoder.Err(); err != nil {
		return &core.BackendCommunicationError{Backend: "a2a", Op: MethodStreamMessage, Err: err}
	}
	return nil
}

// Close releases the response body.
func (s *Stream) Close() error {
	defer s.cancel()
	if s.decoder != nil {
		return s.decoder.Close()
	}
	if s.res != nil && s.res.Body != nil {
		return s.res.Body.Close()
	}
	return nil
}
