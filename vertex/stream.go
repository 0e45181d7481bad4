package vertex

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
)

// Stream iterates the newline delimited JSON events of a streamQuery response.
type Stream struct {
	body   io.ReadCloser
	r      *bufio.Reader
	logger logging.Logger
	cur    json.RawMessage
	err    error
	done   bool
}

func newStream(body io.ReadCloser, logger logging.Logger) *Stream {
	return &Stream{body: body, r: bufio.NewReader(body), logger: logger}
}

// Next advances to the next event. Lines that are not valid JSON are logged
// and skipped.
func (s *Stream) Next() bool {
	for !s.done {
		line, err := s.r.ReadBytes('\n')
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = &core.BackendCommunicationError{Backend: "vertex", Op: "stream_query", Err: err}
				return false
			}
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if !json.Valid(line) {
			s.logger.Warn("Skipping undecodable Vertex event", "error", &core.PartialDecodeError{Source: "vertex stream_query", Err: errors.New("invalid JSON")})
			continue
		}

		s.cur = json.RawMessage(line)
		return true
	}

	return false
}

// Current returns the raw JSON of the current event.
func (s *Stream) Current() json.RawMessage { return s.cur }

// Err returns the read error that ended the stream, if any.
func (s *Stream) Err() error { return s.err }

// Close releases the response body.
func (s *Stream) Close() error { return s.body.Close() }

// EventText concatenates content.parts[].text of an event.
func EventText(event []byte) string {
	var sb strings.Builder
	for _, t := range gjson.GetBytes(event, "content.parts.#.text").Array() {
		sb.WriteString(t.String())
	}
	return sb.String()
}
