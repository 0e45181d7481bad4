package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/agentlab/a2a"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/participant"
)

// Output record types written by Remote.
const (
	RecordA2AUnaryResult  = "a2a_unary_task_result"
	RecordA2AStreamEvent  = "a2a_stream_event"
	RecordA2AFinalTaskGet = "a2a_final_task_get"
)

// RemoteOptions configures a Remote strategy.
type RemoteOptions struct {
	HTTPClient *http.Client
	// UnaryTimeout bounds message/send and task/get. Defaults to
	// a2a.DefaultUnaryTimeout.
	UnaryTimeout time.Duration
	// StreamTimeout bounds message/stream. Zero leaves it to the context.
	StreamTimeout time.Duration
	Logger        logging.Logger
}

// Remote runs a turn against an A2A agent.
type Remote struct {
	opts   RemoteOptions
	logger logging.Logger
}

// NewRemote creates a Remote strategy.
func NewRemote(optFns ...func(o *RemoteOptions)) *Remote {
	opts := RemoteOptions{
		HTTPClient:   http.DefaultClient,
		UnaryTimeout: a2a.DefaultUnaryTimeout,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Remote{opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Run negotiates the delivery mode from the agent card and executes the turn.
func (r *Remote) Run(ctx context.Context, p *participant.RemoteProtocol, in Input, events core.EventLog) Result {
	client := a2a.NewClient(p.EndpointURL, func(o *a2a.Options) {
		o.HTTPClient = r.opts.HTTPClient
		o.UnaryTimeout = r.opts.UnaryTimeout
		o.StreamTimeout = r.opts.StreamTimeout
		o.Logger = r.logger
	})

	msg := a2a.NewUserMessage(r.messageParts(in.Content)...)

	if p.Card.Capabilities.Streaming {
		r.logger.Info("Determined agent protocol: streaming", "agent", p.AgentID, "endpoint", client.Endpoint())
		return r.stream(ctx, client, msg, events)
	}

	r.logger.Info("Determined agent protocol: unary", "agent", p.AgentID, "endpoint", client.Endpoint())
	return r.unary(ctx, client, msg, events)
}

// messageParts sends all text as one text part followed by one file part
// per referenced image.
func (r *Remote) messageParts(c core.Content) []a2a.Part {
	parts := []a2a.Part{a2a.NewTextPart(strings.Join(textParts(c), ""))}

	for _, p := range c.Parts {
		switch v := p.(type) {
		case core.FileDataPart:
			parts = append(parts, a2a.NewFilePart(v.URI, v.MimeType))
		case core.InlineDataPart:
			r.logger.Debug("Dropping inline image for A2A message", "name", v.Name, "mime_type", v.MimeType)
		}
	}

	return parts
}

func (r *Remote) unary(ctx context.Context, client *a2a.Client, msg a2a.Message, events core.EventLog) Result {
	var res Result

	resp, err := client.SendMessage(ctx, msg)
	if err != nil {
		if isStatusError(err) {
			res.addError("A2A 'message/send' returned an error: %v", err)
		} else {
			res.addError("Failed to communicate with non-streaming A2A agent: %v", err)
		}
		r.logger.Error("A2A unary call failed", "error", err)
		return res
	}

	if resp.HasError() {
		res.addError("A2A 'message/send' returned an error: %s", string(resp.Error))
		r.logger.Error("A2A message/send returned an error", "error", string(resp.Error))
	}

	if resp.HasResult() {
		r.recordSource(ctx, events, RecordA2AUnaryResult, resp.Result)

		result := gjson.ParseBytes(resp.Result)
		res.FinalText = strings.Join(artifactTexts(result), "")
		if result.Get("kind").String() == "message" {
			res.FinalText += strings.Join(partTexts(result.Get("parts")), "")
		}
	}

	return res
}

func (r *Remote) stream(ctx context.Context, client *a2a.Client, msg a2a.Message, events core.EventLog) Result {
	var (
		res       Result
		taskID    string
		completed bool
		text      strings.Builder
	)

	s, err := client.StreamMessage(ctx, msg)
	if err != nil {
		if isStatusError(err) {
			res.addError("A2A 'message/stream' returned an error: %v", err)
		} else {
			res.addError("Failed to communicate with A2A agent during stream: %v", err)
		}
		r.logger.Error("A2A stream could not be opened", "error", err)
	} else {
		defer s.Close()

		for s.Next() {
			frame := s.Current()
			if !gjson.ValidBytes(frame) {
				perr := &core.PartialDecodeError{Source: "a2a stream frame", Err: errors.New(truncateFrame(frame))}
				r.logger.Warn("Could not decode A2A stream frame", "error", perr)
				continue
			}

			root := gjson.ParseBytes(frame)
			ev := root.Get("result")
			if !ev.Exists() {
				ev = root
			}

			if !ev.IsObject() {
				if e := root.Get("error"); e.Exists() && e.Type != gjson.Null {
					res.addError("A2A stream returned an error: %s", e.Raw)
					r.logger.Error("A2A stream returned an error", "error", e.Raw)
				}
				continue
			}

			r.recordSource(ctx, events, RecordA2AStreamEvent, []byte(ev.Raw))

			if id := streamTaskID(ev); id != "" && id != taskID {
				taskID = id
				r.logger.Info("Captured A2A task id", "task_id", taskID)
			}

			switch ev.Get("kind").String() {
			case "artifact-update":
				for _, t := range partTexts(ev.Get("artifact.parts")) {
					text.WriteString(t)
				}
			case "status-update":
				if ev.Get("status.state").String() == "completed" {
					completed = true
					r.logger.Info("A2A task completed within the stream", "task_id", taskID)
				}
			}
		}

		if err := s.Err(); err != nil {
			res.addError("Failed to communicate with A2A agent during stream: %v", err)
			r.logger.Error("A2A stream failed", "error", err)
		}
	}

	final := text.String()

	switch {
	case completed:
	case taskID == "":
		r.logger.Warn("No task id was captured from the A2A stream, cannot fetch final result")
	default:
		final = r.pollTask(ctx, client, taskID, final, events, &res)
	}

	res.FinalText = final
	return res
}

// pollTask fetches the task once and appends artifact texts not yet seen.
func (r *Remote) pollTask(ctx context.Context, client *a2a.Client, taskID, text string, events core.EventLog, res *Result) string {
	r.logger.Info("Task incomplete after stream, fetching final state", "task_id", taskID)

	resp, err := client.GetTask(ctx, taskID)
	if err != nil {
		if isStatusError(err) {
			res.addError("A2A 'task/get' returned an error: %v", err)
		} else {
			res.addError("Failed to get final task result from A2A agent: %v", err)
		}
		r.logger.Error("A2A task/get failed", "task_id", taskID, "error", err)
		return text
	}

	if resp.HasError() {
		res.addError("A2A 'task/get' returned an error: %s", string(resp.Error))
		r.logger.Error("A2A task/get returned an error", "task_id", taskID, "error", string(resp.Error))
	}

	if !resp.HasResult() {
		return text
	}

	r.recordSource(ctx, events, RecordA2AFinalTaskGet, resp.Result)

	for _, t := range artifactTexts(gjson.ParseBytes(resp.Result)) {
		if !strings.Contains(text, t) {
			text += t
		}
	}

	return text
}

func (r *Remote) recordSource(ctx context.Context, events core.EventLog, kind string, raw []byte) {
	var source any
	if err := json.Unmarshal(raw, &source); err != nil {
		r.logger.Warn("Could not decode A2A event for recording", "type", kind, "error", err)
		return
	}
	record(ctx, events, r.logger, core.OutputEvent{"type": kind, "source_event": source})
}

// streamTaskID extracts the task id of a stream event.
func streamTaskID(ev gjson.Result) string {
	if id := ev.Get("taskId"); id.Exists() && id.String() != "" {
		return id.String()
	}
	if id := ev.Get("task_id"); id.Exists() && id.String() != "" {
		return id.String()
	}
	if ev.Get("kind").String() == "task" {
		return ev.Get("id").String()
	}
	return ""
}

// artifactTexts returns the texts of every artifact part in order.
func artifactTexts(task gjson.Result) []string {
	var out []string
	for _, a := range task.Get("artifacts").Array() {
		out = append(out, partTexts(a.Get("parts"))...)
	}
	return out
}

// partTexts returns the text (or text-delta) of each part.
func partTexts(parts gjson.Result) []string {
	var out []string
	for _, p := range parts.Array() {
		t := p.Get("text").String()
		if t == "" {
			t = p.Get("text-delta").String()
		}
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func isStatusError(err error) bool {
	var bce *core.BackendCommunicationError
	return errors.As(err, &bce) && bce.StatusCode != 0
}

func truncateFrame(frame []byte) string {
	const limit = 200
	if len(frame) > limit {
		return string(frame[:limit])
	}
	return string(frame)
}
