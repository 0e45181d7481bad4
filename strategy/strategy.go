package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
)

// Input is the turn handed to a strategy.
type Input struct {
	// Content is the assembled user content.
	Content core.Content
	// UserID is the execution identity used for backend sessions.
	UserID string
}

// Result is the outcome of a strategy run.
type Result struct {
	FinalText    string
	ErrorDetails []string
}

// Failed reports whether the run produced error details.
func (r Result) Failed() bool { return len(r.ErrorDetails) > 0 }

func (r *Result) addError(format string, args ...any) {
	r.ErrorDetails = append(r.ErrorDetails, fmt.Sprintf(format, args...))
}

// record appends one event and logs, without propagating, a failed append.
func record(ctx context.Context, events core.EventLog, logger logging.Logger, ev core.OutputEvent) {
	if events == nil {
		return
	}
	if err := events.Append(ctx, ev); err != nil {
		logger.Warn("Failed to append output event", "error", err)
	}
}

// textParts returns the non-empty text parts of c in order.
func textParts(c core.Content) []string {
	var out []string
	for _, p := range c.Parts {
		if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
			out = append(out, tp.Text)
		}
	}
	return out
}

// imageCount counts inline and referenced binary parts.
func imageCount(c core.Content) int {
	n := 0
	for _, p := range c.Parts {
		switch p.(type) {
		case core.InlineDataPart, core.FileDataPart:
			n++
		}
	}
	return n
}

// DeployedMessage flattens content into the single string a deployed engine
// accepts: text parts joined by newlines, or an image placeholder when the
// turn has images only.
func DeployedMessage(c core.Content) string {
	if texts := textParts(c); len(texts) > 0 {
		return strings.Join(texts, "\n")
	}
	if n := imageCount(c); n > 0 {
		return fmt.Sprintf("[Image Content Provided (%d)]", n)
	}
	return ""
}
