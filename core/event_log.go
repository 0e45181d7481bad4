package core

import (
	"context"
	"sync"
)

// EventLog is the append-only output log of one run. Implementations append
// atomically with union semantics; callers never rewrite entries.
type EventLog interface {
	Append(ctx context.Context, events ...OutputEvent) error
}

// EventIndexKey is the envelope key holding the per-run sequence number.
const EventIndexKey = "eventIndex"

// RunEventLog is an EventLog bound to one assistant message. It stamps every
// record with a monotonically increasing eventIndex so identical payloads
// survive union deduplication, then appends one record per store call to keep
// the backend emission order.
type RunEventLog struct {
	store     RunStore
	chatID    string
	messageID string

	mu   sync.Mutex
	next int
}

// NewRunEventLog binds an EventLog to the run of chatID/messageID.
func NewRunEventLog(store RunStore, chatID, messageID string) *RunEventLog {
	return &RunEventLog{store: store, chatID: chatID, messageID: messageID}
}

// Append stamps and appends events in order. It stops at the first failure.
func (l *RunEventLog) Append(ctx context.Context, events ...OutputEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ev := range events {
		rec := make(OutputEvent, len(ev)+1)
		for k, v := range ev {
			rec[k] = v
		}
		rec[EventIndexKey] = l.next

		if err := l.store.AppendOutputEvents(ctx, l.chatID, l.messageID, rec); err != nil {
			return err
		}
		l.next++
	}

	return nil
}

// Count returns how many events were appended so far.
func (l *RunEventLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next
}
