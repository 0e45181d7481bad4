// Package history rebuilds the linear conversation leading to a message by
// walking parentMessageId links from a leaf towards the root.
package history

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
)

// DefaultMaxDepth bounds a walk when no explicit limit is configured.
const DefaultMaxDepth = 1000

// Options configures a Reconstructor.
type Options struct {
	MaxDepth int
	Logger   logging.Logger
}

// Reconstructor loads the ancestor chain of a message.
type Reconstructor struct {
	store    core.MessageStore
	maxDepth int
	logger   logging.Logger
}

// New creates a Reconstructor reading from store.
func New(store core.MessageStore, optFns ...func(o *Options)) *Reconstructor {
	opts := Options{MaxDepth: DefaultMaxDepth, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	return &Reconstructor{store: store, maxDepth: opts.MaxDepth, logger: logging.OrNoOp(opts.Logger)}
}

// Reconstruct returns the chain root..leaf in chronological order.
//
// An empty or unknown leaf yields an empty slice. A parent pointer to a
// message that does not exist ends the chain there. The walk never takes
// more than MaxDepth steps, which also breaks parent cycles.
func (r *Reconstructor) Reconstruct(ctx context.Context, chatID, leafID string) ([]core.Message, error) {
	if leafID == "" {
		return []core.Message{}, nil
	}

	all, err := r.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load messages of chat %s: %w", chatID, err)
	}

	byID := make(map[string]core.Message, len(all))
	for _, m := range all {
		byID[m.ID] = m
	}

	var chain []core.Message
	for id := leafID; id != ""; {
		if len(chain) >= r.maxDepth {
			r.logger.Warn("History walk hit max depth, truncating", "chat_id", chatID, "leaf_id", leafID, "max_depth", r.maxDepth)
			break
		}

		m, ok := byID[id]
		if !ok {
			if id != leafID {
				r.logger.Debug("History chain broken by missing message", "chat_id", chatID, "message_id", id)
			}
			break
		}

		chain = append(chain, m)
		id = m.ParentMessageID
	}

	// Collected leaf first, returned root first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	if chain == nil {
		chain = []core.Message{}
	}

	return chain, nil
}
