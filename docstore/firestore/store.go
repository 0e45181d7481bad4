// Package firestore implements core.DocumentStore on Cloud Firestore.
//
// Layout:
//
//	chats/{chatId}/messages/{messageId}
//	agents/{agentId}
//	models/{modelId}
//
// Output events are appended with ArrayUnion and completion timestamps use
// the server clock. Status changes run in a transaction that reads the
// current status first.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/docstore"
	"github.com/hupe1980/agentlab/logging"
)

// Compile-time interface compliance check.
var _ core.DocumentStore = (*Store)(nil)

// Options configures a Store.
type Options struct {
	// DatabaseID selects a named database. Empty uses the default database.
	DatabaseID string
	Logger     logging.Logger
}

// Store implements core.DocumentStore on Firestore.
type Store struct {
	client *firestore.Client
	logger logging.Logger
}

// New creates a Firestore store for projectID.
func New(ctx context.Context, projectID string, optFns ...func(o *Options)) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		client *firestore.Client
		err    error
	)
	if opts.DatabaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, opts.DatabaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return NewFromClient(client, opts.Logger), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *firestore.Client, logger logging.Logger) *Store {
	return &Store{client: client, logger: logging.OrNoOp(logger)}
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) messageDoc(chatID, messageID string) *firestore.DocumentRef {
	return s.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID)
}

// GetMessage loads one message.
func (s *Store) GetMessage(ctx context.Context, chatID, messageID string) (*core.Message, error) {
	snap, err := s.messageDoc(chatID, messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &core.NotFoundError{Kind: "message", ID: messageID}
		}
		return nil, fmt.Errorf("firestore GetMessage: %w", err)
	}

	return docstore.DecodeMessage(snap.Ref.ID, snap.Data())
}

// ListMessages loads every message of a chat.
func (s *Store) ListMessages(ctx context.Context, chatID string) ([]core.Message, error) {
	iter := s.client.Collection("chats").Doc(chatID).Collection("messages").Documents(ctx)
	defer iter.Stop()

	var out []core.Message
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		msg, err := docstore.DecodeMessage(snap.Ref.ID, snap.Data())
		if err != nil {
			s.logger.Warn("Skipping undecodable message", "chat_id", chatID, "message_id", snap.Ref.ID, "error", err)
			continue
		}
		out = append(out, *msg)
	}
	return out, nil
}

// UpdateRun applies a partial update in a transaction that guards the
// status transition.
func (s *Store) UpdateRun(ctx context.Context, chatID, messageID string, upd core.RunUpdate) error {
	ref := s.messageDoc(chatID, messageID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		current := core.RunStatusPending
		if v, err := snap.DataAt("run.status"); err == nil {
			if str, ok := v.(string); ok && str != "" {
				current = core.RunStatus(str)
			}
		}

		updates, err := runUpdates(current, upd)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		return tx.Update(ref, updates)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &core.NotFoundError{Kind: "message", ID: messageID}
		}
		return fmt.Errorf("firestore UpdateRun: %w", err)
	}

	return nil
}

// AppendOutputEvents appends events with ArrayUnion.
func (s *Store) AppendOutputEvents(ctx context.Context, chatID, messageID string, events ...core.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}

	_, err := s.messageDoc(chatID, messageID).Update(ctx, []firestore.Update{
		{Path: "run.outputEvents", Value: firestore.ArrayUnion(toAny(events)...)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &core.NotFoundError{Kind: "message", ID: messageID}
		}
		return fmt.Errorf("firestore AppendOutputEvents: %w", err)
	}

	return nil
}

// GetAgent returns the document agents/{agentID}.
func (s *Store) GetAgent(ctx context.Context, agentID string) (core.ConfigDoc, error) {
	return s.getConfig(ctx, "agents", "agent", agentID)
}

// GetModel returns the document models/{modelID}.
func (s *Store) GetModel(ctx context.Context, modelID string) (core.ConfigDoc, error) {
	return s.getConfig(ctx, "models", "model", modelID)
}

func (s *Store) getConfig(ctx context.Context, collection, kind, id string) (core.ConfigDoc, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &core.NotFoundError{Kind: kind, ID: id}
		}
		return nil, fmt.Errorf("firestore get %s: %w", kind, err)
	}
	return core.ConfigDoc(snap.Data()), nil
}

// runUpdates translates a RunUpdate into Firestore field updates after
// checking the status transition against current.
func runUpdates(current core.RunStatus, upd core.RunUpdate) ([]firestore.Update, error) {
	var updates []firestore.Update

	if upd.Status != nil {
		if err := core.CheckTransition(current, *upd.Status); err != nil {
			return nil, err
		}
		updates = append(updates, firestore.Update{Path: "run.status", Value: string(*upd.Status)})
	}

	if upd.Content != nil {
		updates = append(updates, firestore.Update{Path: "content", Value: *upd.Content})
	}
	if upd.FinalResponseText != nil {
		updates = append(updates, firestore.Update{Path: "run.finalResponseText", Value: *upd.FinalResponseText})
	}

	// A field can not be both set and union-appended in one write.
	switch {
	case upd.QueryErrorDetails != nil:
		details := docstore.UnionStrings(append([]string{}, upd.QueryErrorDetails...), upd.AppendErrorDetails...)
		updates = append(updates, firestore.Update{Path: "run.queryErrorDetails", Value: details})
	case len(upd.AppendErrorDetails) > 0:
		updates = append(updates, firestore.Update{Path: "run.queryErrorDetails", Value: firestore.ArrayUnion(toAny(upd.AppendErrorDetails)...)})
	}

	if upd.ProcessedArtifacts != nil {
		refs := make([]map[string]any, 0, len(upd.ProcessedArtifacts))
		for _, r := range upd.ProcessedArtifacts {
			refs = append(refs, map[string]any{
				"filename":     r.Filename,
				"version":      r.Version,
				"originalName": r.OriginalName,
				"type":         string(r.Type),
			})
		}
		updates = append(updates, firestore.Update{Path: "run.processedArtifacts", Value: refs})
	}
	if upd.InputCharacterCount != nil {
		updates = append(updates, firestore.Update{Path: "run.inputCharacterCount", Value: *upd.InputCharacterCount})
	}
	if upd.Complete {
		updates = append(updates, firestore.Update{Path: "run.completedTimestamp", Value: firestore.ServerTimestamp})
	}

	return updates, nil
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
