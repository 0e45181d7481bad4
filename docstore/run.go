package docstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/hupe1980/agentlab/core"
)

// ApplyRunUpdate applies upd to msg in place. It creates a pending run when
// the message has none and rejects status regressions with
// core.ErrInvalidTransition before touching any field.
func ApplyRunUpdate(msg *core.Message, upd core.RunUpdate, now time.Time) error {
	if msg.Run == nil {
		msg.Run = &core.RunState{Status: core.RunStatusPending}
	}
	run := msg.Run

	if upd.Status != nil {
		if err := core.CheckTransition(run.Status, *upd.Status); err != nil {
			return err
		}
		run.Status = *upd.Status
	}

	if upd.Content != nil {
		msg.Content = *upd.Content
	}
	if upd.FinalResponseText != nil {
		run.FinalResponseText = *upd.FinalResponseText
	}
	if upd.QueryErrorDetails != nil {
		run.QueryErrorDetails = append([]string{}, upd.QueryErrorDetails...)
	}
	if len(upd.AppendErrorDetails) > 0 {
		run.QueryErrorDetails = UnionStrings(run.QueryErrorDetails, upd.AppendErrorDetails...)
	}
	if upd.ProcessedArtifacts != nil {
		run.ProcessedArtifacts = append([]core.ArtifactRef{}, upd.ProcessedArtifacts...)
	}
	if upd.InputCharacterCount != nil {
		run.InputCharacterCount = *upd.InputCharacterCount
	}
	if upd.Complete {
		ts := now.UTC()
		run.CompletedTimestamp = &ts
	}

	return nil
}

// UnionStrings appends the values of add not yet contained in existing.
func UnionStrings(existing []string, add ...string) []string {
	seen := make(map[string]struct{}, len(existing)+len(add))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	for _, s := range add {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		existing = append(existing, s)
	}
	return existing
}

// UnionEvents appends the events not yet contained in existing. Equality is
// structural, based on the canonical JSON encoding of each event.
func UnionEvents(existing []core.OutputEvent, events ...core.OutputEvent) ([]core.OutputEvent, error) {
	seen := make(map[string]struct{}, len(existing)+len(events))
	for _, ev := range existing {
		key, err := eventKey(ev)
		if err != nil {
			return nil, err
		}
		seen[key] = struct{}{}
	}
	for _, ev := range events {
		key, err := eventKey(ev)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		existing = append(existing, ev)
	}
	return existing, nil
}

// encoding/json sorts map keys, which makes the encoding canonical.
func eventKey(ev core.OutputEvent) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode output event: %w", err)
	}
	return string(b), nil
}

// DecodeMessage converts a loosely typed message document (Firestore
// snapshot data, JSON decoded maps) into a core.Message. Field names follow
// the JSON tags of core.Message.
func DecodeMessage(id string, data map[string]any) (*core.Message, error) {
	var msg core.Message
	if err := decodeLoose(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", id, err)
	}
	msg.ID = id
	return &msg, nil
}

// DecodeContextItems converts raw context entries into typed items. Entries
// that are not objects are dropped.
func DecodeContextItems(raw []any) []core.ContextItem {
	items := make([]core.ContextItem, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		var item core.ContextItem
		if err := mapstructure.WeakDecode(m, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

func decodeLoose(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
