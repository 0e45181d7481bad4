package testutil

import (
	"github.com/hupe1980/agentlab/core"
)

// MessageBuilder constructs stored chat messages for tests.
// Example:
//
//	msg := NewMessage("m2").WithParent("m1").FromUser("u1").Text("hi").Build()
type MessageBuilder struct {
	msg core.Message
}

// NewMessage creates a builder for a message with the given id.
func NewMessage(id string) *MessageBuilder {
	return &MessageBuilder{msg: core.Message{ID: id}}
}

// WithParent sets the parent message id (chainable).
func (b *MessageBuilder) WithParent(id string) *MessageBuilder {
	b.msg.ParentMessageID = id
	return b
}

// FromUser marks the message as authored by user uid (chainable).
func (b *MessageBuilder) FromUser(uid string) *MessageBuilder {
	b.msg.Participant = core.UserParticipantPrefix + uid
	return b
}

// FromAgent marks the message as authored by a participant id (chainable).
func (b *MessageBuilder) FromAgent(id string) *MessageBuilder {
	b.msg.Participant = id
	return b
}

// Text appends a text part and mirrors it into Content (chainable).
func (b *MessageBuilder) Text(t string) *MessageBuilder {
	b.msg.Parts = append(b.msg.Parts, core.MessagePart{Type: core.MessagePartText, Content: t})
	b.msg.Content += t
	return b
}

// Image appends an image part stored at uri (chainable).
func (b *MessageBuilder) Image(uri, mimeType string) *MessageBuilder {
	b.msg.Parts = append(b.msg.Parts, core.MessagePart{Type: core.MessagePartImage, StorageURL: uri, MimeType: mimeType})
	return b
}

// Part appends an arbitrary part (chainable).
func (b *MessageBuilder) Part(p core.MessagePart) *MessageBuilder {
	b.msg.Parts = append(b.msg.Parts, p)
	return b
}

// Pending attaches an empty pending run (chainable).
func (b *MessageBuilder) Pending() *MessageBuilder {
	b.msg.Run = &core.RunState{Status: core.RunStatusPending}
	return b
}

// Run attaches the given run state (chainable).
func (b *MessageBuilder) Run(r core.RunState) *MessageBuilder {
	b.msg.Run = &r
	return b
}

// Build returns the message value.
func (b *MessageBuilder) Build() core.Message { return b.msg }
