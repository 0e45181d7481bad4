package core

import "strings"

// UserParticipantPrefix tags messages authored by a human user.
const UserParticipantPrefix = "user:"

// MessagePartType is the kind of a stored message part.
type MessagePartType string

const (
	MessagePartText  MessagePartType = "text"
	MessagePartImage MessagePartType = "image"
)

// MessagePart is one ordered segment of a stored chat message.
type MessagePart struct {
	Type       MessagePartType `json:"type"`
	Content    string          `json:"content,omitempty"`
	Data       string          `json:"data,omitempty"`
	StorageURL string          `json:"storageUrl,omitempty"`
	MimeType   string          `json:"mimeType,omitempty"`
}

// Text returns the textual payload of the part. Older documents store it
// under "data" instead of "content".
func (p MessagePart) Text() string {
	if p.Content != "" {
		return p.Content
	}
	return p.Data
}

// Message is a stored chat message. Messages form a tree via ParentMessageID;
// the ancestor chain of a leaf is the conversation history of that branch.
// Only Run is mutated after creation.
type Message struct {
	ID              string        `json:"id"`
	ParentMessageID string        `json:"parentMessageId,omitempty"`
	Participant     string        `json:"participant"`
	Content         string        `json:"content,omitempty"`
	Parts           []MessagePart `json:"parts,omitempty"`
	Run             *RunState     `json:"run,omitempty"`
}

// IsUser reports whether the message was authored by a user.
func (m Message) IsUser() bool { return strings.HasPrefix(m.Participant, UserParticipantPrefix) }
