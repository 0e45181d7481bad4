package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         // Plain UTF-8 text
	Metadata map[string]any // Optional producer-provided metadata
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// InlineDataPart carries binary content (typically an image) embedded in the
// prompt itself.
type InlineDataPart struct {
	Data     []byte
	MimeType string
	Name     string // Original filename hint
}

// isPart implements the Part interface for InlineDataPart.
func (InlineDataPart) isPart() {}

// FileDataPart references binary content by URI (gs://, s3://, https://)
// so a backend able to dereference it can fetch the bytes itself.
type FileDataPart struct {
	URI      string
	MimeType string
}

// isPart implements the Part interface for FileDataPart.
func (FileDataPart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // Conversation role (user, assistant, system)
	Parts []Part `json:"parts"`          // Ordered heterogeneous parts
}

// Text concatenates all text parts in order.
func (c Content) Text() string {
	var s string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			s += tp.Text
		}
	}
	return s
}

// NewTextContent returns a single text part content for role.
func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// PartRecord converts a part into a JSON friendly map suitable for storage in
// an event log. Inline data is summarized by size instead of being copied.
func PartRecord(p Part) map[string]any {
	switch v := p.(type) {
	case TextPart:
		return map[string]any{"text": v.Text}
	case InlineDataPart:
		return map[string]any{"inline_data": map[string]any{"mime_type": v.MimeType, "size": len(v.Data)}}
	case FileDataPart:
		return map[string]any{"file_data": map[string]any{"file_uri": v.URI, "mime_type": v.MimeType}}
	default:
		return map[string]any{}
	}
}
