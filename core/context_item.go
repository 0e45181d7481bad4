package core

// ContextItemType is the kind of a fetched context item.
type ContextItemType string

const (
	ContextItemPDF     ContextItemType = "pdf"
	ContextItemWebpage ContextItemType = "webpage"
	ContextItemGitRepo ContextItemType = "git_repo"
	ContextItemText    ContextItemType = "text"
	ContextItemImage   ContextItemType = "image"
)

// IsTextual reports whether items of this type carry their payload as text.
func (t ContextItemType) IsTextual() bool {
	switch t {
	case ContextItemPDF, ContextItemWebpage, ContextItemGitRepo, ContextItemText:
		return true
	}
	return false
}

// ContextItem is a raw, ad-hoc context entry produced by an external fetcher
// (web page, PDF, repository clone, uploaded image).
type ContextItem struct {
	Type       ContextItemType `json:"type" mapstructure:"type"`
	Name       string          `json:"name,omitempty" mapstructure:"name"`
	Content    string          `json:"content,omitempty" mapstructure:"content"`
	StorageURL string          `json:"storageUrl,omitempty" mapstructure:"storageUrl"`
	MimeType   string          `json:"mimeType,omitempty" mapstructure:"mimeType"`
}
