package task

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hupe1980/agentlab/core"
)

// Request is the payload of one task.
type Request struct {
	ChatID              string             `json:"chatId"`
	AssistantMessageID  string             `json:"assistantMessageId"`
	AgentID             string             `json:"agentId,omitempty"`
	ModelID             string             `json:"modelId,omitempty"`
	UserID              string             `json:"adkUserId"`
	StuffedContextItems []core.ContextItem `json:"stuffedContextItems,omitempty"`
}

// Validate checks the required identifiers.
func (r Request) Validate() error {
	switch {
	case r.ChatID == "":
		return &core.ValidationError{Field: "chatId"}
	case r.AssistantMessageID == "":
		return &core.ValidationError{Field: "assistantMessageId"}
	case r.UserID == "":
		return &core.ValidationError{Field: "adkUserId"}
	}
	return nil
}

// DecodeRequest reads a JSON request from r.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, &core.ValidationError{Field: "payload", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return req, nil
}
