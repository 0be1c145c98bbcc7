// Package llm - conversation.go defines the provider-neutral multi-turn, tool-calling session types.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// ToolParam describes one string parameter of a tool the model may call.
type ToolParam struct {
	Name        string
	Description string
	Required    bool
}

// ToolDeclaration describes a function the model may call during a conversation.
type ToolDeclaration struct {
	Name        string
	Description string
	Params      []ToolParam
}

// Document is an inline binary attachment (e.g. a PDF résumé).
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// StringArg returns a trimmed string argument, or "" if missing or not a string.
func (c FunctionCall) StringArg(name string) string {
	v, ok := c.Args[name]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// FunctionResponse answers one FunctionCall.
type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// Message is one user turn: optional text, attachments and tool responses.
type Message struct {
	Text      string
	Documents []Document
	Responses []FunctionResponse
}

// IsEmpty reports whether the message has nothing to send.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == "" && len(m.Documents) == 0 && len(m.Responses) == 0
}

// Reply is one model turn.
type Reply struct {
	Text  string
	Calls []FunctionCall
}

// HasCalls reports whether the model asked for any tool invocations.
func (r *Reply) HasCalls() bool {
	return r != nil && len(r.Calls) > 0
}

// ConversationOptions configures a new tool-calling conversation.
type ConversationOptions struct {
	Tier              ModelTier
	SystemInstruction string
	Tools             []ToolDeclaration
	Output            OutputSchema // Schema the final answer must follow
}

// Conversation is a stateful exchange with the model. History is kept by the implementation.
type Conversation interface {
	// Send delivers a user turn with tools enabled and returns the model's reply.
	Send(ctx context.Context, msg Message) (*Reply, error)
	// Finalize delivers a user turn with tools disabled and the output schema enforced,
	// returning the raw JSON text of the answer.
	Finalize(ctx context.Context, msg Message) (string, error)
}

// validateMessage rejects empty turns before they reach the provider.
func validateMessage(msg Message) error {
	if msg.IsEmpty() {
		return &ProviderError{Kind: KindInvalidRequest, Message: "empty message"}
	}
	for _, doc := range msg.Documents {
		if doc.MIMEType == "" {
			return &ProviderError{Kind: KindInvalidRequest, Message: fmt.Sprintf("document %q has no MIME type", doc.Name)}
		}
	}
	return nil
}
