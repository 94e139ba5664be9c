// Package chat defines the wire types of a conversation: messages, the
// history they form, and the coarse stage hint returned to clients.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageType string

const (
	TypeText      MessageType = "text"
	TypeButtons   MessageType = "buttons"
	TypeCards     MessageType = "cards"
	TypeQuestions MessageType = "questions"
)

// Stage is a UI hint. The authoritative dialogue position lives in message
// metadata.
type Stage string

const (
	StageInitial        Stage = "initial"
	StageClarifying     Stage = "clarifying"
	StageExploring      Stage = "exploring"
	StageShowingResults Stage = "showing_results"
)

// Message is one entry of the client-held history.
type Message struct {
	ID        string          `json:"id,omitempty"`
	Role      Role            `json:"role"`
	Type      MessageType     `json:"type,omitempty"`
	Content   string          `json:"content"`
	Buttons   []string        `json:"buttons,omitempty"`
	Cards     []cards.Ref     `json:"cards,omitempty"`
	Metadata  Metadata        `json:"metadata,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// ResponseMessage is the assistant message produced for one turn.
type ResponseMessage struct {
	Type     MessageType `json:"type"`
	Content  string      `json:"content"`
	Buttons  []string    `json:"buttons,omitempty"`
	Cards    []cards.Ref `json:"cards,omitempty"`
	Metadata Metadata    `json:"metadata,omitempty"`
}

// AsMessage returns r as an assistant history entry.
func (r ResponseMessage) AsMessage() Message {
	return Message{
		Role:     RoleAssistant,
		Type:     r.Type,
		Content:  r.Content,
		Buttons:  r.Buttons,
		Cards:    r.Cards,
		Metadata: r.Metadata,
	}
}

// LastAssistant returns the most recent assistant message in history.
func LastAssistant(history []Message) (Message, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant {
			return history[i], true
		}
	}
	return Message{}, false
}

// Tail returns the last n messages of history.
func Tail(history []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// Format renders history as "role: content" lines for prompts.
func Format(history []Message) string {
	var sb strings.Builder
	for i, m := range history {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %s", m.Role, m.Content)
	}
	return sb.String()
}

// Turns converts history for cards.ExtractDescription.
func Turns(history []Message) []cards.Turn {
	out := make([]cards.Turn, len(history))
	for i, m := range history {
		out[i] = cards.Turn{Role: string(m.Role), Content: m.Content}
	}
	return out
}
