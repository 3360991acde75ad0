package agent

import (
	"encoding/json"
	"fmt"
)

// Role tags a conversation message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content is a typed block inside a message.
// Implementations: TextContent, UnknownContent.
type Content interface {
	ContentType() string
}

// TextContent is a plain text block.
type TextContent struct {
	Text string
}

// ContentType implements Content.
func (TextContent) ContentType() string { return "text" }

// UnknownContent is a block of a type this client does not model.
type UnknownContent struct {
	Type string
	Raw  json.RawMessage
}

// ContentType implements Content.
func (u UnknownContent) ContentType() string { return u.Type }

// Message is a role-tagged sequence of content blocks.
type Message struct {
	Role    Role
	Content []Content
}

// Text creates a single-block text message.
func Text(role Role, text string) Message {
	return Message{Role: role, Content: []Content{TextContent{Text: text}}}
}

// Texts returns the text blocks of the message in order.
func (m Message) Texts() []string {
	var out []string
	for _, c := range m.Content {
		if t, ok := c.(TextContent); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

type wireContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wireMessage struct {
	Role    Role              `json:"role"`
	Content []json.RawMessage `json:"content"`
}

// MarshalJSON encodes the message in wire form. Unknown blocks are sent back verbatim.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{Role: m.Role, Content: make([]json.RawMessage, 0, len(m.Content))}
	for _, c := range m.Content {
		switch v := c.(type) {
		case TextContent:
			b, err := json.Marshal(wireContent{Type: "text", Text: v.Text})
			if err != nil {
				return nil, err
			}
			w.Content = append(w.Content, b)
		case UnknownContent:
			w.Content = append(w.Content, v.Raw)
		default:
			return nil, fmt.Errorf("unsupported content %T", c)
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire message.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Role = w.Role
	m.Content = make([]Content, 0, len(w.Content))
	for _, raw := range w.Content {
		var c wireContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("decode content: %w", err)
		}
		if c.Type == "text" {
			m.Content = append(m.Content, TextContent{Text: c.Text})
			continue
		}
		m.Content = append(m.Content, UnknownContent{Type: c.Type, Raw: raw})
	}
	return nil
}

// Conversation threads messages across agentic retrievals.
// Instructions are prepended once. A question joins the thread only when
// Record commits it together with the answer, so a failed retrieval leaves
// the thread unchanged. Not safe for concurrent use.
type Conversation struct {
	messages []Message
}

// NewConversation starts a conversation, optionally with system instructions.
func NewConversation(instructions string) *Conversation {
	c := &Conversation{}
	if instructions != "" {
		c.messages = append(c.messages, Text(RoleSystem, instructions))
	}
	return c
}

// Ask returns the messages to send for question: the thread so far plus
// the question as a user message. The thread itself is not modified.
func (c *Conversation) Ask(question string) []Message {
	return append(c.Messages(), Text(RoleUser, question))
}

// Record commits question and the assistant messages of its response.
func (c *Conversation) Record(question string, resp RetrievalResponse) {
	c.messages = append(c.messages, Text(RoleUser, question))
	for _, m := range resp.Messages {
		if len(m.Texts()) == 0 {
			continue
		}
		if m.Role == "" {
			m.Role = RoleAssistant
		}
		c.messages = append(c.messages, m)
	}
}

// Messages returns a copy of the thread.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}
