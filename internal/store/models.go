package store

import "time"

// Role identifies the author of a message. The set is closed: conversation
// turns belong to either the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultTitle is used when a chat is created without a title.
const DefaultTitle = "New chat"

// Chat is a persistent conversation thread.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// Message is a single turn within a chat. Messages are immutable once
// appended and are only removed when their chat is deleted.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is the sidebar view of a chat: everything but its messages.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Chat) summary() Summary {
	return Summary{ID: c.ID, Title: c.Title, UpdatedAt: c.UpdatedAt}
}
