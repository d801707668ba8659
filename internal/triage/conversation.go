package triage

import (
	"sync"
	"time"
)

// Conversations holds one message history per session token. Each session
// starts from the fixed system prompt; histories from different sessions
// never interleave.
type Conversations struct {
	mu       sync.Mutex
	sessions map[string][]Message
}

// NewConversations constructs an empty conversation store.
func NewConversations() *Conversations {
	return &Conversations{sessions: make(map[string][]Message)}
}

// History returns a copy of the ordered message history for the session,
// seeding it with the system prompt on first use.
func (c *Conversations) History(token string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := c.ensureLocked(token)
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Append adds a message to the end of the session's history.
func (c *Conversations) Append(token string, m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[token] = append(c.ensureLocked(token), m)
}

// Reset truncates the session's history back to the single system message.
func (c *Conversations) Reset(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[token] = seedHistory()
}

// Remove drops the session's history entirely, e.g. on logout.
func (c *Conversations) Remove(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, token)
}

// Len reports the number of messages in the session's history without
// seeding it.
func (c *Conversations) Len(token string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions[token])
}

func (c *Conversations) ensureLocked(token string) []Message {
	history, ok := c.sessions[token]
	if !ok {
		history = seedHistory()
		c.sessions[token] = history
	}
	return history
}

func seedHistory() []Message {
	return []Message{{Role: RoleSystem, Content: SystemPrompt, Timestamp: time.Now()}}
}
