// Package chatlog holds the in-memory conversation shown by the web layer.
package chatlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is an append-only message sequence safe for concurrent handlers.
// Messages are never reordered; Update only replaces content in place.
type Log struct {
	mu       sync.Mutex
	messages []Message
	index    map[string]int
	now      func() time.Time
}

// New returns an empty log.
func New() *Log { return &Log{index: map[string]int{}, now: time.Now} }

// Append stores msg, assigning an ID and timestamp when they are empty, and
// returns the stored copy.
func (l *Log) Append(msg Message) Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.index == nil {
		l.index = map[string]int{}
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		if l.now != nil {
			msg.Timestamp = l.now()
		} else {
			msg.Timestamp = time.Now()
		}
	}
	l.index[msg.ID] = len(l.messages)
	l.messages = append(l.messages, msg)
	return msg
}

// Update replaces the content of the message with the given ID. It reports
// false when no such message exists.
func (l *Log) Update(id, content string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.messages[i].Content = content
	return true
}

// Messages returns a copy of the log in append order.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len reports the number of messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Clear drops every message.
func (l *Log) Clear() {
	l.mu.Lock()
	l.messages = nil
	l.index = map[string]int{}
	l.mu.Unlock()
}
