package triage

import (
	"time"

	"github.com/google/uuid"
)

// Level is the semantic urgency assigned to a patient interaction.
type Level string

const (
	LevelRed     Level = "Red"    // Critical
	LevelOrange  Level = "Orange" // Urgent
	LevelYellow  Level = "Yellow" // Mild
	LevelGreen   Level = "Green"  // Non-Urgent
	LevelUnknown Level = "Unknown"
)

// Message is a single turn of a triage conversation.
type Message struct {
	Role      string    `json:"role"` // "system", "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Result is the structured outcome extracted from an assistant reply.
// Advice may be empty while the conversation is still in a
// clarifying-questions phase.
type Result struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Patient   string    `json:"patient" db:"patient"`
	Issue     string    `json:"issue" db:"issue"`
	Level     Level     `json:"triage" db:"level"`
	Advice    string    `json:"advice,omitempty" db:"advice"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
