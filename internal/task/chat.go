package task

import "time"

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one stored turn of the assistant conversation.
type ChatMessage struct {
	ID        int64
	Role      string
	Content   string
	Timestamp time.Time
}
