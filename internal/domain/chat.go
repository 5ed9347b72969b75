package domain

import "time"

// ChatMessage is append-only; a message is never mutated after creation
// and the log is cleared only when the room is left.
type ChatMessage struct {
	ID          string
	SenderID    ParticipantID
	SenderName  string
	Text        string
	SentAt      time.Time
	IsLocalEcho bool
}
