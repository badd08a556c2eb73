package interview

import "time"

// Sender identifies which party produced a message.
type Sender string

const (
	SenderAI   Sender = "ai"
	SenderUser Sender = "user"
)

// Message is one transcript entry. Once appended to a session it is never
// modified, removed or reordered; insertion order equals timestamp order.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one practice interview: the selected role and tech stack, the
// growing transcript and, after the interview ends, the generated feedback.
// The ID is assigned by the transcript store on create and is opaque.
type Session struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	TechStack string    `json:"techStack"`
	Messages  []Message `json:"messages"`
	Feedback  string    `json:"feedback,omitempty"`
}

func newMessage(sender Sender, text string) Message {
	return Message{Sender: sender, Text: text, Timestamp: time.Now()}
}

// cloneMessages returns a copy safe to hand to callers and to persistence
// calls running outside the coordinator lock.
func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Snapshot is a point-in-time copy of a session plus its phase, safe to read
// after the coordinator has moved on.
type Snapshot struct {
	Session Session `json:"session"`
	Phase   Phase   `json:"phase"`
}
