// Package session owns per-conversation state: the monotonic scam
// classification, the accumulated intelligence set, and the message log.
// Scoring itself is stateless and lives in pkg/detect; this package applies
// its results under the session lifecycle rules.
package session

import (
	"time"

	"github.com/TrapWireAI/trapwire/pkg/intel"
)

// Sender tags a recorded message's origin.
const (
	SenderScammer = "scammer"
	SenderAgent   = "agent"
)

// Message is one recorded conversation turn. Immutable once appended.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	RiskScore float64   `json:"risk_score"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the authoritative per-conversation record. The classifier is its
// single writer; readers receive deep copies.
type State struct {
	SessionID    string    `json:"session_id"`
	ScamDetected bool      `json:"scam_detected"`
	ScamType     string    `json:"scam_type,omitempty"`
	Confidence   float64   `json:"confidence"`
	CurrentScore float64   `json:"current_score"`
	Messages     []Message `json:"messages"`
	MessageCount int       `json:"message_count"`
	Intelligence intel.Set `json:"intelligence"`
	AgentNotes   []string  `json:"agent_notes,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	Completed    bool      `json:"completed"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// newState initializes an empty session record.
func newState(id string, now time.Time) *State {
	return &State{
		SessionID:    id,
		Intelligence: intel.NewSet(),
		StartedAt:    now,
		LastActivity: now,
	}
}

// Clone returns a deep copy safe to hand to readers while the original
// keeps being mutated under the session lock.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	out.AgentNotes = append([]string(nil), s.AgentNotes...)
	out.Intelligence = intel.Merge(s.Intelligence, intel.NewSet())
	return &out
}

// HistoryTexts returns the texts of the most recent n messages from the
// given sender, oldest first.
func (s *State) HistoryTexts(sender string, n int) []string {
	var texts []string
	for _, m := range s.Messages {
		if m.Sender == sender {
			texts = append(texts, m.Text)
		}
	}
	if len(texts) > n {
		texts = texts[len(texts)-n:]
	}
	return texts
}
