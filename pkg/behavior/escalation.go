package behavior

import "strings"

// EscalationLevel is the ordinal severity of a message's most sensitive
// request category.
type EscalationLevel int

const (
	LevelGreeting  EscalationLevel = 0
	LevelInfo      EscalationLevel = 1
	LevelSensitive EscalationLevel = 2 // UPI / account / bank details
	LevelCritical  EscalationLevel = 3 // OTP / money / payment
	LevelThreat    EscalationLevel = 4 // police / arrest / legal
)

// Keyword tables per level, checked highest severity first so a message
// mixing categories classifies at its worst.
var (
	threatLevelTerms    = []string{"police", "arrest", "legal", "court", "jail", "case"}
	criticalLevelTerms  = []string{"otp", "code", "pin", "password", "money", "transfer", "pay"}
	sensitiveLevelTerms = []string{"upi", "account", "bank", "number", "ifsc", "@"}
	infoLevelTerms      = []string{"name", "address", "verify", "check", "confirm"}
)

// EscalationAnalyzer measures how fast demands escalate, turn over turn.
type EscalationAnalyzer struct {
	previousLevel EscalationLevel
	currentLevel  EscalationLevel
	history       []EscalationLevel
}

// classifyLevel returns the highest-severity level matched by the message.
func classifyLevel(message string) EscalationLevel {
	msg := strings.ToLower(message)

	contains := func(terms []string) bool {
		for _, t := range terms {
			if strings.Contains(msg, t) {
				return true
			}
		}
		return false
	}

	switch {
	case contains(threatLevelTerms):
		return LevelThreat
	case contains(criticalLevelTerms):
		return LevelCritical
	case contains(sensitiveLevelTerms):
		return LevelSensitive
	case contains(infoLevelTerms):
		return LevelInfo
	}
	return LevelGreeting
}

// Analyze classifies the message and returns the signed level change from
// the immediately preceding turn. The first message is measured against the
// Greeting baseline.
func (e *EscalationAnalyzer) Analyze(message string) int {
	level := classifyLevel(message)

	rate := int(level - e.currentLevel)

	e.previousLevel = e.currentLevel
	e.currentLevel = level
	e.history = append(e.history, level)

	return rate
}

// Rate returns the last published single-turn delta.
func (e *EscalationAnalyzer) Rate() int {
	return int(e.currentLevel - e.previousLevel)
}

// Level returns the current severity classification.
func (e *EscalationAnalyzer) Level() EscalationLevel {
	return e.currentLevel
}

// History returns the observed level sequence, oldest first.
func (e *EscalationAnalyzer) History() []EscalationLevel {
	return append([]EscalationLevel(nil), e.history...)
}

// Reset clears the analyzer for a fresh conversation.
func (e *EscalationAnalyzer) Reset() {
	e.previousLevel = LevelGreeting
	e.currentLevel = LevelGreeting
	e.history = nil
}
