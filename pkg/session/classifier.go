package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/TrapWireAI/trapwire/pkg/detect"
	"github.com/TrapWireAI/trapwire/pkg/intel"
)

// Sentinel errors for caller-contract violations. An update against an
// unknown session is a lifecycle bug upstream, never silently recovered.
var (
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrSessionExists   = fmt.Errorf("session already exists")
)

const (
	// historyRescoreWindow bounds how many prior-turn texts feed the
	// cumulative score. Each is re-scored in isolation, without its own
	// history, to bound cost; scoring the full transcript would
	// double-count nested history effects.
	historyRescoreWindow = 5

	// historyDiscount weights each re-scored prior turn.
	historyDiscount = 0.3

	// maxAgentNotes bounds the retained engagement notes.
	maxAgentNotes = 5

	classifierLockCount = 64
)

// Classifier owns the per-session scam decision. The scam flag is monotonic:
// once a session is flagged it never reverts, and completion freezes the
// record without altering the flag or the intelligence set.
type Classifier struct {
	store  Store
	scorer *detect.Scorer

	maxMessages int
	timeout     time.Duration

	// Striped locks serialize read-modify-write per session so updates to
	// one session apply in arrival order while unrelated sessions proceed
	// in parallel.
	locks [classifierLockCount]sync.Mutex
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithMaxMessages sets the message-count cap that completes a session.
func WithMaxMessages(n int) ClassifierOption {
	return func(c *Classifier) {
		c.maxMessages = n
	}
}

// WithSessionTimeout sets the wall-clock cap since session start.
func WithSessionTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		c.timeout = d
	}
}

// NewClassifier builds a classifier over the given store and scorer.
func NewClassifier(store Store, scorer *detect.Scorer, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		store:       store,
		scorer:      scorer,
		maxMessages: 25,
		timeout:     30 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Classifier) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &c.locks[h.Sum32()%classifierLockCount]
}

// Create registers a new session. Fails with ErrSessionExists when the ID is
// already live.
func (c *Classifier) Create(ctx context.Context, sessionID string) (*State, error) {
	mu := c.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
	}

	state := newState(sessionID, time.Now())
	if err := c.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// GetOrCreate returns the live session or registers a fresh one.
func (c *Classifier) GetOrCreate(ctx context.Context, sessionID string) (*State, error) {
	mu := c.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	state := newState(sessionID, time.Now())
	if err := c.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// Get returns a copy of the session state.
func (c *Classifier) Get(ctx context.Context, sessionID string) (*State, error) {
	state, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return state, nil
}

// Update scores one adversary message and applies the session rules: the
// cumulative score may upgrade the scam flag mid-conversation, the flag
// never downgrades, and extracted intelligence merges as a set union.
// The session must already exist. Completed sessions are returned frozen.
func (c *Classifier) Update(ctx context.Context, sessionID, text string, history []string) (*State, detect.Assessment, error) {
	mu := c.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, detect.Assessment{}, err
	}
	if state == nil {
		return nil, detect.Assessment{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	assessment := c.scorer.Score(ctx, text, history)

	if state.Completed {
		return state, assessment, nil
	}

	// Cumulative score: this message plus a discounted re-score of the
	// most recent prior turns, each taken in isolation.
	cumulative := assessment.TotalScore
	recent := history
	if len(recent) > historyRescoreWindow {
		recent = recent[len(recent)-historyRescoreWindow:]
	}
	for _, h := range recent {
		past := c.scorer.Score(ctx, h, nil)
		cumulative += historyDiscount * past.TotalScore
	}

	wasScam := state.ScamDetected
	state.ScamDetected = assessment.IsScam || state.ScamDetected || cumulative >= detect.ScamThreshold
	state.Confidence = cumulative / 10.0
	if state.Confidence > 1.0 {
		state.Confidence = 1.0
	}
	state.CurrentScore = assessment.TotalScore

	if state.ScamDetected && !wasScam {
		state.ScamType = detect.ScamType(text)
	}

	// Protective advice carries no indicators worth keeping.
	if !assessment.SafetyAdvice {
		state.Intelligence = intel.Merge(state.Intelligence, intel.Extract(text))
	}

	now := time.Now()
	state.Messages = append(state.Messages, Message{
		Sender:    SenderScammer,
		Text:      text,
		RiskScore: assessment.TotalScore,
		Timestamp: now,
	})
	state.MessageCount++
	state.LastActivity = now

	c.maybeComplete(state, now)

	if err := c.store.Save(ctx, state); err != nil {
		return nil, detect.Assessment{}, err
	}
	return state.Clone(), assessment, nil
}

// RecordReply appends the engagement agent's reply and retains it as a note
// so the reply layer can avoid repeating itself.
func (c *Classifier) RecordReply(ctx context.Context, sessionID, text string) (*State, error) {
	mu := c.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if state.Completed {
		return state, nil
	}

	now := time.Now()
	state.Messages = append(state.Messages, Message{
		Sender:    SenderAgent,
		Text:      text,
		Timestamp: now,
	})
	state.AgentNotes = append(state.AgentNotes, text)
	if len(state.AgentNotes) > maxAgentNotes {
		state.AgentNotes = state.AgentNotes[len(state.AgentNotes)-maxAgentNotes:]
	}
	state.LastActivity = now

	if err := c.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// Complete explicitly finishes a session. Idempotent; completion never
// alters the scam flag or the intelligence set.
func (c *Classifier) Complete(ctx context.Context, sessionID string) (*State, error) {
	mu := c.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if state.Completed {
		return state, nil
	}

	state.Completed = true
	state.CompletedAt = time.Now()
	if err := c.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// CompleteExpired marks every session past the wall-clock cap as completed
// and returns them, so the caller can fire final-result callbacks. The sweep
// is best effort; a session updated concurrently is simply picked up on the
// next pass.
func (c *Classifier) CompleteExpired(ctx context.Context) ([]*State, error) {
	var expiredIDs []string
	err := c.store.Each(ctx, func(state *State) error {
		if !state.Completed && time.Since(state.StartedAt) > c.timeout {
			expiredIDs = append(expiredIDs, state.SessionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var completed []*State
	for _, id := range expiredIDs {
		state, err := c.Complete(ctx, id)
		if err != nil {
			continue
		}
		completed = append(completed, state)
	}
	return completed, nil
}

// maybeComplete applies the terminal caps. Caller holds the session lock.
func (c *Classifier) maybeComplete(state *State, now time.Time) {
	if state.Completed {
		return
	}
	if state.MessageCount >= c.maxMessages || now.Sub(state.StartedAt) > c.timeout {
		state.Completed = true
		state.CompletedAt = now
	}
}
