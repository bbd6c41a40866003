package behavior

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/TrapWireAI/trapwire/pkg/detect"
)

// ErrUnknownSession is returned when metrics are requested for a session
// that was never registered. That is a lifecycle bug in the caller.
var ErrUnknownSession = fmt.Errorf("unknown behavior session")

// Snapshot is the published per-turn metrics bundle. Recomputed every
// adversary turn; history lives only inside the trackers.
type Snapshot struct {
	IntentConfidence      float64     `json:"intent_confidence"`
	EscalationRate        int         `json:"escalation_rate"`
	AggressionSlope       float64     `json:"aggression_slope"`
	ReplyLengthClass      LengthClass `json:"reply_length_class"`
	SimulatedDelaySeconds float64     `json:"simulated_delay_seconds"`
}

// Engine bundles the four trackers for one session. Observe consumes each
// adversary message; ShapeReply humanizes the agent's outgoing text.
// Safe for concurrent use; updates are serialized internally.
type Engine struct {
	mu         sync.Mutex
	intent     *IntentTracker
	escalation *EscalationAnalyzer
	aggression *AggressionAnalyzer
	humanizer  *Humanizer
	last       Snapshot
}

func newEngine(rng *rand.Rand) *Engine {
	return &Engine{
		intent:     &IntentTracker{},
		escalation: &EscalationAnalyzer{},
		aggression: &AggressionAnalyzer{},
		humanizer:  NewHumanizer(rng),
		last:       Snapshot{ReplyLengthClass: LengthMedium},
	}
}

// Observe updates the trackers with one adversary message and its risk
// assessment, and returns the refreshed snapshot. Defender replies must
// never be passed here.
func (e *Engine) Observe(message string, assessment detect.Assessment) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	lower := strings.ToLower(message)
	hasOTP := strings.Contains(lower, "otp") || strings.Contains(lower, "code") || strings.Contains(lower, "pin")
	hasUPI := strings.Contains(lower, "upi") || strings.Contains(lower, "@")
	hasThreat := containsAny(lower, "police", "arrest", "block", "suspend")
	hasUrgency := containsAny(lower, "urgent", "immediately", "now", "fast")

	confidence := e.intent.Update(
		assessment.TotalScore, len(assessment.Signals),
		hasOTP, hasUPI, hasThreat, hasUrgency,
	)
	rate := e.escalation.Analyze(message)
	e.aggression.Analyze(message)

	e.last = Snapshot{
		IntentConfidence:      confidence,
		EscalationRate:        rate,
		AggressionSlope:       e.aggression.Slope(),
		ReplyLengthClass:      e.humanizer.ChooseReplyLength(),
		SimulatedDelaySeconds: e.last.SimulatedDelaySeconds,
	}
	return e.last
}

// ShapeReply humanizes the agent's reply text and computes (without
// sleeping) the simulated typing delay for it.
func (e *Engine) ShapeReply(reply string) (string, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	shaped := e.humanizer.ApplyTypos(reply)
	delay := e.humanizer.CalculateDelay(shaped)
	e.last.SimulatedDelaySeconds = delay
	return shaped, delay
}

// Snapshot returns the metrics published by the most recent Observe.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Reset clears all trackers for conversation reuse.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intent.Reset()
	e.escalation.Reset()
	e.aggression.Reset()
	e.last = Snapshot{ReplyLengthClass: LengthMedium}
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Registry keys engines per session. Behavioral state is kept separate from
// classification state so tracking survives for sessions not (yet) flagged.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*Engine
	seed    func() int64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSeed pins the randomness source fed to new engines, for deterministic
// tests.
func WithSeed(seed int64) RegistryOption {
	return func(r *Registry) {
		next := seed
		r.seed = func() int64 {
			next++
			return next
		}
	}
}

// NewRegistry creates an empty engine registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		engines: make(map[string]*Engine),
		seed:    func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the session's engine, creating it on first use.
func (r *Registry) GetOrCreate(sessionID string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[sessionID]; ok {
		return e
	}
	e := newEngine(rand.New(rand.NewSource(r.seed())))
	r.engines[sessionID] = e
	return e
}

// Get returns the session's engine or ErrUnknownSession.
func (r *Registry) Get(sessionID string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.engines[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return e, nil
}

// Remove drops the session's engine when the conversation ends.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, sessionID)
}

// Len reports how many sessions are currently tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}
