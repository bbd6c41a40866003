// Package callback delivers the final result of a completed honeypot
// session to the external evaluation endpoint.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/TrapWireAI/trapwire/pkg/httputil"
	"github.com/TrapWireAI/trapwire/pkg/intel"
	"github.com/TrapWireAI/trapwire/pkg/session"
)

// Payload is the wire format the evaluation endpoint expects.
type Payload struct {
	SessionID              string            `json:"sessionId"`
	ScamDetected           bool              `json:"scamDetected"`
	TotalMessagesExchanged int               `json:"totalMessagesExchanged"`
	ExtractedIntelligence  IntelligenceLists `json:"extractedIntelligence"`
	AgentNotes             []string          `json:"agentNotes"`
}

// IntelligenceLists is the flattened per-category view of a session's
// intelligence set.
type IntelligenceLists struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	EmailAddresses     []string `json:"emailAddresses"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// BuildPayload flattens a completed session into the callback wire format.
func BuildPayload(state *session.State) Payload {
	total := state.MessageCount
	for _, m := range state.Messages {
		if m.Sender == session.SenderAgent {
			total++
		}
	}
	notes := state.AgentNotes
	if notes == nil {
		notes = []string{}
	}
	return Payload{
		SessionID:              state.SessionID,
		ScamDetected:           state.ScamDetected,
		TotalMessagesExchanged: total,
		ExtractedIntelligence: IntelligenceLists{
			BankAccounts:       orEmpty(state.Intelligence.Values(intel.CategoryBankAccount)),
			UPIIDs:             orEmpty(state.Intelligence.Values(intel.CategoryUPI)),
			PhishingLinks:      orEmpty(state.Intelligence.Values(intel.CategoryLink)),
			PhoneNumbers:       orEmpty(state.Intelligence.Values(intel.CategoryPhone)),
			EmailAddresses:     orEmpty(state.Intelligence.Values(intel.CategoryEmail)),
			SuspiciousKeywords: orEmpty(state.Intelligence.Values(intel.CategoryKeyword)),
		},
		AgentNotes: notes,
	}
}

func orEmpty(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}

// Sender posts final results with bounded concurrency and a small retry
// budget. Delivery failures are logged, never surfaced to the serving path.
type Sender struct {
	url        string
	client     *http.Client
	sem        *httputil.Semaphore
	maxRetries int
	retryWait  time.Duration
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *Sender) { s.client = c }
}

// WithRetries sets the retry budget and backoff base.
func WithRetries(n int, wait time.Duration) SenderOption {
	return func(s *Sender) {
		s.maxRetries = n
		s.retryWait = wait
	}
}

// NewSender builds a sender for the given endpoint URL. An empty URL
// disables delivery; Send becomes a no-op.
func NewSender(url string, opts ...SenderOption) *Sender {
	s := &Sender{
		url:        url,
		client:     httputil.CallbackClient(),
		sem:        httputil.NewSemaphore(50),
		maxRetries: 2,
		retryWait:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a callback URL is configured.
func (s *Sender) Enabled() bool {
	return s.url != ""
}

// Send delivers the final result synchronously, retrying transient
// failures.
func (s *Sender) Send(ctx context.Context, state *session.State) error {
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(BuildPayload(state))
	if err != nil {
		return fmt.Errorf("failed to encode callback payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.retryWait * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = s.post(ctx, body)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("callback delivery failed after %d attempts: %w", s.maxRetries+1, lastErr)
}

// SendAsync fires delivery on a background goroutine, bounded by the
// semaphore. At capacity the callback is dropped with a warning rather
// than stalling the serving path.
func (s *Sender) SendAsync(state *session.State) {
	if !s.Enabled() {
		return
	}
	if !s.sem.TryAcquire() {
		log.Printf("[WARN] Callback for session %s dropped, dispatcher at capacity", state.SessionID)
		return
	}

	go func() {
		defer s.sem.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.Send(ctx, state); err != nil {
			log.Printf("[WARN] %v", err)
			return
		}
		log.Printf("✓ Final result delivered for session %s (scam=%t)", state.SessionID, state.ScamDetected)
	}()
}

func (s *Sender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer httputil.DrainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	}
	return fmt.Errorf("callback endpoint returned %d", resp.StatusCode)
}
