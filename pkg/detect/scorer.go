// Package detect implements the multi-layer risk scorer for suspected scam
// messages. A message passes through five ordered layers (structural regex,
// weak linguistic signals, contextual co-occurrence rules, semantic template
// similarity, conversation history) whose weighted contributions sum to a
// 0-10 risk score. A protective-advice pre-check short-circuits everything:
// "never share your OTP" is safety advice, not an OTP request.
package detect

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Layer identifies which scoring layer produced a signal.
type Layer string

const (
	LayerSafety     Layer = "safety"
	LayerStructural Layer = "structural"
	LayerLinguistic Layer = "linguistic"
	LayerContextual Layer = "contextual"
	LayerSemantic   Layer = "semantic"
	LayerHistory    Layer = "history"
)

// Signal is one labeled contribution to the risk score. Produced, never
// mutated; the labels feed downstream reporting, not scoring logic.
type Signal struct {
	Layer    Layer   `json:"layer"`
	Label    string  `json:"label"`
	Weight   float64 `json:"weight"`
	Fragment string  `json:"fragment,omitempty"`
}

// Assessment is the scorer's result for a single message. Created fresh per
// call and not retained.
type Assessment struct {
	TotalScore   float64           `json:"total_score"`
	Layers       map[Layer]float64 `json:"layers"`
	Signals      []Signal          `json:"signals"`
	IsScam       bool              `json:"is_scam"`
	SafetyAdvice bool              `json:"safety_advice"`
}

// HasSignal reports whether any signal label starts with prefix.
func (a *Assessment) HasSignal(prefix string) bool {
	for _, s := range a.Signals {
		if strings.HasPrefix(s.Label, prefix) {
			return true
		}
	}
	return false
}

// Scorer computes per-message risk assessments. Stateless per call and safe
// for concurrent use; the only shared state is the frozen semantic index.
type Scorer struct {
	urgencyTerms []string
	semantic     *SemanticIndex
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithUrgencyTerms overrides the linguistic-layer vocabulary.
func WithUrgencyTerms(terms []string) Option {
	return func(s *Scorer) {
		if len(terms) > 0 {
			s.urgencyTerms = terms
		}
	}
}

// WithSemanticIndex overrides the semantic layer's template index. Passing
// nil disables the layer.
func WithSemanticIndex(si *SemanticIndex) Option {
	return func(s *Scorer) { s.semantic = si }
}

// NewScorer builds a scorer with the built-in tables, then applies seed-file
// overrides (if a seed dir is found) and finally any explicit options.
// Semantic index construction failure degrades that layer and is reported
// once on stderr, mirroring how the other optional layers come up.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{urgencyTerms: defaultUrgencyTerms}

	templates := defaultTemplates
	if dir := FindSeedDir(); dir != "" {
		seeds, err := LoadSeeds(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to load seed files from %s: %v\n", dir, err)
		} else {
			if len(seeds.UrgencyTerms) > 0 {
				s.urgencyTerms = seeds.UrgencyTerms
			}
			if len(seeds.Templates) > 0 {
				templates = seeds.Templates
			}
		}
	}

	si, err := NewSemanticIndex(templates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Semantic layer disabled: %v\n", err)
	} else {
		s.semantic = si
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score assesses a single message against the optional prior-turn texts.
// It never returns an error: an internal layer failure zeroes that layer's
// contribution and records a diagnostic signal.
func (s *Scorer) Score(ctx context.Context, text string, history []string) Assessment {
	text = NormalizeText(text)
	lower := strings.ToLower(text)

	a := Assessment{
		Layers: map[Layer]float64{
			LayerStructural: 0, LayerLinguistic: 0, LayerContextual: 0,
			LayerSemantic: 0, LayerHistory: 0,
		},
	}

	// Safety-advice override: protective phrasing wins over everything.
	for _, p := range safetyPatterns {
		if loc := p.FindString(lower); loc != "" {
			a.SafetyAdvice = true
			a.Signals = append(a.Signals, Signal{
				Layer:    LayerSafety,
				Label:    "safety_advice",
				Fragment: loc,
			})
			return a
		}
	}

	a.Layers[LayerStructural] = s.scoreStructural(text, lower, &a)
	a.Layers[LayerLinguistic] = s.scoreLinguistic(lower, &a)
	a.Layers[LayerContextual] = s.scoreContextual(lower, &a)
	a.Layers[LayerSemantic] = s.scoreSemantic(ctx, lower, &a)
	a.Layers[LayerHistory] = s.scoreHistory(history, &a)

	total := 0.0
	for _, v := range a.Layers {
		total += v
	}
	if total < 0 {
		total = 0
	}
	if total > MaxScore {
		total = MaxScore
	}
	a.TotalScore = total
	a.IsScam = total >= ScamThreshold
	return a
}

func (s *Scorer) scoreStructural(text, lower string, a *Assessment) float64 {
	score := 0.0

	if m := reURL.FindString(text); m != "" {
		score += weightURL
		a.Signals = append(a.Signals, Signal{LayerStructural, "url_detected", weightURL, m})
	}
	if m := reUPI.FindString(text); m != "" {
		score += weightUPI
		a.Signals = append(a.Signals, Signal{LayerStructural, "upi_detected", weightUPI, m})
	}
	// A long digit run only counts as a bank account when no phone-number
	// shape matches the same text.
	if m := reBankDigit.FindString(text); m != "" && !rePhone.MatchString(text) {
		score += weightBankAccount
		a.Signals = append(a.Signals, Signal{LayerStructural, "bank_account_detected", weightBankAccount, m})
	}

	hasOTPWord := reOTPWord.MatchString(lower)
	hasOTPDigits := reOTPDigits.MatchString(text)
	if hasOTPWord || (hasOTPDigits && strings.Contains(lower, "otp")) {
		score += weightOTP
		a.Signals = append(a.Signals, Signal{Layer: LayerStructural, Label: "otp_request_detected", Weight: weightOTP})
	}

	return score
}

func (s *Scorer) scoreLinguistic(lower string, a *Assessment) float64 {
	score := 0.0
	hits := 0
	for _, term := range s.urgencyTerms {
		if strings.Contains(lower, term) {
			score += weightLinguistic
			hits++
			if hits <= 3 { // only label the first few
				a.Signals = append(a.Signals, Signal{LayerLinguistic, term, weightLinguistic, ""})
			}
		}
	}
	if score > maxLinguisticScore {
		score = maxLinguisticScore
	}
	return score
}

func (s *Scorer) scoreContextual(lower string, a *Assessment) float64 {
	score := 0.0
	for _, rule := range contextRules {
		if strings.Contains(lower, rule.verb) && strings.Contains(lower, rule.object) {
			score += weightContextRule
			a.Signals = append(a.Signals, Signal{
				Layer:  LayerContextual,
				Label:  rule.verb + "+" + rule.object,
				Weight: weightContextRule,
			})
		}
	}
	return score
}

func (s *Scorer) scoreSemantic(ctx context.Context, lower string, a *Assessment) float64 {
	if s.semantic == nil || strings.TrimSpace(lower) == "" {
		return 0
	}

	match, err := s.semantic.Query(ctx, lower)
	if err != nil {
		// Degraded layer: zero contribution plus a diagnostic signal.
		a.Signals = append(a.Signals, Signal{Layer: LayerSemantic, Label: "semantic_error", Fragment: err.Error()})
		return 0
	}
	if match == nil || match.Similarity <= s.semantic.Threshold() {
		return 0
	}

	a.Signals = append(a.Signals, Signal{
		Layer:    LayerSemantic,
		Label:    fmt.Sprintf("template_match(%.2f)", match.Similarity),
		Weight:   weightSemantic,
		Fragment: match.Template,
	})
	return weightSemantic
}

func (s *Scorer) scoreHistory(history []string, a *Assessment) float64 {
	if len(history) == 0 {
		return 0
	}

	score := 0.0
	suspicious := 0
	for _, msg := range history {
		lower := strings.ToLower(msg)
		for _, term := range historySuspectTerms {
			if strings.Contains(lower, term) {
				suspicious++
				break
			}
		}
	}
	if suspicious > 0 {
		boost := float64(suspicious) * weightHistoryHit
		if boost > maxHistoryScore {
			boost = maxHistoryScore
		}
		score += boost
		a.Signals = append(a.Signals, Signal{
			Layer:  LayerHistory,
			Label:  fmt.Sprintf("suspicious_context_x%d", suspicious),
			Weight: boost,
		})
	}
	if len(history) > persistenceMinTurns {
		score += persistenceBonus
		a.Signals = append(a.Signals, Signal{Layer: LayerHistory, Label: "persistence", Weight: persistenceBonus})
	}
	return score
}

// defaultScorer backs the package-level Score convenience used by callers
// that don't manage their own instance.
var (
	defaultScorer     *Scorer
	defaultScorerOnce sync.Once
)

// Default returns the shared scorer, constructing it on first use.
func Default() *Scorer {
	defaultScorerOnce.Do(func() {
		defaultScorer = NewScorer()
	})
	return defaultScorer
}
