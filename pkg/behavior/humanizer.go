package behavior

import (
	"context"
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// LengthClass is the target verbosity for an agent reply.
type LengthClass string

const (
	LengthShort  LengthClass = "short"
	LengthMedium LengthClass = "medium"
	LengthLong   LengthClass = "long"
)

// WordRange returns the suggested reply word count bounds for the class.
func (l LengthClass) WordRange() (min, max int) {
	switch l {
	case LengthShort:
		return 4, 8
	case LengthLong:
		return 15, 25
	default:
		return 8, 15
	}
}

// Typing simulation parameters.
const (
	baseLatencyMin = 0.8
	baseLatencyMax = 2.0
	charDelayMin   = 0.05
	charDelayMax   = 0.09
	minDelay       = 0.5
	maxDelay       = 5.0

	typoProbability = 0.03
	typoWordBudget  = 25 // at most one typo per this many words
	typoMinWords    = 8  // replies shorter than this stay clean
)

// typoMap holds plausible misspellings for words a distracted victim would
// fumble. Substitutions preserve leading case and trailing punctuation.
var typoMap = map[string]string{
	"please":      "plese",
	"account":     "acount",
	"verify":      "verfiy",
	"transfer":    "tranfer",
	"payment":     "payemnt",
	"immediately": "immediatly",
	"receive":     "recieve",
	"message":     "mesage",
	"number":      "numbr",
	"problem":     "problm",
}

// Humanizer shapes agent replies so they read as human-typed: length class
// selection, occasional typos, and a simulated typing delay. The randomness
// source is injected so tests can pin the outcome. Not safe for concurrent
// use; the owning engine serializes access.
type Humanizer struct {
	rng       *rand.Rand
	lastDelay float64
}

// NewHumanizer builds a humanizer over the given randomness source.
func NewHumanizer(rng *rand.Rand) *Humanizer {
	return &Humanizer{rng: rng}
}

// ChooseReplyLength picks the reply verbosity: 25% short, 50% medium,
// 25% long, independent of content.
func (h *Humanizer) ChooseReplyLength() LengthClass {
	r := h.rng.Float64()
	switch {
	case r < 0.25:
		return LengthShort
	case r < 0.75:
		return LengthMedium
	default:
		return LengthLong
	}
}

// ApplyTypos substitutes at most one typo per ~25 words, each eligible word
// with 3% probability. Short replies are returned untouched.
func (h *Humanizer) ApplyTypos(text string) string {
	words := strings.Fields(text)
	if len(words) < typoMinWords {
		return text
	}

	maxTypos := len(words) / typoWordBudget
	if maxTypos < 1 {
		maxTypos = 1
	}
	applied := 0

	out := make([]string, len(words))
	for i, word := range words {
		bare := strings.ToLower(strings.TrimRight(word, ".,!?"))

		replacement, known := typoMap[bare]
		if !known || applied >= maxTypos || h.rng.Float64() >= typoProbability {
			out[i] = word
			continue
		}

		if first := []rune(word); len(first) > 0 && unicode.IsUpper(first[0]) {
			r := []rune(replacement)
			r[0] = unicode.ToUpper(r[0])
			replacement = string(r)
		}
		if last := word[len(word)-1]; strings.ContainsRune(".,!?", rune(last)) {
			replacement += string(last)
		}

		out[i] = replacement
		applied++
	}

	return strings.Join(out, " ")
}

// CalculateDelay returns a plausible typing delay in seconds for the reply:
// base thinking time plus per-character typing time plus jitter, clamped to
// [0.5, 5.0]. Computing never blocks; suspension is the caller's choice via
// Wait.
func (h *Humanizer) CalculateDelay(reply string) float64 {
	base := h.uniform(baseLatencyMin, baseLatencyMax)
	typing := float64(len(reply)) * h.uniform(charDelayMin, charDelayMax)
	jitter := h.uniform(-0.2, 0.3)

	delay := base + typing + jitter
	if delay < minDelay {
		delay = minDelay
	}
	if delay > maxDelay {
		delay = maxDelay
	}

	h.lastDelay = delay
	return delay
}

// LastDelay returns the most recently computed delay.
func (h *Humanizer) LastDelay() float64 {
	return h.lastDelay
}

// Wait suspends for the given delay, honoring context cancellation. This is
// the optional blocking mode; serving paths that only need the metric call
// CalculateDelay alone.
func Wait(ctx context.Context, delaySeconds float64) error {
	timer := time.NewTimer(time.Duration(delaySeconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Humanizer) uniform(lo, hi float64) float64 {
	return lo + h.rng.Float64()*(hi-lo)
}
