package behavior

import (
	"strings"
	"unicode"
)

// aggressionWindow is how many recent turns feed the slope.
const aggressionWindow = 5

var (
	aggressionUrgencyTerms = []string{"urgent", "immediately", "now", "fast", "quick", "hurry", "asap"}
	aggressionThreatTerms  = []string{"block", "suspend", "arrest", "police", "legal", "freeze", "close"}
)

// AggressionAnalyzer tracks tone aggression over a sliding window of turns
// and publishes its linear trend.
type AggressionAnalyzer struct {
	scores []float64
}

// Analyze scores one message's aggression indicators and records it in the
// window. Urgency words count once, threat words double; shouting, repeated
// demands and exclamation marks add fractional weight.
func (a *AggressionAnalyzer) Analyze(message string) float64 {
	score := 0.0
	lower := strings.ToLower(message)

	for _, w := range aggressionUrgencyTerms {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range aggressionThreatTerms {
		if strings.Contains(lower, w) {
			score += 2
		}
	}

	upper := 0
	for _, r := range message {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	total := len([]rune(message))
	if total == 0 {
		total = 1
	}
	if float64(upper)/float64(total) > 0.4 {
		score++
	}

	score += float64(strings.Count(message, "!")) * 0.5

	words := strings.Fields(lower)
	if len(words) > 2 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		repeated := len(words) - len(unique)
		if repeated > 2 {
			repeated = 2
		}
		score += float64(repeated) * 0.5
	}

	a.scores = append(a.scores, score)
	if len(a.scores) > aggressionWindow {
		a.scores = a.scores[len(a.scores)-aggressionWindow:]
	}

	return score
}

// Slope returns the least-squares linear-regression slope of the windowed
// scores over turn index. Fewer than 2 samples yield 0.
func (a *AggressionAnalyzer) Slope() float64 {
	n := len(a.scores)
	if n < 2 {
		return 0.0
	}

	xMean := float64(n-1) / 2
	yMean := 0.0
	for _, y := range a.scores {
		yMean += y
	}
	yMean /= float64(n)

	var num, den float64
	for i, y := range a.scores {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0.0
	}
	return num / den
}

// Reset clears the window.
func (a *AggressionAnalyzer) Reset() {
	a.scores = nil
}
