// Package behavior models the adversary's trajectory across a conversation:
// intent confidence, demand escalation, tone aggression, and the human-timing
// simulation that shapes how the engagement agent appears to type. All
// computation is pure and CPU-bound; trackers are keyed per session.
package behavior

// intentAlpha is the exponential smoothing factor (weight of the current turn).
const intentAlpha = 0.3

// IntentTracker keeps a rolling estimate of how likely the counterpart is a
// scammer, blending each turn's normalized risk into the prior estimate.
type IntentTracker struct {
	confidence float64
	turns      int
}

// Update folds one turn's signals into the confidence estimate and returns
// the new value in [0, 1]. The first turn passes through unsmoothed since
// there is no prior to blend against.
func (t *IntentTracker) Update(score float64, signalCount int, hasOTP, hasUPI, hasThreat, hasUrgency bool) float64 {
	normalized := score / 10.0

	if hasOTP {
		normalized += 0.2
	}
	if hasThreat {
		normalized += 0.15
	}
	if hasUPI {
		normalized += 0.1
	}
	if hasUrgency {
		normalized += 0.05
	}
	normalized += float64(signalCount) * 0.02
	if normalized > 1.0 {
		normalized = 1.0
	}

	if t.turns == 0 {
		t.confidence = normalized
	} else {
		t.confidence = (1-intentAlpha)*t.confidence + intentAlpha*normalized
	}
	t.turns++

	return t.confidence
}

// Confidence returns the current estimate.
func (t *IntentTracker) Confidence() float64 {
	return t.confidence
}

// Reset clears the tracker for a fresh conversation.
func (t *IntentTracker) Reset() {
	t.confidence = 0
	t.turns = 0
}
