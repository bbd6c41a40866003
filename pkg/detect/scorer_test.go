package detect

import (
	"context"
	"strings"
	"testing"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	si, err := NewSemanticIndex(nil)
	if err != nil {
		t.Fatalf("semantic index: %v", err)
	}
	return &Scorer{urgencyTerms: defaultUrgencyTerms, semantic: si}
}

func TestSafetyAdviceOverride(t *testing.T) {
	s := newTestScorer(t)
	ctx := context.Background()

	cases := []string{
		"Please never share your OTP with anyone calling from the bank",
		"Do not share OTP with strangers",
		"Don't click unknown links, do not click any link from SMS",
		"Beware of scam calls asking for your PIN",
		"Your bank never asks for passwords. Stay safe!",
	}
	for _, text := range cases {
		t.Run(text[:20], func(t *testing.T) {
			a := s.Score(ctx, text, nil)
			if a.IsScam {
				t.Errorf("safety advice classified as scam: %q", text)
			}
			if a.TotalScore != 0 {
				t.Errorf("safety advice scored %.2f, want 0", a.TotalScore)
			}
			if !a.SafetyAdvice {
				t.Error("SafetyAdvice flag not set")
			}
			if len(a.Signals) != 1 || a.Signals[0].Label != "safety_advice" {
				t.Errorf("expected single advice signal, got %v", a.Signals)
			}
		})
	}
}

func TestObviousScamMessage(t *testing.T) {
	s := newTestScorer(t)
	text := "URGENT: Your account will be BLOCKED today. Verify immediately. Call 9876543210, send to user@ybl"

	a := s.Score(context.Background(), text, nil)
	if !a.IsScam {
		t.Errorf("expected scam classification, score %.2f", a.TotalScore)
	}
	if a.TotalScore < ScamThreshold {
		t.Errorf("expected total >= %.1f, got %.2f", ScamThreshold, a.TotalScore)
	}
	if !a.HasSignal("upi_detected") {
		t.Error("expected UPI structural signal")
	}
}

func TestBenignMessage(t *testing.T) {
	s := newTestScorer(t)
	a := s.Score(context.Background(), "Hi, are we still meeting for lunch tomorrow?", nil)
	if a.IsScam {
		t.Errorf("benign message classified as scam, score %.2f", a.TotalScore)
	}
}

func TestBankAccountRequiresNoPhone(t *testing.T) {
	s := newTestScorer(t)
	ctx := context.Background()

	// 12-digit run and no phone shape: bank layer fires.
	a := s.Score(ctx, "deposit into 123456789012", nil)
	if a.Layers[LayerStructural] < weightBankAccount {
		t.Errorf("expected bank account signal, layers %v", a.Layers)
	}

	// 10 digits starting 9 is a phone: bank layer must not fire.
	a = s.Score(ctx, "call me on 9876543210", nil)
	if a.HasSignal("bank_account_detected") {
		t.Error("phone number triggered bank account signal")
	}
}

func TestLinguisticLayerCapped(t *testing.T) {
	s := newTestScorer(t)
	// Six urgency terms; raw sum would be 3.0 but the layer caps at 2.0.
	a := s.Score(context.Background(), "urgent immediately verify blocked suspended expire", nil)
	if a.Layers[LayerLinguistic] != maxLinguisticScore {
		t.Errorf("linguistic layer = %.2f, want capped %.1f", a.Layers[LayerLinguistic], maxLinguisticScore)
	}
}

func TestContextualPairs(t *testing.T) {
	s := newTestScorer(t)
	a := s.Score(context.Background(), "please share the otp to continue", nil)
	if a.Layers[LayerContextual] < weightContextRule {
		t.Errorf("expected share+otp rule, layers %v", a.Layers)
	}
	if !a.HasSignal("share+otp") {
		t.Error("missing share+otp signal label")
	}
}

func TestSemanticTemplateMatch(t *testing.T) {
	s := newTestScorer(t)
	// Near-verbatim template text must clear the 0.6 similarity cutoff.
	a := s.Score(context.Background(), "your account will be blocked", nil)
	if a.Layers[LayerSemantic] != weightSemantic {
		t.Errorf("semantic layer = %.2f, want %.1f", a.Layers[LayerSemantic], weightSemantic)
	}
	found := false
	for _, sig := range a.Signals {
		if sig.Layer == LayerSemantic && strings.HasPrefix(sig.Label, "template_match") {
			found = true
			if sig.Fragment == "" {
				t.Error("template match signal missing matched template")
			}
		}
	}
	if !found {
		t.Error("missing template_match signal")
	}
}

func TestSemanticLayerSkipsEmptyText(t *testing.T) {
	s := newTestScorer(t)
	a := s.Score(context.Background(), "   ", nil)
	if a.Layers[LayerSemantic] != 0 {
		t.Errorf("empty text semantic score = %.2f, want 0", a.Layers[LayerSemantic])
	}
}

func TestSemanticLayerDisabled(t *testing.T) {
	s := &Scorer{urgencyTerms: defaultUrgencyTerms}
	a := s.Score(context.Background(), "your account will be blocked", nil)
	if a.Layers[LayerSemantic] != 0 {
		t.Error("disabled semantic layer contributed to score")
	}
	// Other layers still work.
	if a.Layers[LayerLinguistic] == 0 {
		t.Error("linguistic layer lost when semantic disabled")
	}
}

func TestHistoryLayer(t *testing.T) {
	s := newTestScorer(t)
	ctx := context.Background()

	a := s.Score(ctx, "ok", []string{"share your bank details", "send the otp now"})
	if a.Layers[LayerHistory] != 2*weightHistoryHit {
		t.Errorf("history layer = %.2f, want %.1f", a.Layers[LayerHistory], 2*weightHistoryHit)
	}

	// More than 3 prior turns adds the persistence bonus, and the suspicious
	// count caps at 3.0.
	hist := []string{"bank", "otp", "money", "link", "details"}
	a = s.Score(ctx, "ok", hist)
	want := maxHistoryScore + persistenceBonus
	if a.Layers[LayerHistory] != want {
		t.Errorf("history layer = %.2f, want %.2f", a.Layers[LayerHistory], want)
	}
}

func TestScoreClamped(t *testing.T) {
	s := newTestScorer(t)
	text := "URGENT share your otp now, send money transfer to account 123456789012, " +
		"verify kyc, click this link http://fraud.xyz/verify to claim prize, pay now " +
		"or account will be blocked"
	a := s.Score(context.Background(), text, []string{"bank", "otp", "money", "link"})
	if a.TotalScore > MaxScore {
		t.Errorf("total %.2f exceeds cap", a.TotalScore)
	}
	if !a.IsScam {
		t.Error("expected scam at max score")
	}
}

func TestScamType(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"you have won a lottery prize", "Prize/Lottery Scam"},
		{"update your kyc or account expires", "KYC/Bank Update Scam"},
		{"share the otp code", "OTP/Phishing Scam"},
		{"police will arrest you", "Intimidation/Legal Scam"},
		{"hello there", "Generic Scam"},
	}
	for _, tc := range cases {
		if got := ScamType(tc.text); got != tc.want {
			t.Errorf("ScamType(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
