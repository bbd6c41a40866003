package behavior

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/TrapWireAI/trapwire/pkg/detect"
)

func TestIntentFirstTurnPassthrough(t *testing.T) {
	var tr IntentTracker

	// score 5.0 normalizes to 0.5; no boosts, no prior to smooth against.
	got := tr.Update(5.0, 0, false, false, false, false)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("first turn confidence = %.3f, want 0.5", got)
	}
}

func TestIntentSmoothing(t *testing.T) {
	var tr IntentTracker

	first := tr.Update(10.0, 0, false, false, false, false) // 1.0
	second := tr.Update(0.0, 0, false, false, false, false) // blend toward 0

	want := (1-intentAlpha)*first + intentAlpha*0.0
	if math.Abs(second-want) > 1e-9 {
		t.Errorf("smoothed confidence = %.3f, want %.3f", second, want)
	}
	if second >= first {
		t.Error("confidence failed to decay toward calmer evidence")
	}
}

func TestIntentBoostsClamped(t *testing.T) {
	var tr IntentTracker

	got := tr.Update(9.0, 20, true, true, true, true)
	if got > 1.0 {
		t.Errorf("confidence %.3f exceeds 1.0", got)
	}
	if got != 1.0 {
		t.Errorf("saturated signals should clamp to 1.0, got %.3f", got)
	}
}

func TestEscalationFirstMessageBaseline(t *testing.T) {
	var e EscalationAnalyzer

	// "share the otp" is Critical(3); first message measures against the
	// Greeting(0) baseline.
	rate := e.Analyze("please share the otp")
	if rate != 3 {
		t.Errorf("first-message rate = %d, want 3", rate)
	}
	if e.Level() != LevelCritical {
		t.Errorf("level = %d, want critical", e.Level())
	}
}

func TestEscalationSignedDelta(t *testing.T) {
	var e EscalationAnalyzer

	e.Analyze("hello sir good morning")                        // greeting (0)
	if rate := e.Analyze("confirm your name please"); rate != 1 { // info
		t.Errorf("greeting->info rate = %d, want 1", rate)
	}
	if rate := e.Analyze("police will arrest you"); rate != 3 { // threat
		t.Errorf("info->threat rate = %d, want 3", rate)
	}
	if rate := e.Analyze("ok have a nice day"); rate != -4 { // back to greeting
		t.Errorf("threat->greeting rate = %d, want -4", rate)
	}
}

func TestEscalationPriorityOrder(t *testing.T) {
	var e EscalationAnalyzer

	// Threat terms outrank the critical/sensitive terms in the same text.
	e.Analyze("pay the money to your bank account or police will arrest you")
	if e.Level() != LevelThreat {
		t.Errorf("mixed message level = %d, want threat", e.Level())
	}
}

func TestAggressionSlopeBaseline(t *testing.T) {
	var a AggressionAnalyzer

	if a.Slope() != 0.0 {
		t.Error("slope with 0 samples must be 0")
	}
	a.Analyze("hello")
	if a.Slope() != 0.0 {
		t.Error("slope with 1 sample must be 0")
	}
}

func TestAggressionSlopeLinearRamp(t *testing.T) {
	a := &AggressionAnalyzer{}

	// Synthetic strictly increasing scores [0,1,2,3,4]: one urgency word
	// adds exactly 1, two exclamation marks add exactly 1.
	msgs := []string{
		"hello",             // 0
		"hurry",             // 1
		"hurry fast",        // 2
		"hurry fast now",    // 3
		"hurry fast now!!",  // 4
	}
	for _, m := range msgs {
		a.Analyze(m)
	}

	slope := a.Slope()
	if math.Abs(slope-1.0) > 1e-9 {
		t.Errorf("slope = %.3f, want 1.0", slope)
	}
}

func TestAggressionIndicators(t *testing.T) {
	var a AggressionAnalyzer

	// 1 urgency + 2x1 threat + 1 caps + 1.5 exclamations.
	got := a.Analyze("PAY NOW OR POLICE!!!")
	want := 1.0 + 2.0 + 1.0 + 1.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("aggression score = %.2f, want %.2f", got, want)
	}
}

func TestAggressionRepeatedDemands(t *testing.T) {
	var a AggressionAnalyzer

	// "send" repeated 3 times: repeats capped at 2, worth 0.5 each.
	got := a.Analyze("send send send the details")
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("repeated-word score = %.2f, want 1.0", got)
	}
}

func TestHumanizerTypoDeterministic(t *testing.T) {
	text := "please verify your account and transfer the payment immediately " +
		"please verify your account and transfer the payment immediately " +
		"please verify your account and transfer the payment immediately"

	shape := func(seed int64) string {
		h := NewHumanizer(rand.New(rand.NewSource(seed)))
		return h.ApplyTypos(text)
	}

	if shape(7) != shape(7) {
		t.Error("same seed produced different typo output")
	}
}

func TestHumanizerTypoBudget(t *testing.T) {
	// 100 eligible words; budget allows at most 100/25 = 4 typos.
	words := make([]string, 100)
	for i := range words {
		words[i] = "please"
	}
	text := strings.Join(words, " ")

	h := NewHumanizer(rand.New(rand.NewSource(1)))
	out := h.ApplyTypos(text)

	typos := strings.Count(out, "plese")
	if typos > 4 {
		t.Errorf("%d typos applied, budget is 4", typos)
	}
}

func TestHumanizerShortReplyUntouched(t *testing.T) {
	h := NewHumanizer(rand.New(rand.NewSource(1)))
	text := "please verify the account"
	if got := h.ApplyTypos(text); got != text {
		t.Errorf("short reply modified: %q", got)
	}
}

func TestHumanizerTypoPreservesCaseAndPunctuation(t *testing.T) {
	// Force every eligible word to misspell.
	h := NewHumanizer(rand.New(rand.NewSource(1)))
	found := false
	for i := 0; i < 2000 && !found; i++ {
		out := h.ApplyTypos("Please send it to my account, the payment is stuck somewhere today friend")
		if strings.Contains(out, "Plese") {
			found = true
		}
		if strings.Contains(out, "acount") && !strings.Contains(out, "acount,") {
			t.Fatalf("typo dropped trailing punctuation: %q", out)
		}
	}
	if !found {
		t.Error("capitalized typo never produced across trials")
	}
}

func TestHumanizerDelayClamped(t *testing.T) {
	h := NewHumanizer(rand.New(rand.NewSource(42)))

	for i := 0; i < 100; i++ {
		short := h.CalculateDelay("ok")
		if short < 0.5 || short > 5.0 {
			t.Fatalf("delay %.2f outside [0.5, 5.0]", short)
		}
		long := h.CalculateDelay(strings.Repeat("a very long reply ", 50))
		if long != 5.0 {
			t.Fatalf("long reply delay %.2f, want clamp at 5.0", long)
		}
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, 3.0); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	start := time.Now()
	if err := Wait(context.Background(), 0.01); err != nil {
		t.Errorf("wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("short wait took too long")
	}
}

func TestEngineObserveAndShape(t *testing.T) {
	reg := NewRegistry(WithSeed(99))
	e := reg.GetOrCreate("s1")

	a := detect.Default().Score(context.Background(), "share the otp now or police will arrest you", nil)
	snap := e.Observe("share the otp now or police will arrest you", a)

	if snap.IntentConfidence <= 0 || snap.IntentConfidence > 1 {
		t.Errorf("intent confidence out of range: %.3f", snap.IntentConfidence)
	}
	if snap.EscalationRate != int(LevelThreat) {
		t.Errorf("first-turn escalation rate = %d, want %d", snap.EscalationRate, LevelThreat)
	}
	if snap.ReplyLengthClass == "" {
		t.Error("missing reply length class")
	}

	shaped, delay := e.ShapeReply("sir I am not understanding this, please tell me what to do here")
	if shaped == "" {
		t.Error("empty shaped reply")
	}
	if delay < 0.5 || delay > 5.0 {
		t.Errorf("delay %.2f outside clamp", delay)
	}
	if got := e.Snapshot().SimulatedDelaySeconds; got != delay {
		t.Errorf("snapshot delay %.2f != computed %.2f", got, delay)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(WithSeed(1))

	if _, err := reg.Get("missing"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("err = %v, want ErrUnknownSession", err)
	}

	e := reg.GetOrCreate("s1")
	if again := reg.GetOrCreate("s1"); again != e {
		t.Error("GetOrCreate returned a different engine for same session")
	}
	if got, err := reg.Get("s1"); err != nil || got != e {
		t.Errorf("Get = %v, %v", got, err)
	}
	if reg.Len() != 1 {
		t.Errorf("len = %d, want 1", reg.Len())
	}

	reg.Remove("s1")
	if _, err := reg.Get("s1"); !errors.Is(err, ErrUnknownSession) {
		t.Error("removed engine still reachable")
	}
}
