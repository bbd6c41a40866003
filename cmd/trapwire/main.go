package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/TrapWireAI/trapwire/pkg/agent"
	"github.com/TrapWireAI/trapwire/pkg/behavior"
	"github.com/TrapWireAI/trapwire/pkg/callback"
	"github.com/TrapWireAI/trapwire/pkg/config"
	"github.com/TrapWireAI/trapwire/pkg/detect"
	"github.com/TrapWireAI/trapwire/pkg/intel"
	"github.com/TrapWireAI/trapwire/pkg/session"
)

const Version = "0.1.0"

// Honeypot wires the detection engine, session classifier, behavior
// trackers, and the victim agent into one serving unit.
type Honeypot struct {
	cfg        *config.Config
	classifier *session.Classifier
	store      session.Store
	behaviors  *behavior.Registry
	sender     *callback.Sender

	mu         sync.Mutex
	responders map[string]*agent.Responder
	seed       int64
}

// NewHoneypot builds the full pipeline. Optional pieces (semantic layer,
// Redis store, callback delivery) degrade gracefully when unconfigured.
func NewHoneypot(cfg *config.Config) *Honeypot {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	var scorer *detect.Scorer
	if cfg.EnableSemantics {
		scorer = detect.NewScorer()
		log.Println("✓ Semantic layer enabled (TF-IDF template index)")
	} else {
		scorer = detect.NewScorer(detect.WithSemanticIndex(nil))
		log.Println("○ Semantic layer disabled (by configuration)")
	}

	var store session.Store
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rs, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		cancel()
		if err != nil {
			log.Printf("○ Redis store unavailable, using in-memory (%v)", err)
		} else {
			store = rs
			log.Printf("✓ Redis session store enabled (%s)", cfg.RedisAddr)
		}
	}
	if store == nil {
		store = session.NewInMemoryStore(session.WithMaxAge(cfg.SessionTTL))
		log.Println("✓ In-memory session store enabled")
	}

	sender := callback.NewSender(cfg.CallbackURL)
	if sender.Enabled() {
		log.Printf("✓ Final-result callback enabled (%s)", cfg.CallbackURL)
	} else {
		log.Println("○ Final-result callback disabled (no URL configured)")
	}

	var behaviorOpts []behavior.RegistryOption
	if cfg.BehaviorSeed != 0 {
		behaviorOpts = append(behaviorOpts, behavior.WithSeed(cfg.BehaviorSeed))
	}

	seed := cfg.BehaviorSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Honeypot{
		cfg:        cfg,
		classifier: session.NewClassifier(store, scorer,
			session.WithMaxMessages(cfg.MaxMessages),
			session.WithSessionTimeout(cfg.SessionTimeout),
		),
		store:      store,
		behaviors:  behavior.NewRegistry(behaviorOpts...),
		sender:     sender,
		responders: make(map[string]*agent.Responder),
		seed:       seed,
	}
}

// responderFor returns the per-session victim responder, creating persona
// and responder on first use.
func (h *Honeypot) responderFor(sessionID string) *agent.Responder {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.responders[sessionID]; ok {
		return r
	}
	h.seed++
	rng := rand.New(rand.NewSource(h.seed))
	r := agent.NewResponder(agent.GeneratePersona(rng), rng)
	h.responders[sessionID] = r
	return r
}

func (h *Honeypot) dropSession(sessionID string) {
	h.behaviors.Remove(sessionID)
	h.mu.Lock()
	delete(h.responders, sessionID)
	h.mu.Unlock()
}

// finish fires the final-result callback and releases per-session engines.
func (h *Honeypot) finish(state *session.State) {
	h.sender.SendAsync(state)
	h.dropSession(state.SessionID)
}

// sweepLoop periodically completes sessions past the wall-clock cap and
// fires their callbacks.
func (h *Honeypot) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired, err := h.classifier.CompleteExpired(ctx)
			if err != nil {
				log.Printf("[WARN] Expired-session sweep failed: %v", err)
				continue
			}
			for _, state := range expired {
				log.Printf("Session %s expired after %d messages", state.SessionID, state.MessageCount)
				h.finish(state)
			}
		case <-ctx.Done():
			return
		}
	}
}

// wireMessage is one conversation turn as it appears on the wire.
type wireMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type honeypotRequest struct {
	SessionID           string        `json:"sessionId"`
	Message             wireMessage   `json:"message"`
	ConversationHistory []wireMessage `json:"conversationHistory"`
}

// scammerHistory pulls the adversary-side texts out of the supplied history.
func scammerHistory(history []wireMessage) []string {
	var texts []string
	for _, m := range history {
		if m.Sender != "user" && m.Sender != "agent" {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

func intelLists(set intel.Set) fiber.Map {
	return fiber.Map{
		"bankAccounts":       set.Values(intel.CategoryBankAccount),
		"upiIds":             set.Values(intel.CategoryUPI),
		"phishingLinks":      set.Values(intel.CategoryLink),
		"phoneNumbers":       set.Values(intel.CategoryPhone),
		"emailAddresses":     set.Values(intel.CategoryEmail),
		"suspiciousKeywords": set.Values(intel.CategoryKeyword),
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		addr := ""
		if len(os.Args) > 2 {
			addr = ":" + os.Args[2]
		}
		runServer(addr)
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: trapwire scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("TrapWire v%s\n", Version)
		fmt.Println("Scam Detection & Engagement Honeypot")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("TrapWire v%s - Scam Detection & Engagement Honeypot\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  trapwire serve [port]   Start HTTP server (default: 8080)")
	fmt.Println("  trapwire scan <text>    Score a single message")
	fmt.Println("  trapwire version        Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  TRAPWIRE_API_KEY         API key required on honeypot endpoints")
	fmt.Println("  TRAPWIRE_CALLBACK_URL    Final-result delivery endpoint")
	fmt.Println("  TRAPWIRE_REDIS_ADDR      Redis address for shared sessions")
	fmt.Println("  TRAPWIRE_MAX_MESSAGES    Message cap per session (default: 25)")
	fmt.Println("  TRAPWIRE_SEED_DIR        Directory of YAML vocabulary overrides")
}

// ============================================================================
// CLI Scan Mode
// ============================================================================

func runCLIScan(text string) {
	assessment := detect.Default().Score(context.Background(), text, nil)
	extracted := intel.Extract(text)

	out := map[string]any{
		"assessment":   assessment,
		"intelligence": extracted,
	}
	if assessment.IsScam {
		out["scamType"] = detect.ScamType(text)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(data))
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runServer(addr string) {
	cfg := config.NewDefaultConfig()
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.MustValidate()

	hp := NewHoneypot(cfg)
	defer hp.store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hp.sweepLoop(ctx)

	app := fiber.New(fiber.Config{
		AppName: "TrapWire",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	api := app.Group("/api", func(c fiber.Ctx) error {
		if cfg.APIKey != "" && c.Get("x-api-key") != cfg.APIKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
		}
		return c.Next()
	})

	// Main engagement endpoint: score the incoming message, update the
	// session, track behavior, and reply in character.
	api.Post("/honeypot", func(c fiber.Ctx) error {
		var req honeypotRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.SessionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sessionId is required"})
		}
		if strings.TrimSpace(req.Message.Text) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message text is required"})
		}

		ctx := c.Context()

		if _, err := hp.classifier.GetOrCreate(ctx, req.SessionID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		history := scammerHistory(req.ConversationHistory)
		state, assessment, err := hp.classifier.Update(ctx, req.SessionID, req.Message.Text, history)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		engine := hp.behaviors.GetOrCreate(req.SessionID)
		snapshot := engine.Observe(req.Message.Text, assessment)

		responder := hp.responderFor(req.SessionID)
		reply, phase := responder.Reply(req.Message.Text, len(req.ConversationHistory))
		reply, delay := engine.ShapeReply(reply)
		snapshot.SimulatedDelaySeconds = delay

		if !state.Completed {
			if state, err = hp.classifier.RecordReply(ctx, req.SessionID, reply); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
		}

		if state.Completed {
			log.Printf("Session %s completed (%d messages, scam=%t)", state.SessionID, state.MessageCount, state.ScamDetected)
			hp.finish(state)
		}

		return c.JSON(fiber.Map{
			"status":       "success",
			"reply":        reply,
			"scamDetected": state.ScamDetected,
			"scamType":     state.ScamType,
			"confidence":   state.Confidence,
			"completed":    state.Completed,
			"riskAssessment": fiber.Map{
				"totalScore": assessment.TotalScore,
				"layers":     assessment.Layers,
				"signals":    assessment.Signals,
				"isScam":     assessment.IsScam,
			},
			"behaviorMetrics": fiber.Map{
				"intentConfidence":      snapshot.IntentConfidence,
				"escalationRate":        snapshot.EscalationRate,
				"aggressionSlope":       snapshot.AggressionSlope,
				"replyLengthClass":      snapshot.ReplyLengthClass,
				"simulatedDelaySeconds": snapshot.SimulatedDelaySeconds,
			},
			"engagementPhase":       string(phase),
			"extractedIntelligence": intelLists(state.Intelligence),
			"engagementMetrics": fiber.Map{
				"totalMessagesExchanged":    len(state.Messages),
				"engagementDurationSeconds": int(time.Since(state.StartedAt).Seconds()),
			},
		})
	})

	api.Get("/sessions/:id", func(c fiber.Ctx) error {
		state, err := hp.classifier.Get(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"sessionId":             state.SessionID,
			"scamDetected":          state.ScamDetected,
			"scamType":              state.ScamType,
			"confidence":            state.Confidence,
			"messageCount":          state.MessageCount,
			"completed":             state.Completed,
			"startedAt":             state.StartedAt,
			"lastActivity":          state.LastActivity,
			"extractedIntelligence": intelLists(state.Intelligence),
			"agentNotes":            state.AgentNotes,
		})
	})

	api.Post("/sessions/:id/complete", func(c fiber.Ctx) error {
		state, err := hp.classifier.Complete(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		hp.finish(state)
		return c.JSON(fiber.Map{
			"status":       "success",
			"sessionId":    state.SessionID,
			"scamDetected": state.ScamDetected,
			"completed":    state.Completed,
		})
	})

	api.Get("/stats", func(c fiber.Ctx) error {
		stats := fiber.Map{
			"trackedBehaviorSessions": hp.behaviors.Len(),
		}
		if mem, ok := hp.store.(*session.InMemoryStore); ok {
			stats["store"] = mem.Stats()
		}
		return c.JSON(stats)
	})

	log.Printf("TrapWire v%s listening on %s", Version, cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
