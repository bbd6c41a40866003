package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds global settings for the TrapWire honeypot.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Core Settings ===
	ListenAddr string // HTTP listen address (default: ":8080")
	APIKey     string // API key required on honeypot endpoints (REQUIRED in production)

	// === Session Lifecycle ===
	MaxMessages    int           // Message-count cap that completes a session (default: 25)
	SessionTimeout time.Duration // Wall-clock cap since session start (default: 30m)
	SessionTTL     time.Duration // Idle TTL before a session is swept (default: 1h)

	// === Detection ===
	EnableSemantics bool   // Enable the TF-IDF template-similarity layer
	SeedDir         string // Directory of YAML vocabulary/template overrides

	// === Callback Delivery ===
	CallbackURL string // Final-result endpoint; empty disables delivery

	// === Session Store ===
	RedisAddr     string // Redis address for the shared session store; empty = in-memory
	RedisPassword string

	// === Behavior Simulation ===
	BehaviorSeed int64 // Fixed RNG seed for persona/typo/delay generation; 0 = time-based
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		ListenAddr: GetEnv("TRAPWIRE_LISTEN_ADDR", ":8080"),
		APIKey:     GetEnv("TRAPWIRE_API_KEY", ""),

		MaxMessages:    clampInt(GetEnvInt("TRAPWIRE_MAX_MESSAGES", 25), 1, 1000),
		SessionTimeout: time.Duration(GetEnvInt("TRAPWIRE_SESSION_TIMEOUT_SECONDS", 1800)) * time.Second,
		SessionTTL:     time.Duration(GetEnvInt("TRAPWIRE_SESSION_TTL_SECONDS", 3600)) * time.Second,

		EnableSemantics: GetEnvBool("TRAPWIRE_ENABLE_SEMANTICS", true),
		SeedDir:         GetEnv("TRAPWIRE_SEED_DIR", ""),

		CallbackURL: GetEnv("TRAPWIRE_CALLBACK_URL", ""),

		RedisAddr:     GetEnv("TRAPWIRE_REDIS_ADDR", ""),
		RedisPassword: GetEnv("TRAPWIRE_REDIS_PASSWORD", ""),

		BehaviorSeed: int64(GetEnvInt("TRAPWIRE_BEHAVIOR_SEED", 0)),
	}
}

// clampInt ensures a value is within bounds.
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing.
// Exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

// RequiredSecret defines a required environment variable for startup validation.
type RequiredSecret struct {
	Name        string // Environment variable name
	Description string // Human-readable description
	Production  bool   // Required in production only (false = required always)
}

// CriticalSecrets returns the list of secrets required for the honeypot to operate.
func CriticalSecrets() []RequiredSecret {
	return []RequiredSecret{
		{Name: "TRAPWIRE_API_KEY", Description: "API key for honeypot endpoints", Production: true},
		{Name: "TRAPWIRE_CALLBACK_URL", Description: "final-result delivery endpoint", Production: true},
	}
}

func isProduction() bool {
	env := strings.ToLower(os.Getenv("TRAPWIRE_ENV"))
	return env == "production" || env == "prod"
}

// Validate checks that all required configuration is present.
// In production mode missing critical secrets are an error; in development
// they log warnings but allow startup for local testing.
func (c *Config) Validate() error {
	prod := isProduction()

	var missing []string
	for _, secret := range CriticalSecrets() {
		if os.Getenv(secret.Name) != "" {
			continue
		}
		if secret.Production && !prod {
			log.Printf("[STARTUP] Warning: missing optional secret: %s (%s)", secret.Name, secret.Description)
			continue
		}
		missing = append(missing, secret.Name+" ("+secret.Description+")")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required secrets: %s", strings.Join(missing, ", "))
	}

	if c.MaxMessages <= 0 {
		return fmt.Errorf("max messages must be positive, got %d", c.MaxMessages)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got %v", c.SessionTimeout)
	}

	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before starting the server.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}
