package detect

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Seeds are optional vocabulary overrides loaded from YAML files in a seed
// directory. Layer weights are not overridable; only the word lists and the
// semantic template corpus are.
type Seeds struct {
	UrgencyTerms []string `yaml:"urgency_terms"`
	Templates    []string `yaml:"templates"`
}

// FindSeedDir locates the seed directory, trying in order the
// TRAPWIRE_SEED_DIR env var, ./seeds, and ~/.trapwire/seeds.
// Returns "" when none exists.
func FindSeedDir() string {
	candidates := []string{os.Getenv("TRAPWIRE_SEED_DIR"), "seeds"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".trapwire", "seeds"))
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

// LoadSeeds reads and merges every *.yaml file in dir. Later files extend,
// not replace, earlier ones.
func LoadSeeds(dir string) (*Seeds, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan seed dir: %w", err)
	}

	merged := &Seeds{}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
		}
		var s Seeds
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
		}
		merged.UrgencyTerms = append(merged.UrgencyTerms, s.UrgencyTerms...)
		merged.Templates = append(merged.Templates, s.Templates...)
	}
	return merged, nil
}
