package config

import (
	"errors"
	"os"
	"strings"

	"github.com/ShayCichocki/reqforge/internal/keypool"
)

// ErrNoAPIKey is returned when no completion credential is configured.
var ErrNoAPIKey = errors.New("no completion credentials configured")

// CompletionKeys returns the ordered credential pool.
//
// For the Bedrock backend the pool is the configured AWS profiles, or the
// default profile when none are listed. Otherwise it is REQFORGE_API_KEYS when
// set, else completion.api_keys, followed by ANTHROPIC_API_KEY when present
// and not already listed. Empty and unexpanded entries are dropped.
func CompletionKeys(cfg *Config) []string {
	if cfg != nil && cfg.Completion.Bedrock.Enabled {
		profiles := cleanKeys(cfg.Completion.Bedrock.Profiles)
		if len(profiles) == 0 {
			return []string{"default"}
		}
		return profiles
	}

	var keys []string
	if env := os.Getenv("REQFORGE_API_KEYS"); env != "" {
		keys = cleanKeys([]string{env})
	} else if cfg != nil {
		keys = cleanKeys(cfg.Completion.APIKeys)
	}

	if single := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); single != "" && !contains(keys, single) {
		keys = append(keys, single)
	}
	return keys
}

// cleanKeys splits comma-joined entries, expands ${VAR} references and drops
// empty or unresolved entries.
func cleanKeys(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, k := range strings.Split(entry, ",") {
			k = strings.TrimSpace(os.ExpandEnv(k))
			if k == "" || strings.HasPrefix(k, "${") {
				continue
			}
			out = append(out, k)
		}
	}
	return out
}

func contains(keys []string, k string) bool {
	for _, existing := range keys {
		if existing == k {
			return true
		}
	}
	return false
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters and last 4 characters.
func MaskAPIKey(key string) string {
	return keypool.Mask(key)
}

// KeySource represents where completion credentials were loaded from.
type KeySource string

const (
	KeySourceEnv     KeySource = "environment"
	KeySourceConfig  KeySource = "config_file"
	KeySourceBedrock KeySource = "aws_profiles"
	KeySourceNone    KeySource = "none"
)

// GetKeySource returns where the credential pool was sourced from.
func GetKeySource(cfg *Config) KeySource {
	if cfg != nil && cfg.Completion.Bedrock.Enabled {
		return KeySourceBedrock
	}
	if os.Getenv("REQFORGE_API_KEYS") != "" {
		return KeySourceEnv
	}
	if cfg != nil && len(cleanKeys(cfg.Completion.APIKeys)) > 0 {
		return KeySourceConfig
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return KeySourceEnv
	}
	return KeySourceNone
}
