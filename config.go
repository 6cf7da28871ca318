package muteagent

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imran-siddique/mute-agent/core"
	"github.com/imran-siddique/mute-agent/handshake"
)

// PolicyFile is the YAML shape of a handshake policy. Durations use Go
// duration syntax ("5s", "100ms").
type PolicyFile struct {
	Deadline              string `yaml:"deadline"`
	MaxRetries            int    `yaml:"max_retries"`
	BackoffBase           string `yaml:"backoff_base"`
	BackoffMax            string `yaml:"backoff_max"`
	MaxConcurrentSessions int64  `yaml:"max_concurrent_sessions"`
	OutcomeDimension      string `yaml:"outcome_dimension"`
}

// LoadPolicy reads a handshake policy from a YAML file. Unset fields keep
// their handshake.DefaultConfig values.
func LoadPolicy(path string) (handshake.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return handshake.Config{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy parses a YAML handshake policy document.
func ParsePolicy(data []byte) (handshake.Config, error) {
	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return handshake.Config{}, fmt.Errorf("failed to parse policy file: %w", err)
	}

	cfg := handshake.DefaultConfig

	if file.Deadline != "" {
		d, err := time.ParseDuration(file.Deadline)
		if err != nil {
			return handshake.Config{}, fmt.Errorf("invalid deadline: %w", err)
		}
		cfg.Deadline = d
	}
	if file.MaxRetries > 0 {
		cfg.MaxRetries = file.MaxRetries
	}
	if file.BackoffBase != "" {
		d, err := time.ParseDuration(file.BackoffBase)
		if err != nil {
			return handshake.Config{}, fmt.Errorf("invalid backoff_base: %w", err)
		}
		cfg.BackoffBase = d
	}
	if file.BackoffMax != "" {
		d, err := time.ParseDuration(file.BackoffMax)
		if err != nil {
			return handshake.Config{}, fmt.Errorf("invalid backoff_max: %w", err)
		}
		cfg.BackoffMax = d
	}
	if file.MaxConcurrentSessions > 0 {
		cfg.MaxConcurrentSessions = file.MaxConcurrentSessions
	}
	if file.OutcomeDimension != "" {
		cfg.OutcomeDimension = core.Dimension(file.OutcomeDimension)
	}

	return cfg, nil
}
