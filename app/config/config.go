// Package config loads the optional YAML configuration file covering the
// parts of the tracker that don't fit command-line flags well: the stale
// sweep and notification destinations. Flags and env still win where both
// are set, precedence is handled by the caller.
package config

import (
	"bytes"
	"fmt"
	"os"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML document
type Config struct {
	Sweep  Sweep  `yaml:"sweep"`
	Notify Notify `yaml:"notify"`
}

// Sweep configures the periodic stale-application pass
type Sweep struct {
	Schedule  string `yaml:"schedule"`   // cron spec, e.g. "@daily"
	StaleDays int    `yaml:"stale_days"` // 0 disables the sweep
}

// Notify configures status-change notification delivery
type Notify struct {
	Destinations []string `yaml:"destinations"` // mailto:..., slack:channel, https://hook
	FromEmail    string   `yaml:"from_email"`
	SlackToken   string   `yaml:"slack_token"`
	SMTP         SMTP     `yaml:"smtp"`
}

// SMTP holds the email transport settings for mailto destinations
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TLS      bool   `yaml:"tls"`
}

// Load reads and parses the config file. Unknown fields are rejected to
// catch typos early.
func Load(fname string) (*Config, error) {
	data, err := os.ReadFile(fname) // #nosec G304 - path comes from the operator's own flag
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", fname, err)
	}

	res := &Config{}
	res.Sweep.Schedule = "@daily"

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(res); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", fname, err)
	}

	log.Printf("[DEBUG] loaded config from %s, %d notification destinations", fname, len(res.Notify.Destinations))
	return res, nil
}
