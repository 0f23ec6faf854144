// Package config loads the analyzer configuration from YAML with
// sensible .lt registry defaults. The loaded Config is read-only;
// main builds it once and hands it to the orchestrator.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Profiles        ProfilesConfig        `yaml:"profiles"`
	Network         NetworkConfig         `yaml:"network"`
	Checks          ChecksConfig          `yaml:"checks"`
	RedirectCapture RedirectCaptureConfig `yaml:"redirect_capture"`
	Logging         LoggingConfig         `yaml:"logging"`
	Store           StoreConfig           `yaml:"store"`
}

// ProfilesConfig selects profile behavior.
type ProfilesConfig struct {
	// Default is the profile set used when the CLI omits --profiles.
	Default string `yaml:"default"`
	// MonitorUsesFullWhois switches the monitor meta profile from the
	// DAS-only quick-whois to full port-43 whois.
	MonitorUsesFullWhois bool `yaml:"monitor_uses_full_whois"`
}

// NetworkConfig holds probe-level networking knobs.
type NetworkConfig struct {
	// RequestTimeoutSec is the per-probe hard timeout.
	RequestTimeoutSec int `yaml:"request_timeout"`
	// Concurrency caps simultaneous domain tasks.
	Concurrency int `yaml:"concurrency"`
	// PerDomainBudgetSec is the soft total budget per domain;
	// 0 disables it.
	PerDomainBudgetSec int `yaml:"per_domain_budget"`
	// Resolver is "host:port" of the DNS server to query.
	Resolver string `yaml:"resolver"`
}

// ChecksConfig configures the registry clients.
type ChecksConfig struct {
	Whois WhoisChecksConfig `yaml:"whois"`
}

// WhoisChecksConfig covers both the DAS endpoint and port-43 WHOIS.
type WhoisChecksConfig struct {
	Server    string  `yaml:"server"` // DAS
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"` // DAS queries/s

	WhoisServer     string       `yaml:"whois_server"` // port 43
	WhoisPort       int          `yaml:"whois_port"`
	WhoisTimeoutSec int          `yaml:"whois_timeout"`
	WhoisRateLimit  BucketConfig `yaml:"whois_rate_limit"`
}

// BucketConfig is a {capacity, period} pair for a token bucket.
type BucketConfig struct {
	Capacity      int `yaml:"capacity"`
	PeriodSeconds int `yaml:"period_seconds"`
}

// RedirectCaptureConfig tunes captured-domain discovery.
type RedirectCaptureConfig struct {
	// KeepSubdomainsFor lists suffixes whose hosts keep their
	// subdomain when reduced to a root.
	KeepSubdomainsFor []string `yaml:"keep_subdomains_for"`
	// IgnoreCommonServices lists exact hostnames excluded from
	// discovery.
	IgnoreCommonServices []string `yaml:"ignore_common_services"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// StoreConfig locates the sqlite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Profiles: ProfilesConfig{Default: "standard"},
		Network: NetworkConfig{
			RequestTimeoutSec: 5,
			Concurrency:       10,
		},
		Checks: ChecksConfig{
			Whois: WhoisChecksConfig{
				Server:          "das.domreg.lt",
				Port:            4343,
				RateLimit:       4,
				WhoisServer:     "whois.domreg.lt",
				WhoisPort:       43,
				WhoisTimeoutSec: 5,
				WhoisRateLimit:  BucketConfig{Capacity: 100, PeriodSeconds: 1800},
			},
		},
		RedirectCapture: RedirectCaptureConfig{
			KeepSubdomainsFor: []string{".gov.lt", ".lrv.lt", ".edu.lt", ".mil.lt"},
			IgnoreCommonServices: []string{
				"www.serveriai.lt",
				"domenai.lt",
				"bit.ly",
			},
		},
		Logging: LoggingConfig{Level: "info"},
		Store:   StoreConfig{Path: "domains.db"},
	}
}

// Load reads path over the defaults. A missing file is not an error
// when path is empty; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Network.Concurrency < 1 {
		return fmt.Errorf("config: network.concurrency must be >= 1")
	}
	if c.Network.RequestTimeoutSec < 1 {
		return fmt.Errorf("config: network.request_timeout must be >= 1")
	}
	if c.Checks.Whois.RateLimit <= 0 {
		return fmt.Errorf("config: checks.whois.rate_limit must be positive")
	}
	if c.Checks.Whois.WhoisRateLimit.Capacity < 1 || c.Checks.Whois.WhoisRateLimit.PeriodSeconds < 1 {
		return fmt.Errorf("config: checks.whois.whois_rate_limit must set capacity and period_seconds")
	}
	return nil
}

// RequestTimeout returns the per-probe timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Network.RequestTimeoutSec) * time.Second
}

// PerDomainBudget returns the soft per-domain budget, 0 if disabled.
func (c *Config) PerDomainBudget() time.Duration {
	return time.Duration(c.Network.PerDomainBudgetSec) * time.Second
}

// WhoisTimeout returns the port-43 socket timeout.
func (c *Config) WhoisTimeout() time.Duration {
	return time.Duration(c.Checks.Whois.WhoisTimeoutSec) * time.Second
}

// WhoisBucketPeriod returns the WHOIS bucket refill period.
func (c *Config) WhoisBucketPeriod() time.Duration {
	return time.Duration(c.Checks.Whois.WhoisRateLimit.PeriodSeconds) * time.Second
}
