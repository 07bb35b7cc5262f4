// Package config loads deployment configuration from YAML with environment
// overrides. Secrets never live here; credentials come from the ambient
// environment (application default credentials for the model backend).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skylinkair/pilot/pkg/chat"
)

// Duration wraps time.Duration so YAML values can be written as "90s" or
// "15m" instead of nanosecond integers.
type Duration time.Duration

// UnmarshalYAML accepts Go duration strings and bare integers (seconds).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		var seconds int64
		if _, scanErr := fmt.Sscanf(raw, "%d", &seconds); scanErr != nil {
			return fmt.Errorf("config: invalid duration %q: %w", raw, err)
		}
		parsed = time.Duration(seconds) * time.Second
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ProviderSettings selects and tunes the model backend.
type ProviderSettings struct {
	Name            string   `yaml:"name"`
	Model           string   `yaml:"model"`
	Project         string   `yaml:"project"`
	Location        string   `yaml:"location"`
	BaseURL         string   `yaml:"base_url"`
	SystemPrompt    string   `yaml:"system_prompt"`
	Temperature     *float64 `yaml:"temperature"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	RequestTimeout  Duration `yaml:"request_timeout"`
}

// SessionSettings tunes the per-provider session store.
type SessionSettings struct {
	IdleTTL    Duration `yaml:"idle_ttl"`
	MaxEntries int      `yaml:"max_entries"`
}

// AgentSettings tunes the orchestration loop.
type AgentSettings struct {
	MaxToolRounds int      `yaml:"max_tool_rounds"`
	TurnTimeout   Duration `yaml:"turn_timeout"`
	FallbackText  string   `yaml:"fallback_text"`
	TimeoutText   string   `yaml:"timeout_text"`
}

// ToolsSettings points at the booking backend.
type ToolsSettings struct {
	// Backend is an MCP transport spec: "stdio://<command>", "sse://<url>"
	// or "http(s)://<url>".
	Backend string `yaml:"backend"`
}

// LoggingSettings controls structured log output.
type LoggingSettings struct {
	Level string `yaml:"level"`
}

// Config is the full deployment configuration.
type Config struct {
	Provider ProviderSettings `yaml:"provider"`
	Session  SessionSettings  `yaml:"session"`
	Agent    AgentSettings    `yaml:"agent"`
	Tools    ToolsSettings    `yaml:"tools"`
	Logging  LoggingSettings  `yaml:"logging"`
}

// Default returns the configuration used when a field is absent.
func Default() Config {
	return Config{
		Provider: ProviderSettings{
			Name:     "vertex",
			Location: "us-central1",
		},
		Logging: LoggingSettings{Level: "info"},
	}
}

// Load reads a YAML config file, applies environment overrides and
// validates the result. A missing path yields defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is operator supplied
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Environment variable names recognized by applyEnv.
const (
	envProvider     = "PILOT_PROVIDER"
	envModel        = "PILOT_MODEL"
	envProject      = "PILOT_PROJECT"
	envLocation     = "PILOT_LOCATION"
	envBaseURL      = "PILOT_BASE_URL"
	envToolsBackend = "PILOT_TOOLS_BACKEND"
	envLogLevel     = "PILOT_LOG_LEVEL"
)

func (c *Config) applyEnv() {
	setIfPresent(envProvider, &c.Provider.Name)
	setIfPresent(envModel, &c.Provider.Model)
	setIfPresent(envProject, &c.Provider.Project)
	setIfPresent(envLocation, &c.Provider.Location)
	setIfPresent(envBaseURL, &c.Provider.BaseURL)
	setIfPresent(envToolsBackend, &c.Tools.Backend)
	setIfPresent(envLogLevel, &c.Logging.Level)
}

func setIfPresent(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

// Validate checks fields whose bad values would only surface at request
// time otherwise.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider.Name) == "" {
		return fmt.Errorf("config: provider.name is required")
	}
	if strings.TrimSpace(c.Provider.Model) == "" {
		return fmt.Errorf("config: provider.model is required")
	}
	if c.Agent.MaxToolRounds < 0 {
		return fmt.Errorf("config: agent.max_tool_rounds must not be negative")
	}
	if c.Session.MaxEntries < 0 {
		return fmt.Errorf("config: session.max_entries must not be negative")
	}
	if c.Provider.Temperature != nil {
		if t := *c.Provider.Temperature; t < 0 || t > 1 {
			return fmt.Errorf("config: provider.temperature must be in [0, 1], got %v", t)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// ProviderConfig maps the loaded settings onto the chat factory input.
func (c *Config) ProviderConfig() chat.ProviderConfig {
	return chat.ProviderConfig{
		Provider:        c.Provider.Name,
		Model:           c.Provider.Model,
		Project:         c.Provider.Project,
		Location:        c.Provider.Location,
		BaseURL:         c.Provider.BaseURL,
		SystemPrompt:    c.Provider.SystemPrompt,
		Temperature:     c.Provider.Temperature,
		MaxOutputTokens: c.Provider.MaxOutputTokens,
		RequestTimeout:  c.Provider.RequestTimeout.Std(),
		SessionIdleTTL:  c.Session.IdleTTL.Std(),
		MaxSessions:     c.Session.MaxEntries,
	}
}

// SlogLevel parses the configured logging level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
}
