package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"courier/internal/chunker"
)

// Config represents the relay configuration
type Config struct {
	Timezone    string          `json:"timezone,omitempty"`
	DataDir     string          `json:"data_dir,omitempty"`
	SecretsFile string          `json:"secrets_file,omitempty"`
	Database    DatabaseConfig  `json:"database"`
	AI          AIConfig        `json:"ai"`
	Agent       AgentConfig     `json:"agent"`
	Chunking    chunker.Config  `json:"chunking,omitempty"`
	Channels    []ChannelConfig `json:"channels"`
	Heartbeat   HeartbeatConfig `json:"heartbeat,omitempty"`
	Debug       DebugConfig     `json:"debug,omitempty"`
}

// DatabaseConfig contains session database settings
type DatabaseConfig struct {
	Path string `json:"path"`
}

// AIConfig contains AI provider settings
type AIConfig struct {
	DefaultProvider string           `json:"default_provider"`
	Providers       []ProviderConfig `json:"providers"`
}

// ProviderConfig contains settings for a specific AI provider
type ProviderConfig struct {
	Name      string `json:"name"`
	Type      string `json:"type"`              // "anthropic" or "openai"
	APIKey    string `json:"api_key,omitempty"` // Supports ${ENV_VAR} expansion
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// AgentConfig contains assistant identity settings
type AgentConfig struct {
	Name        string `json:"name"`
	Identity    string `json:"identity,omitempty"`
	PersonaFile string `json:"persona_file,omitempty"` // Markdown with YAML frontmatter
}

// ChannelConfig contains settings for channel adapters
type ChannelConfig struct {
	Name    string                 `json:"name"`
	Type    string                 `json:"type"`
	Enabled bool                   `json:"enabled"`
	Config  map[string]interface{} `json:"config"`
}

// HeartbeatConfig contains scheduled check-in settings
type HeartbeatConfig struct {
	Enabled    bool   `json:"enabled"`
	Schedule   string `json:"schedule,omitempty"` // cron expression
	Prompt     string `json:"prompt,omitempty"`
	ChannelID  string `json:"channel_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	SessionKey string `json:"session_key,omitempty"`
}

// DebugConfig contains debugging and logging settings
type DebugConfig struct {
	LogMessageContent bool `json:"log_message_content,omitempty"` // Enable logging of message content (privacy risk!)
	VerboseLogging    bool `json:"verbose_logging,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "courier.db",
		},
		AI: AIConfig{
			DefaultProvider: "anthropic",
			Providers: []ProviderConfig{
				{
					Name:   "anthropic",
					Type:   "anthropic",
					APIKey: "${ANTHROPIC_API_KEY}",
					Model:  "claude-3-5-sonnet-20241022",
				},
				{
					Name:   "openai",
					Type:   "openai",
					APIKey: "${OPENAI_API_KEY}",
					Model:  "gpt-4o",
				},
			},
		},
		Agent: AgentConfig{
			Name:     "Courier",
			Identity: "You are Courier, a personal assistant reachable over chat.",
		},
		Chunking: chunker.Config{
			Enabled:      true,
			MinChunkSize: chunker.DefaultMinChunkSize,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:  false,
			Schedule: "0 * * * *",
			Prompt:   "Check in: anything the user should know? Reply HEARTBEAT_OK if not.",
		},
		Channels: []ChannelConfig{
			{
				Name:    "telegram",
				Type:    "telegram",
				Enabled: false,
				Config: map[string]interface{}{
					"bot_token": "${TELEGRAM_BOT_TOKEN}",
				},
			},
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// Check if file exists, create default if not
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		fmt.Printf("Created default configuration at %s\n", path)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Expand tilde in path fields before anything else so that
	// secrets_file can reference ~/... paths.
	cfg.expandTilde()

	// Load secrets file (KEY=VALUE) into the environment before
	// expanding ${ENV_VAR} placeholders in the config.
	if err := cfg.loadSecretsFile(); err != nil {
		return nil, fmt.Errorf("failed to load secrets file: %w", err)
	}

	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.DataDir = os.ExpandEnv(c.DataDir)
	c.SecretsFile = os.ExpandEnv(c.SecretsFile)

	for i := range c.AI.Providers {
		c.AI.Providers[i].APIKey = os.ExpandEnv(c.AI.Providers[i].APIKey)
	}

	for i := range c.Channels {
		for key, value := range c.Channels[i].Config {
			if strVal, ok := value.(string); ok {
				c.Channels[i].Config[key] = os.ExpandEnv(strVal)
			}
		}
	}
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	for _, p := range c.AI.Providers {
		if p.Name == "" || p.Type == "" {
			return fmt.Errorf("AI provider entries require name and type")
		}
	}

	// Chunking markers must be non-empty strings; an empty marker would
	// split between every character.
	for _, m := range c.Chunking.Markers {
		if m == "" {
			return fmt.Errorf("chunking markers must be non-empty strings")
		}
	}
	if c.Chunking.MinChunkSize < 0 {
		return fmt.Errorf("chunking min_chunk_size must be non-negative")
	}

	if c.Heartbeat.Enabled && c.Heartbeat.Schedule == "" {
		return fmt.Errorf("heartbeat schedule is required when heartbeat is enabled")
	}

	// Validate timezone if set
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
		}
	}

	return nil
}

// GetLocation returns the configured timezone as a *time.Location,
// falling back to time.Local.
func (c *Config) GetLocation() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// expandTilde replaces a leading "~/" with the user's home directory in
// path-valued config fields. Called before env-var expansion so that
// both "~/foo" and "${SOME_PATH}" work.
func (c *Config) expandTilde() {
	home, err := os.UserHomeDir()
	if err != nil {
		return // can't expand, leave as-is
	}
	expand := func(p string) string {
		if p == "~" {
			return home
		}
		if strings.HasPrefix(p, "~/") {
			return filepath.Join(home, p[2:])
		}
		return p
	}

	c.DataDir = expand(c.DataDir)
	c.SecretsFile = expand(c.SecretsFile)
	c.Database.Path = expand(c.Database.Path)
	c.Agent.PersonaFile = expand(c.Agent.PersonaFile)
}

// loadSecretsFile reads a KEY=VALUE file into the process environment.
// Blank lines and lines starting with '#' are ignored.
// Existing environment variables are NOT overridden (shell/systemd wins).
// If SecretsFile is empty or the file doesn't exist, this is a no-op.
func (c *Config) loadSecretsFile() error {
	if c.SecretsFile == "" {
		return nil
	}

	f, err := os.Open(c.SecretsFile)
	if os.IsNotExist(err) {
		return nil // missing file is fine
	}
	if err != nil {
		return fmt.Errorf("cannot open secrets file %s: %w", c.SecretsFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Strip optional surrounding quotes from value
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		// Don't override existing env vars
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
