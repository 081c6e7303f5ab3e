package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	General struct {
		DefaultAI  string `koanf:"default_ai"`
		MaxResults int    `koanf:"max_results"`
	} `koanf:"general"`

	AI map[string]map[string]interface{} `koanf:"ai"`

	Play struct {
		PackageName string `koanf:"package_name"`
		AccessToken string `koanf:"access_token"`
		BaseURL     string `koanf:"base_url"`
	} `koanf:"play"`

	Knowledge struct {
		Path string `koanf:"path"`
	} `koanf:"knowledge"`

	History struct {
		Backend string `koanf:"backend"`
		Path    string `koanf:"path"`
		DSN     string `koanf:"dsn"`
	} `koanf:"history"`

	Server struct {
		Addr      string `koanf:"addr"`
		JWTSecret string `koanf:"jwt_secret"`
		UsersFile string `koanf:"users_file"`
	} `koanf:"server"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"general.default_ai":  "gemini",
		"general.max_results": 20,
		"knowledge.path":      "knowledge_base.json",
		"history.backend":     "file",
		"history.path":        "reply_history.jsonl",
		"server.addr":         ":8787",
		"server.users_file":   "users.json",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./prdata/playreply.toml", "./playreply.toml", "$HOME/.playreply.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix PLAYREPLY_
	k.Load(env.Provider("PLAYREPLY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PLAYREPLY_")), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// AISettings is the flattened per-provider AI section.
type AISettings struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// AISettings extracts the settings block for the named AI provider.
// Missing keys fall back to zero values; the connector layer applies its
// own model defaults.
func (c *Config) AISettings(name string) AISettings {
	raw, ok := c.AI[name]
	if !ok {
		return AISettings{}
	}
	s := AISettings{
		APIKey:  stringVal(raw["api_key"]),
		Model:   stringVal(raw["model"]),
		BaseURL: stringVal(raw["base_url"]),
	}
	if v, ok := raw["temperature"].(float64); ok {
		s.Temperature = v
	}
	switch v := raw["max_tokens"].(type) {
	case int:
		s.MaxTokens = v
	case int64:
		s.MaxTokens = int(v)
	case float64:
		s.MaxTokens = int(v)
	}
	return s
}

func stringVal(v interface{}) string {
	s, _ := v.(string)
	return s
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# PlayReply Configuration

[general]
default_ai = "gemini"
max_results = 20

[ai.gemini]
api_key = "your-gemini-api-key"
model = "gemini-2.5-flash"

[play]
package_name = "com.example.app"
access_token = "your-play-console-token"

[knowledge]
path = "knowledge_base.json"

[history]
backend = "file"
path = "reply_history.jsonl"

[server]
addr = ":8787"
jwt_secret = "change-me"
users_file = "users.json"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.General.DefaultAI == "" {
		return fmt.Errorf("default AI provider is required")
	}

	aiConfig, ok := config.AI[config.General.DefaultAI]
	if !ok {
		return fmt.Errorf("configuration for AI provider %s not found", config.General.DefaultAI)
	}

	switch config.General.DefaultAI {
	case "gemini", "openai", "claude":
		if _, ok := aiConfig["api_key"]; !ok {
			return fmt.Errorf("%s api_key is required", config.General.DefaultAI)
		}
	case "ollama":
		// Local runtime, no key needed.
	default:
		return fmt.Errorf("unknown AI provider %s", config.General.DefaultAI)
	}

	if config.General.MaxResults < 0 {
		return fmt.Errorf("max_results must not be negative")
	}

	switch config.History.Backend {
	case "", "file":
		if config.History.Path == "" {
			return fmt.Errorf("history path is required for the file backend")
		}
	case "postgres":
		if config.History.DSN == "" {
			return fmt.Errorf("history dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown history backend %s", config.History.Backend)
	}

	return nil
}
