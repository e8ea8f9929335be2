package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	AI        AIConfig        `yaml:"ai"`
	Discord   DiscordConfig   `yaml:"discord"`
	Bot       BotConfig       `yaml:"bot"`
	Retention RetentionConfig `yaml:"retention"`

	path string
	mu   sync.RWMutex
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// AIConfig configures the upstream chat-completion provider.
// Provider selects the SDK; BaseURL covers OpenAI-compatible endpoints
// such as Grok (https://api.x.ai/v1).
type AIConfig struct {
	Provider string  `yaml:"provider"` // openai, anthropic, ollama, gemini
	BaseURL  string  `yaml:"base_url"`
	APIKey   string  `yaml:"api_key"`
	Model    string  `yaml:"model"`
	TimeoutS float64 `yaml:"timeout_seconds"`
}

// DiscordConfig configures outbound channel delivery. An empty token
// disables delivery (replies are still returned to the caller).
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
	APIBase  string `yaml:"api_base"`
}

// BotConfig carries the operator-editable reply texture: the default system
// prompt, an optional prefix/suffix wrapped around every outbound reply, and
// the canned message catalog.
type BotConfig struct {
	SystemPrompt string            `yaml:"system_prompt"`
	ReplyPrefix  string            `yaml:"reply_prefix"`
	ReplySuffix  string            `yaml:"reply_suffix"`
	Messages     map[string]string `yaml:"messages"`
}

// RetentionConfig controls the scheduled purge of old terminal audit
// records. Days <= 0 disables the purge entirely.
type RetentionConfig struct {
	Days int `yaml:"days"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.path = configPath
	cfg.mergeMessageDefaults()
	cfg.overrideFromEnv()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "promptgate.db",
		},
		JWT: JWTConfig{
			Secret:     "promptgate-secret-key-change-in-production",
			ExpireHour: 24,
		},
		AI: AIConfig{
			Provider: "openai",
			BaseURL:  "https://api.x.ai/v1",
			Model:    "grok-3-mini",
			TimeoutS: 30,
		},
		Discord: DiscordConfig{
			APIBase: "https://discord.com/api/v10",
		},
		Bot: BotConfig{
			SystemPrompt: defaultSystemPrompt,
			Messages:     map[string]string{},
		},
		Retention: RetentionConfig{
			Days: 0,
		},
	}
}

// mergeMessageDefaults fills in any catalog entries the config file omits.
func (c *Config) mergeMessageDefaults() {
	if c.Bot.Messages == nil {
		c.Bot.Messages = map[string]string{}
	}
	for key, text := range defaultMessages {
		if _, ok := c.Bot.Messages[key]; !ok {
			c.Bot.Messages[key] = text
		}
	}
	if c.Bot.SystemPrompt == "" {
		c.Bot.SystemPrompt = defaultSystemPrompt
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		c.AI.Provider = provider
	}
	if baseURL := os.Getenv("GROK_API_BASE"); baseURL != "" {
		c.AI.BaseURL = baseURL
	}
	if apiKey := os.Getenv("GROK_API_KEY"); apiKey != "" {
		c.AI.APIKey = apiKey
	}
	if model := os.Getenv("GROK_CHAT_MODEL"); model != "" {
		c.AI.Model = model
	}
	if token := os.Getenv("DISCORD_BOT_TOKEN"); token != "" {
		c.Discord.BotToken = token
	}
	if days := os.Getenv("RETENTION_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil {
			c.Retention.Days = n
		}
	}
}

// Save persists the current configuration back to its YAML file. Used by the
// operator API after message catalog updates.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = "config.yaml"
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	c.mu.RLock()
	data, err := yaml.Marshal(c)
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
