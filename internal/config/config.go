package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Admin    AdminConfig    `toml:"admin"`
	ML       MLConfig       `toml:"ml"`
	LLM      LLMConfig      `toml:"llm"`
	Mail     MailConfig     `toml:"mail"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

type ServerConfig struct {
	Addr       string `toml:"addr"`
	UploadsDir string `toml:"uploads_dir"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	JWTSecret      string `toml:"jwt_secret"`
	TokenExpiryMin int    `toml:"token_expiry_min"`
}

// AdminConfig seeds the default admin account (seed-admin command) and sets
// the address reply emails are sent from.
type AdminConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
}

// MLConfig points at the external classification microservice.
type MLConfig struct {
	BaseURL    string `toml:"base_url"`
	TopK       int    `toml:"top_k"`
	TimeoutSec int    `toml:"timeout_sec"`
}

type LLMConfig struct {
	GeminiAPIKey    string `toml:"gemini_api_key"`
	AnthropicAPIKey string `toml:"anthropic_api_key"`
	OpenRouterKey   string `toml:"openrouter_api_key"`
	GroqAPIKey      string `toml:"groq_api_key"`
}

type MailConfig struct {
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

type PipelineConfig struct {
	// ReclassifySchedule is a 5-field cron expression for the periodic
	// reclassification sweep. Empty disables the sweep.
	ReclassifySchedule string `toml:"reclassify_schedule"`
	BatchLimit         int    `toml:"batch_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			UploadsDir: "data/uploads",
		},
		Database: DatabaseConfig{
			Path: "data/grievd.db",
		},
		Auth: AuthConfig{
			JWTSecret:      "change-me-in-production",
			TokenExpiryMin: 120, // 2h
		},
		Admin: AdminConfig{
			Email: "admin@grievassist.local",
			Name:  "Admin",
		},
		ML: MLConfig{
			BaseURL:    "http://localhost:8001",
			TopK:       3,
			TimeoutSec: 10,
		},
		Pipeline: PipelineConfig{
			BatchLimit: 2000,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
