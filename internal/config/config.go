package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	MaxConcurrent int    `json:"max_concurrent"`
	HTTP          struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	Agent struct {
		Default        string `json:"default"`
		TimeoutSeconds int    `json:"timeout_seconds"`
		MaxRetries     int    `json:"max_retries"`
		BaseDelayMs    int    `json:"base_delay_ms"`
		MaxDelayMs     int    `json:"max_delay_ms"`
	} `json:"agent"`
	Prompt struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
	} `json:"prompt"`
	Scheduler struct {
		Enabled      bool     `json:"enabled"`
		Spec         string   `json:"spec"`
		Topics       []string `json:"topics"`
		NotifyTarget string   `json:"notify_target"`
	} `json:"scheduler"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".inkwell"),
		MaxConcurrent: 2,
	}
	cfg.LogLevel = "info"
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = "127.0.0.1:8085"
	cfg.Agent.Default = "default"
	cfg.Agent.TimeoutSeconds = 60
	cfg.Agent.MaxRetries = 3
	cfg.Agent.BaseDelayMs = 1000
	cfg.Agent.MaxDelayMs = 10000
	cfg.Prompt.Model = "gpt-4"
	cfg.Prompt.MaxTokens = 4000
	cfg.Scheduler.Enabled = true

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if listen := os.Getenv("INKWELL_HTTP_LISTEN"); listen != "" {
		cfg.HTTP.Listen = listen
	}
	if dataDir := os.Getenv("INKWELL_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	return cfg, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
