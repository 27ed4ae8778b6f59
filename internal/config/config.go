package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the support orchestrator.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	LLM      LLMConfig      `yaml:"llm"`
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
	History  HistoryConfig  `yaml:"history"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	AllowedMethods []string `yaml:"allowedMethods"`
	AllowedHeaders []string `yaml:"allowedHeaders"`
	StaticDir      string   `yaml:"staticDir,omitempty"` // web UI mount, optional
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// LLMConfig configures the gateway's providers. Classification and generation
// each carry a primary (Mistral) and a fallback (Ollama) model.
type LLMConfig struct {
	MistralAPIKey  string      `yaml:"mistralApiKey,omitempty"`
	MistralAPIBase string      `yaml:"mistralApiBase,omitempty"`
	OllamaBaseURL  string      `yaml:"ollamaBaseUrl,omitempty"`
	Classification ModelPair   `yaml:"classification"`
	Generation     ModelPair   `yaml:"generation"`
}

type ModelPair struct {
	Primary  string `yaml:"primary"`
	Fallback string `yaml:"fallback"`
}

type TelegramConfig struct {
	Token string `yaml:"token,omitempty"`
}

// Enabled reports whether the Telegram channel has the credentials it needs.
// A missing token disables the channel, it never fails startup.
func (c TelegramConfig) Enabled() bool { return c.Token != "" }

type EmailConfig struct {
	SMTPHost            string `yaml:"smtpHost,omitempty"`
	SMTPPort            int    `yaml:"smtpPort,omitempty"`
	IMAPHost            string `yaml:"imapHost,omitempty"`
	IMAPPort            int    `yaml:"imapPort,omitempty"`
	Username            string `yaml:"username,omitempty"`
	Password            string `yaml:"password,omitempty"`
	PollIntervalSeconds int    `yaml:"pollIntervalSeconds,omitempty"`
}

// Enabled reports whether the email channel has the credentials it needs.
func (c EmailConfig) Enabled() bool {
	return c.Username != "" && c.Password != "" && c.SMTPHost != ""
}

func (c EmailConfig) SMTPAddr() string { return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort) }
func (c EmailConfig) IMAPAddr() string { return fmt.Sprintf("%s:%d", c.IMAPHost, c.IMAPPort) }

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"dbPath,omitempty"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults returns the baseline configuration. Hosts and ports mirror the
// common Gmail setup; everything secret stays empty until the environment
// provides it.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		LLM: LLMConfig{
			MistralAPIBase: "https://api.mistral.ai/v1",
			OllamaBaseURL:  "http://ollama:11434",
			Classification: ModelPair{Primary: "mistral-small", Fallback: "llama3.2:1b"},
			Generation:     ModelPair{Primary: "mistral-large-latest", Fallback: "llama3.2:1b"},
		},
		Email: EmailConfig{
			SMTPHost:            "",
			SMTPPort:            587,
			IMAPHost:            "imap.gmail.com",
			IMAPPort:            993,
			PollIntervalSeconds: 30,
		},
		History: HistoryConfig{
			Enabled: false,
			DBPath:  "data/tickets.db",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads the YAML config at path (if it exists), expands ${VAR} and
// ${VAR:-default} references, then applies plain environment overrides. A
// .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
			}
		} else {
			data = []byte(ExpandEnvVars(string(data)))
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// applyEnv maps the process environment onto the config. Environment values
// win over file values so deployments can configure credentials without
// editing the file.
func applyEnv(cfg *Config) {
	setString(&cfg.LLM.MistralAPIKey, "MISTRAL_API_KEY")
	setString(&cfg.LLM.OllamaBaseURL, "OLLAMA_BASE_URL")
	setString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Email.Username, "EMAIL_USERNAME")
	setString(&cfg.Email.Password, "EMAIL_PASSWORD")
	setString(&cfg.Email.SMTPHost, "EMAIL_SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "EMAIL_SMTP_PORT")
	setString(&cfg.Email.IMAPHost, "EMAIL_IMAP_HOST")
	setInt(&cfg.Email.IMAPPort, "EMAIL_IMAP_PORT")
	setString(&cfg.Server.Host, "APP_HOST")
	setInt(&cfg.Server.Port, "APP_PORT")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("ALLOWED_METHODS"); v != "" {
		cfg.Server.AllowedMethods = splitCSV(v)
	}
	if v := os.Getenv("ALLOWED_HEADERS"); v != "" {
		cfg.Server.AllowedHeaders = splitCSV(v)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envVarPattern matches ${VAR} and ${VAR:-default} in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name := groups[1]
		def := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			def = groups[2]
		}
		val, exists := os.LookupEnv(name)
		if !exists || val == "" {
			if hasDefault {
				return def
			}
			return match
		}
		return val
	})
}

// Validate checks that the config has sane values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	switch cfg.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, "logging.format must be one of: text, json")
	}
	if cfg.Email.PollIntervalSeconds < 1 {
		errs = append(errs, "email.pollIntervalSeconds must be >= 1")
	}
	if cfg.LLM.Classification.Primary == "" || cfg.LLM.Generation.Primary == "" {
		errs = append(errs, "llm.classification.primary and llm.generation.primary are required")
	}
	if cfg.History.Enabled && cfg.History.DBPath == "" {
		errs = append(errs, "history.dbPath is required when history is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Save writes the config as YAML, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
