package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.LLM.Classification.Primary != "mistral-small" {
		t.Errorf("classification primary = %q", cfg.LLM.Classification.Primary)
	}
	if cfg.LLM.Generation.Primary != "mistral-large-latest" {
		t.Errorf("generation primary = %q", cfg.LLM.Generation.Primary)
	}
	if cfg.Email.PollIntervalSeconds != 30 {
		t.Errorf("poll interval = %d, want 30", cfg.Email.PollIntervalSeconds)
	}
	if cfg.Telegram.Enabled() || cfg.Email.Enabled() {
		t.Errorf("channels enabled without credentials")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9001
logging:
  level: debug
llm:
  classification:
    primary: mistral-small
    fallback: llama3.2:1b
  generation:
    primary: mistral-large-latest
    fallback: llama3.2:1b
telegram:
  token: "12345:abc"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if !cfg.Telegram.Enabled() {
		t.Errorf("telegram should be enabled")
	}
	// Fields absent from the file keep their defaults.
	if cfg.Email.SMTPPort != 587 {
		t.Errorf("smtp port = %d, want default 587", cfg.Email.SMTPPort)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "999:zzz")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.MistralAPIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.LLM.MistralAPIKey)
	}
	if cfg.Telegram.Token != "999:zzz" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != "https://a.example.com" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_TOKEN", "secret")
	os.Unsetenv("TEST_UNSET")

	cases := []struct {
		in, want string
	}{
		{"token: ${TEST_TOKEN}", "token: secret"},
		{"token: ${TEST_UNSET:-fallback}", "token: fallback"},
		{"token: ${TEST_TOKEN:-fallback}", "token: secret"},
		{"token: ${TEST_UNSET}", "token: ${TEST_UNSET}"},
		{"no refs here", "no refs here"},
	}
	for _, tc := range cases {
		if got := ExpandEnvVars(tc.in); got != tc.want {
			t.Errorf("ExpandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.Server.Port = 70000
	cfg.Logging.Level = "loud"
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("want validation error")
	}
	if !strings.Contains(err.Error(), "server.port") || !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("error = %v", err)
	}
}

func TestEmailAddrs(t *testing.T) {
	cfg := EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, IMAPHost: "imap.example.com", IMAPPort: 993}
	if got := cfg.SMTPAddr(); got != "smtp.example.com:587" {
		t.Errorf("SMTPAddr = %q", got)
	}
	if got := cfg.IMAPAddr(); got != "imap.example.com:993" {
		t.Errorf("IMAPAddr = %q", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Server.Port = 9999

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", loaded.Server.Port)
	}
}
