package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearEnv blanks every STUDYBOT_* variable the loader looks at.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("STUDYBOT_SURVEY_ID", "190470633")
	t.Setenv("STUDYBOT_SURVEY_TOKEN", "survey-token")
}

// TestDefaults verifies all default values are applied when the config file is empty.
func TestDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	path := writeTempConfig(t, "# empty\n")

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":5000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":5000")
	}
	if cfg.Survey.ExpectedAnswers != 20 {
		t.Errorf("Survey.ExpectedAnswers = %d, want 20", cfg.Survey.ExpectedAnswers)
	}
	if cfg.Poll.Interval != 6*time.Hour {
		t.Errorf("Poll.Interval = %s, want 6h", cfg.Poll.Interval)
	}
	if cfg.Relay.Timeout != 5*time.Second {
		t.Errorf("Relay.Timeout = %s, want 5s", cfg.Relay.Timeout)
	}
	if cfg.Dedup.Backend != "file" {
		t.Errorf("Dedup.Backend = %q, want file", cfg.Dedup.Backend)
	}
	if cfg.Pending.Backend != "memory" {
		t.Errorf("Pending.Backend = %q, want memory", cfg.Pending.Backend)
	}
	if cfg.LLM.Model != "gpt-4.1" {
		t.Errorf("LLM.Model = %q, want gpt-4.1", cfg.LLM.Model)
	}
}

// TestYAMLParsing verifies that dotted keys are read from the YAML file.
func TestYAMLParsing(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	path := writeTempConfig(t, `
server.addr: ":8080"
survey.expected_answers: 12
poll.interval: 30m
dedup.backend: sqlite
storage.data_dir: /tmp/studybot-test
pending.max_entries: 50
`)

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Survey.ExpectedAnswers != 12 {
		t.Errorf("Survey.ExpectedAnswers = %d", cfg.Survey.ExpectedAnswers)
	}
	if cfg.Poll.Interval != 30*time.Minute {
		t.Errorf("Poll.Interval = %s", cfg.Poll.Interval)
	}
	if cfg.Dedup.Backend != "sqlite" {
		t.Errorf("Dedup.Backend = %q", cfg.Dedup.Backend)
	}
	if cfg.Pending.MaxEntries != 50 {
		t.Errorf("Pending.MaxEntries = %d", cfg.Pending.MaxEntries)
	}
	if got, want := cfg.SeenPath(), filepath.Join("/tmp/studybot-test", "seen_responses.json"); got != want {
		t.Errorf("SeenPath() = %q, want %q", got, want)
	}
}

// TestEnvOverride verifies that environment variables override file values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	path := writeTempConfig(t, "survey.expected_answers: 12\n")
	t.Setenv("STUDYBOT_SURVEY_EXPECTED_ANSWERS", "25")
	t.Setenv("STUDYBOT_RELAY_TIMEOUT", "2s")

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Survey.ExpectedAnswers != 25 {
		t.Errorf("Survey.ExpectedAnswers = %d, want 25", cfg.Survey.ExpectedAnswers)
	}
	if cfg.Relay.Timeout != 2*time.Second {
		t.Errorf("Relay.Timeout = %s, want 2s", cfg.Relay.Timeout)
	}
}

// TestSecretsIgnoredInFile verifies secrets are only taken from the environment.
func TestSecretsIgnoredInFile(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	path := writeTempConfig(t, "llm.api_key: from-file\n")

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("LLM.APIKey = %q, want empty", cfg.LLM.APIKey)
	}
}

// TestMissingRequiredField verifies a clear error when the survey credentials are absent.
func TestMissingRequiredField(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "# empty\n")

	_, err := loadWith(newFileBackend(path))
	if err == nil {
		t.Fatal("expected error for missing survey config, got nil")
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("error = %q, want it to mention missing required config", err.Error())
	}
	if !strings.Contains(err.Error(), "STUDYBOT_SURVEY_TOKEN") {
		t.Errorf("error = %q, want it to name STUDYBOT_SURVEY_TOKEN", err.Error())
	}
}

func TestInvalidBackends(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	t.Setenv("STUDYBOT_PENDING_BACKEND", "redis")
	if _, err := loadWith(newFileBackend(writeTempConfig(t, ""))); err == nil {
		t.Error("expected error for redis backend without redis.url")
	}

	t.Setenv("STUDYBOT_PENDING_BACKEND", "")
	t.Setenv("STUDYBOT_DEDUP_BACKEND", "postgres")
	if _, err := loadWith(newFileBackend(writeTempConfig(t, ""))); err == nil {
		t.Error("expected error for unknown dedup backend")
	}
}

func TestSetKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studybot", "config.yaml")
	b := newFileBackend(path)

	if err := setKey(b, "survey.expected_answers", "18"); err != nil {
		t.Fatalf("setKey: %v", err)
	}
	if err := setKey(b, "poll.interval", "1h"); err != nil {
		t.Fatalf("setKey: %v", err)
	}
	if err := setKey(b, "poll.interval", "soon"); err == nil {
		t.Error("expected error for invalid duration")
	}
	if err := setKey(b, "llm.api_key", "x"); err == nil {
		t.Error("expected error when setting a secret")
	}
	if err := setKey(b, "no.such.key", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownKey", err)
	}

	reloaded := newFileBackend(path)
	v, ok, err := reloaded.GetInt("survey.expected_answers")
	if err != nil || !ok || v != 18 {
		t.Errorf("GetInt = (%d, %v, %v), want (18, true, nil)", v, ok, err)
	}
	s, ok, _ := reloaded.GetString("poll.interval")
	if !ok || s != "1h" {
		t.Errorf("GetString(poll.interval) = (%q, %v), want (1h, true)", s, ok)
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.LLM.APIKey = "super-secret"
	for _, k := range ShowAll(cfg) {
		if strings.Contains(k.Value, "super-secret") {
			t.Errorf("ShowAll leaked secret via key %s", k.Key)
		}
	}
	for _, k := range ValidKeys() {
		if k == "llm.api_key" {
			t.Error("ValidKeys should not include secrets")
		}
	}
}
