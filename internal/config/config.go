package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Survey  SurveyConfig
	Poll    PollConfig
	Dedup   DedupConfig
	Storage StorageConfig
	Relay   RelayConfig
	Enroll  EnrollConfig
	LLM     LLMConfig
	SMS     SMSConfig
	Chat    ChatConfig
	Pending PendingConfig
	Redis   RedisConfig
	Log     LogConfig
}

type ServerConfig struct {
	Addr string
}

type SurveyConfig struct {
	BaseURL         string
	ID              string
	Token           string
	ExpectedAnswers int
	PageSize        int
}

type PollConfig struct {
	Interval time.Duration
}

// DedupConfig selects where the seen-response set lives. Backend is "file"
// or "sqlite"; an empty Path resolves to <data_dir>/seen_responses.json.
type DedupConfig struct {
	Backend string
	Path    string
}

type StorageConfig struct {
	DataDir string
}

type RelayConfig struct {
	BaseURL string
	Timeout time.Duration
	Secret  string
}

type EnrollConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

type SMSConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

type ChatConfig struct {
	SurveyWebhookURL string
	EmailWebhookURL  string
}

type PendingConfig struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
}

type RedisConfig struct {
	URL string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":5000",
		},
		Survey: SurveyConfig{
			BaseURL:         "https://api.surveymonkey.ca/v3",
			ExpectedAnswers: 20,
			PageSize:        100,
		},
		Poll: PollConfig{
			Interval: 6 * time.Hour,
		},
		Dedup: DedupConfig{
			Backend: "file",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Relay: RelayConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 5 * time.Second,
		},
		Enroll: EnrollConfig{
			Timeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4.1",
		},
		SMS: SMSConfig{
			BaseURL: "https://api.twilio.com",
		},
		Pending: PendingConfig{
			Backend:    "memory",
			TTL:        72 * time.Hour,
			MaxEntries: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the YAML config file and STUDYBOT_*
// environment variables. Environment variables win over file values.
// Secrets are only read from the environment.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.Survey.ID == "" {
		missing = append(missing, "survey.id (STUDYBOT_SURVEY_ID)")
	}
	if c.Survey.Token == "" {
		missing = append(missing, "survey.token (STUDYBOT_SURVEY_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	switch c.Dedup.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid dedup.backend %q: want file or sqlite", c.Dedup.Backend)
	}
	switch c.Pending.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("pending.backend is redis but redis.url is empty")
		}
	default:
		return fmt.Errorf("invalid pending.backend %q: want memory or redis", c.Pending.Backend)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval)
	}
	return nil
}

// SeenPath returns the dedup file location, defaulting into the data dir.
func (c Config) SeenPath() string {
	if c.Dedup.Path != "" {
		return c.Dedup.Path
	}
	return joinDataDir(c.Storage.DataDir, "seen_responses.json")
}
