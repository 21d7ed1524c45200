package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.addr", typ: kString, env: "STUDYBOT_SERVER_ADDR",
		apply:   func(cfg *Config, v any) { cfg.Server.Addr = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Addr },
	},
	{
		key: "survey.base_url", typ: kString, env: "STUDYBOT_SURVEY_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Survey.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Survey.BaseURL },
	},
	{
		key: "survey.id", typ: kString, env: "STUDYBOT_SURVEY_ID",
		apply:   func(cfg *Config, v any) { cfg.Survey.ID = v.(string) },
		extract: func(cfg Config) any { return cfg.Survey.ID },
	},
	{
		key: "survey.token", typ: kString, env: "STUDYBOT_SURVEY_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Survey.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Survey.Token },
	},
	{
		key: "survey.expected_answers", typ: kInt, env: "STUDYBOT_SURVEY_EXPECTED_ANSWERS",
		apply:   func(cfg *Config, v any) { cfg.Survey.ExpectedAnswers = v.(int) },
		extract: func(cfg Config) any { return cfg.Survey.ExpectedAnswers },
	},
	{
		key: "survey.page_size", typ: kInt, env: "STUDYBOT_SURVEY_PAGE_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Survey.PageSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Survey.PageSize },
	},
	{
		key: "poll.interval", typ: kDuration, env: "STUDYBOT_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Poll.Interval = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Poll.Interval },
	},
	{
		key: "dedup.backend", typ: kString, env: "STUDYBOT_DEDUP_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Dedup.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Dedup.Backend },
	},
	{
		key: "dedup.path", typ: kString, env: "STUDYBOT_DEDUP_PATH",
		apply:   func(cfg *Config, v any) { cfg.Dedup.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Dedup.Path },
	},
	{
		key: "storage.data_dir", typ: kString, env: "STUDYBOT_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "relay.base_url", typ: kString, env: "STUDYBOT_RELAY_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Relay.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Relay.BaseURL },
	},
	{
		key: "relay.timeout", typ: kDuration, env: "STUDYBOT_RELAY_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Relay.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Relay.Timeout },
	},
	{
		key: "relay.secret", typ: kString, env: "STUDYBOT_RELAY_SECRET",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Relay.Secret = v.(string) },
		extract: func(cfg Config) any { return cfg.Relay.Secret },
	},
	{
		key: "enroll.webhook_url", typ: kString, env: "STUDYBOT_ENROLL_WEBHOOK_URL",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Enroll.WebhookURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Enroll.WebhookURL },
	},
	{
		key: "enroll.timeout", typ: kDuration, env: "STUDYBOT_ENROLL_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Enroll.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Enroll.Timeout },
	},
	{
		key: "llm.base_url", typ: kString, env: "STUDYBOT_LLM_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.LLM.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.BaseURL },
	},
	{
		key: "llm.model", typ: kString, env: "STUDYBOT_LLM_MODEL",
		apply:   func(cfg *Config, v any) { cfg.LLM.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.Model },
	},
	{
		key: "llm.api_key", typ: kString, env: "STUDYBOT_LLM_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.LLM.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.APIKey },
	},
	{
		key: "sms.base_url", typ: kString, env: "STUDYBOT_SMS_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.SMS.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.SMS.BaseURL },
	},
	{
		key: "sms.account_sid", typ: kString, env: "STUDYBOT_SMS_ACCOUNT_SID",
		apply:   func(cfg *Config, v any) { cfg.SMS.AccountSID = v.(string) },
		extract: func(cfg Config) any { return cfg.SMS.AccountSID },
	},
	{
		key: "sms.auth_token", typ: kString, env: "STUDYBOT_SMS_AUTH_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.SMS.AuthToken = v.(string) },
		extract: func(cfg Config) any { return cfg.SMS.AuthToken },
	},
	{
		key: "sms.from", typ: kString, env: "STUDYBOT_SMS_FROM",
		apply:   func(cfg *Config, v any) { cfg.SMS.From = v.(string) },
		extract: func(cfg Config) any { return cfg.SMS.From },
	},
	{
		key: "sms.to", typ: kString, env: "STUDYBOT_SMS_TO",
		apply:   func(cfg *Config, v any) { cfg.SMS.To = v.(string) },
		extract: func(cfg Config) any { return cfg.SMS.To },
	},
	{
		key: "chat.survey_webhook_url", typ: kString, env: "STUDYBOT_CHAT_SURVEY_WEBHOOK_URL",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Chat.SurveyWebhookURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.SurveyWebhookURL },
	},
	{
		key: "chat.email_webhook_url", typ: kString, env: "STUDYBOT_CHAT_EMAIL_WEBHOOK_URL",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Chat.EmailWebhookURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.EmailWebhookURL },
	},
	{
		key: "pending.backend", typ: kString, env: "STUDYBOT_PENDING_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Pending.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Pending.Backend },
	},
	{
		key: "pending.ttl", typ: kDuration, env: "STUDYBOT_PENDING_TTL",
		apply:   func(cfg *Config, v any) { cfg.Pending.TTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Pending.TTL },
	},
	{
		key: "pending.max_entries", typ: kInt, env: "STUDYBOT_PENDING_MAX_ENTRIES",
		apply:   func(cfg *Config, v any) { cfg.Pending.MaxEntries = v.(int) },
		extract: func(cfg Config) any { return cfg.Pending.MaxEntries },
	},
	{
		key: "redis.url", typ: kString, env: "STUDYBOT_REDIS_URL",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Redis.URL = v.(string) },
		extract: func(cfg Config) any { return cfg.Redis.URL },
	},
	{
		key: "log.level", typ: kString, env: "STUDYBOT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("parsing duration %s=%q: %w", s.key, v, err)
				}
				s.apply(cfg, d)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kDuration:
			if d, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
