package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// WhatsApp Cloud API (channel provider)
	WhatsAppAccessToken   string `mapstructure:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneNumberID string `mapstructure:"WHATSAPP_PHONE_NUMBER_ID"`
	VerifyToken           string `mapstructure:"VERIFY_TOKEN"`

	// Collaborators
	OpenAIAPIKey      string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel       string `mapstructure:"OPENAI_MODEL"`
	ElevenLabsAPIKey  string `mapstructure:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID string `mapstructure:"ELEVENLABS_VOICE_ID"`

	// Scheduled check-in
	CronSecret      string `mapstructure:"CRON_SECRET"`
	CheckInSchedule string `mapstructure:"CHECKIN_SCHEDULE"`

	// Ingestion worker pool
	IngestWorkers   int `mapstructure:"INGEST_WORKERS"`
	IngestQueueSize int `mapstructure:"INGEST_QUEUE_SIZE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("INGEST_WORKERS", 4)
	v.SetDefault("INGEST_QUEUE_SIZE", 64)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("WHATSAPP_ACCESS_TOKEN")
	v.BindEnv("WHATSAPP_PHONE_NUMBER_ID")
	v.BindEnv("VERIFY_TOKEN")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("OPENAI_MODEL")
	v.BindEnv("ELEVENLABS_API_KEY")
	v.BindEnv("ELEVENLABS_VOICE_ID")
	v.BindEnv("CRON_SECRET")
	v.BindEnv("CHECKIN_SCHEDULE")
	v.BindEnv("INGEST_WORKERS")
	v.BindEnv("INGEST_QUEUE_SIZE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Provider dashboards are notorious for trailing whitespace in pasted
	// credentials; a stray space breaks the bearer header.
	cfg.WhatsAppAccessToken = strings.TrimSpace(cfg.WhatsAppAccessToken)
	cfg.WhatsAppPhoneNumberID = strings.TrimSpace(cfg.WhatsAppPhoneNumberID)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SpeechEnabled reports whether the speech-synthesis collaborator is
// configured. Voice replies are skipped entirely when it is not.
func (c *Config) SpeechEnabled() bool {
	return c.ElevenLabsAPIKey != "" && c.ElevenLabsVoiceID != ""
}

// Validate checks that the configuration is safe to run. Outside development
// the channel credentials and verification secret must be present, otherwise
// the webhook cannot be subscribed and outbound sends will silently fail.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.WhatsAppAccessToken == "" {
			return fmt.Errorf("WHATSAPP_ACCESS_TOKEN is required outside development")
		}
		if c.WhatsAppPhoneNumberID == "" {
			return fmt.Errorf("WHATSAPP_PHONE_NUMBER_ID is required outside development")
		}
		if c.VerifyToken == "" {
			return fmt.Errorf("VERIFY_TOKEN is required outside development")
		}
	}
	if c.IngestWorkers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be at least 1, got %d", c.IngestWorkers)
	}
	if c.IngestQueueSize < 1 {
		return fmt.Errorf("INGEST_QUEUE_SIZE must be at least 1, got %d", c.IngestQueueSize)
	}
	if c.CheckInSchedule != "" && c.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET is required when CHECKIN_SCHEDULE is set")
	}
	return nil
}
