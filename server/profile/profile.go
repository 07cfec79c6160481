// Package profile resolves runtime configuration from the environment.
// Every knob is a JOT_* variable, e.g. JOT_PORT or JOT_AI_API_KEY.
package profile

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the resolved server configuration.
type Profile struct {
	// Mode is "prod" or "dev". Dev mode logs at debug level.
	Mode string `mapstructure:"mode"`
	// Addr is the bind address, empty for all interfaces.
	Addr string `mapstructure:"addr"`
	Port int    `mapstructure:"port"`
	// Data is the directory for the sqlite database and the vector index.
	Data string `mapstructure:"data"`
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// DSN is the database path (sqlite) or connection string (postgres).
	// Empty DSN with the sqlite driver defaults to Data/jot.db.
	DSN string `mapstructure:"dsn"`
	// Secret signs and verifies access tokens.
	Secret string `mapstructure:"secret"`

	// AIModel, AIAPIKey and AIBaseURL configure the chat model endpoint.
	// The base URL must be OpenAI-compatible.
	AIModel   string `mapstructure:"ai_model"`
	AIAPIKey  string `mapstructure:"ai_api_key"`
	AIBaseURL string `mapstructure:"ai_base_url"`
	// AIRateLimit caps direct agent invocations per user per minute.
	AIRateLimit int `mapstructure:"ai_rate_limit"`
	// EmbeddingModel enables the semantic note index when set.
	EmbeddingModel string `mapstructure:"embedding_model"`

	// WebhookSecret verifies inbound email webhook signatures.
	WebhookSecret string `mapstructure:"webhook_secret"`
	// AllowedSenders is a comma-separated sender allow-list for inbound
	// email. Empty means every verified sender is accepted.
	AllowedSenders string `mapstructure:"allowed_senders"`
	// MailboxBaseURL and MailboxAPIKey locate the inbound email provider
	// used to fetch full message bodies.
	MailboxBaseURL string `mapstructure:"mailbox_base_url"`
	MailboxAPIKey  string `mapstructure:"mailbox_api_key"`
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// AllowedSenderList splits the allow-list into normalized addresses.
func (p *Profile) AllowedSenderList() []string {
	if p.AllowedSenders == "" {
		return nil
	}
	parts := strings.Split(p.AllowedSenders, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if addr := strings.ToLower(strings.TrimSpace(part)); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func (p *Profile) validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		return errors.Errorf("mode must be prod or dev, got %q", p.Mode)
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("driver must be sqlite or postgres, got %q", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a dsn")
	}
	if p.Secret == "" {
		return errors.New("secret must be set")
	}
	return nil
}

// Load reads the profile from JOT_* environment variables.
func Load() (*Profile, error) {
	v := viper.New()
	v.SetEnvPrefix("jot")
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8081)
	v.SetDefault("data", "./data")
	v.SetDefault("driver", "sqlite")
	v.SetDefault("dsn", "")
	v.SetDefault("secret", "")
	v.SetDefault("ai_model", "openai/gpt-4o-mini")
	v.SetDefault("ai_api_key", "")
	v.SetDefault("ai_base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai_rate_limit", 20)
	v.SetDefault("embedding_model", "")
	v.SetDefault("webhook_secret", "")
	v.SetDefault("allowed_senders", "")
	v.SetDefault("mailbox_base_url", "")
	v.SetDefault("mailbox_api_key", "")

	profile := &Profile{}
	if err := v.Unmarshal(profile); err != nil {
		return nil, errors.Wrap(err, "unmarshal profile")
	}
	if profile.Driver == "sqlite" && profile.DSN == "" {
		profile.DSN = profile.Data + "/jot.db"
	}
	if err := profile.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	return profile, nil
}
