package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/artx-bot/pkg/env"
)

type Config struct {
	App       AppConfig
	Discord   DiscordConfig
	OpenAI    OpenAIConfig
	Stripe    StripeConfig
	Tiers     TiersConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"APP_ENV" default:"dev"`
	Port         string `envconfig:"PORT" default:"3000"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DiscordConfig struct {
	Token                   string `envconfig:"DISCORD_TOKEN"`
	ApplicationID           string `envconfig:"CLIENT_ID"`
	GuildID                 string `envconfig:"GUILD_ID"`
	RegisterCommandsOnStart bool   `envconfig:"REGISTER_COMMANDS_ON_START" default:"false"`
}

type OpenAIConfig struct {
	APIKey  string `envconfig:"OPENAI_API_KEY"`
	Model   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	BaseURL string `envconfig:"OPENAI_BASE_URL"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"STRIPE_SECRET_KEY"`
	Secret     string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	Env        string `envconfig:"STRIPE_ENV" default:"test"`
	SuccessURL string `envconfig:"STRIPE_SUCCESS_URL" default:"https://discord.com/channels/@me"`
	CancelURL  string `envconfig:"STRIPE_CANCEL_URL" default:"https://discord.com/channels/@me"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// TiersConfig lists the sellable tiers. Role and price ids are read per tier
// from <TIER>_ROLE_ID and STRIPE_<TIER>_PRICE_ID.
type TiersConfig struct {
	Names      []string `envconfig:"TIERS" default:"pro,elite"`
	ReviewTier string   `envconfig:"REVIEW_TIER" default:"elite"`
}

// TierSetting is the raw per-tier configuration before catalog validation.
type TierSetting struct {
	Name    string
	RoleID  string
	PriceID string
}

// Settings resolves the per-tier variables for every configured tier name.
func (t TiersConfig) Settings() []TierSetting {
	settings := make([]TierSetting, 0, len(t.Names))
	for _, raw := range t.Names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		upper := strings.ToUpper(name)
		settings = append(settings, TierSetting{
			Name:    name,
			RoleID:  strings.TrimSpace(env.Get(RoleIDVar(upper), "")),
			PriceID: strings.TrimSpace(env.Get(PriceIDVar(upper), "")),
		})
	}
	return settings
}

// RoleIDVar names the variable holding a tier's Discord role id.
func RoleIDVar(tier string) string {
	return strings.ToUpper(tier) + "_ROLE_ID"
}

// PriceIDVar names the variable holding a tier's Stripe price id.
func PriceIDVar(tier string) string {
	return "STRIPE_" + strings.ToUpper(tier) + "_PRICE_ID"
}

type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	Address      string        `envconfig:"REDIS_ADDR"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type RateLimitConfig struct {
	CommandLimit  int           `envconfig:"COMMAND_RATE_LIMIT" default:"5"`
	CommandWindow time.Duration `envconfig:"COMMAND_RATE_WINDOW" default:"1m"`
}

// Summary describes the loaded configuration for startup logs, keyed by
// variable name. Credentials are reported as present or absent, never by value.
func (c *Config) Summary() map[string]any {
	summary := map[string]any{
		EnvAppEnv:          c.App.Env,
		EnvDiscordToken:    strings.TrimSpace(c.Discord.Token) != "",
		EnvDiscordClientID: strings.TrimSpace(c.Discord.ApplicationID) != "",
		EnvGuildID:         strings.TrimSpace(c.Discord.GuildID) != "",
		EnvOpenAIKey:       strings.TrimSpace(c.OpenAI.APIKey) != "",
		EnvStripeKey:       strings.TrimSpace(c.Stripe.APIKey) != "",
		EnvStripeSecret:    strings.TrimSpace(c.Stripe.Secret) != "",
		EnvStripeEnv:       c.Stripe.Environment(),
		EnvTiers:           strings.Join(c.Tiers.Names, ","),
		EnvReviewTier:      c.Tiers.ReviewTier,
		EnvRedisURL:        c.Redis.Enabled(),
		EnvRateLimit:       c.RateLimit.CommandLimit,
		EnvRateWindow:      c.RateLimit.CommandWindow.String(),
	}
	for _, tier := range c.Tiers.Settings() {
		summary[RoleIDVar(tier.Name)] = tier.RoleID != ""
		summary[PriceIDVar(tier.Name)] = tier.PriceID != ""
	}
	return summary
}
