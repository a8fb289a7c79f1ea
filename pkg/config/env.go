package config

// Variables are read without a prefix so existing deployments keep their names.
const EnvPrefix = ""

const AppEnvProd = "prod"

const (
	EnvAppEnv          = "APP_ENV"
	EnvDiscordToken    = "DISCORD_TOKEN"
	EnvDiscordClientID = "CLIENT_ID"
	EnvGuildID         = "GUILD_ID"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIModel     = "OPENAI_MODEL"
	EnvStripeKey       = "STRIPE_SECRET_KEY"
	EnvStripeSecret    = "STRIPE_WEBHOOK_SECRET"
	EnvStripeEnv       = "STRIPE_ENV"
	EnvTiers           = "TIERS"
	EnvReviewTier      = "REVIEW_TIER"
	EnvRedisURL        = "REDIS_URL"
	EnvRateLimit       = "COMMAND_RATE_LIMIT"
	EnvRateWindow      = "COMMAND_RATE_WINDOW"
)
