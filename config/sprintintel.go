package config

import "time"

// TrackerConfig configures the Tracker Client (section 4.1).
type TrackerConfig struct {
	BaseURL       string
	AuthMethod    string // token, basic, oauth
	Email         string
	Username      string
	Password      string
	Token         string
	OAuthClientID string
	OAuthSecret   string
	MaxRetries    int
	RetryDelay    time.Duration
	Timeout       time.Duration
}

// LoadTrackerConfig loads tracker client configuration from environment.
func LoadTrackerConfig(prefix string) TrackerConfig {
	env := NewEnvConfig(prefix)
	return TrackerConfig{
		BaseURL:       env.GetString("BASE_URL", ""),
		AuthMethod:    env.GetString("AUTH_METHOD", "token"),
		Email:         env.GetString("EMAIL", ""),
		Username:      env.GetString("USERNAME", ""),
		Password:      env.GetString("PASSWORD", ""),
		Token:         env.GetString("TOKEN", ""),
		OAuthClientID: env.GetString("OAUTH_CLIENT_ID", ""),
		OAuthSecret:   env.GetString("OAUTH_SECRET", ""),
		MaxRetries:    env.GetInt("MAX_RETRIES", 3),
		RetryDelay:    env.GetDuration("RETRY_DELAY", time.Second),
		Timeout:       env.GetDuration("TIMEOUT", 30*time.Second),
	}
}

// RateLimitConfig bounds the tracker client's per-instance token bucket.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

// LoadRateLimitConfig loads rate limit configuration from environment.
func LoadRateLimitConfig(prefix string) RateLimitConfig {
	env := NewEnvConfig(prefix)
	return RateLimitConfig{
		RequestsPerWindow: env.GetInt("REQUESTS_PER_WINDOW", 100),
		Window:            env.GetDuration("WINDOW", 60*time.Second),
	}
}

// WebhookConfig configures webhook ingestion (section 4.5).
type WebhookConfig struct {
	Secret       string
	RedisURL     string
	KeyPrefix    string
	QueueName    string
	WorkerCount  int
	MaxAttempts  int
}

// LoadWebhookConfig loads webhook configuration from environment.
func LoadWebhookConfig(prefix string) WebhookConfig {
	env := NewEnvConfig(prefix)
	return WebhookConfig{
		Secret:      env.GetString("SECRET", ""),
		RedisURL:    env.GetString("REDIS_URL", "redis://localhost:6379/0"),
		KeyPrefix:   env.GetString("KEY_PREFIX", "sprintintel:webhook:"),
		QueueName:   env.GetString("QUEUE_NAME", "events"),
		WorkerCount: env.GetInt("WORKER_COUNT", 2),
		MaxAttempts: env.GetInt("MAX_ATTEMPTS", 3),
	}
}

// RetentionConfig configures the audit log's retention policy (section 4.9).
type RetentionConfig struct {
	RetentionDays int
	DryRunDefault bool
}

// LoadRetentionConfig loads retention configuration from environment.
func LoadRetentionConfig(prefix string) RetentionConfig {
	env := NewEnvConfig(prefix)
	return RetentionConfig{
		RetentionDays: env.GetInt("RETENTION_DAYS", 2555),
		DryRunDefault: env.GetBool("DRY_RUN_DEFAULT", true),
	}
}

// SSOConfig configures OIDC/SSO authentication for incoming requests.
type SSOConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	JWTSecret    string
	JWTExpiry    time.Duration
}

// LoadSSOConfig loads SSO configuration from environment.
func LoadSSOConfig(prefix string) SSOConfig {
	env := NewEnvConfig(prefix)
	return SSOConfig{
		IssuerURL:    env.GetString("ISSUER_URL", ""),
		ClientID:     env.GetString("CLIENT_ID", ""),
		ClientSecret: env.GetString("CLIENT_SECRET", ""),
		RedirectURL:  env.GetString("REDIRECT_URL", ""),
		JWTSecret:    env.GetString("JWT_SECRET", ""),
		JWTExpiry:    env.GetDuration("JWT_EXPIRY", 24*time.Hour),
	}
}

// SprintIntelConfig composes every domain configuration section alongside
// the common ServerConfig/ServiceConfig/AuthConfig sections and a single
// PostgreSQL DSN.
type SprintIntelConfig struct {
	Server    ServerConfig
	Service   ServiceConfig
	Auth      AuthConfig
	Database  string // PostgreSQL DSN, assembled separately from the generic DatabaseConfig
	Tracker   TrackerConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Retention RetentionConfig
	SSO       SSOConfig
}

// LoadSprintIntelConfig loads every configuration section under prefix.
func LoadSprintIntelConfig(prefix string) SprintIntelConfig {
	env := NewEnvConfig(prefix)
	return SprintIntelConfig{
		Server:    LoadServerConfig(prefix),
		Service:   LoadServiceConfig(prefix),
		Auth:      LoadAuthConfig(prefix + "_AUTH"),
		Database:  env.GetString("DATABASE_DSN", "postgres://localhost:5432/sprintintel?sslmode=disable"),
		Tracker:   LoadTrackerConfig(prefix + "_TRACKER"),
		RateLimit: LoadRateLimitConfig(prefix + "_RATE_LIMIT"),
		Webhook:   LoadWebhookConfig(prefix + "_WEBHOOK"),
		Retention: LoadRetentionConfig(prefix + "_RETENTION"),
		SSO:       LoadSSOConfig(prefix + "_SSO"),
	}
}

// Validate checks the fields required for the service to start.
func (c SprintIntelConfig) Validate() error {
	validator := NewValidator()
	validator.RequireString("Service.Name", c.Service.Name)
	validator.RequireOneOf("Service.Environment", c.Service.Environment,
		[]string{"development", "staging", "production"})
	validator.RequirePositiveInt("Server.Port", c.Server.Port)
	validator.RequireURL("Tracker.BaseURL", c.Tracker.BaseURL)
	validator.RequireOneOf("Tracker.AuthMethod", c.Tracker.AuthMethod,
		[]string{"token", "basic", "oauth"})
	return validator.Validate()
}
