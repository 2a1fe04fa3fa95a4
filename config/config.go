package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, populated from environment
// variables. GroqAPIKey is deliberately not marked required: its absence is
// surfaced as an analysis-time error naming the variable, not a boot failure.
type Config struct {
	Port           string `env:"PORT" envDefault:"8080"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`

	// Fiber default BodyLimit is 4 MiB if unset (per docs).
	BodyLimitBytes int `env:"BODY_LIMIT_BYTES" envDefault:"4194304"`

	RateLimitMax           int `env:"RATE_LIMIT_MAX" envDefault:"60"`
	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`

	DBHost     string `env:"DB_HOST" envDefault:"db"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBName     string `env:"DB_NAME,required"`

	// Identity provider. JWKSURL wins when set; otherwise it is derived from
	// the Supabase project id.
	SupabaseProjectID string `env:"SUPABASE_PROJECT_ID"`
	JWKSURL           string `env:"JWKS_URL"`
	JWTAudience       string `env:"JWT_AUDIENCE" envDefault:"authenticated"`
	JWKSCacheSeconds  int    `env:"JWKS_CACHE_SECONDS" envDefault:"3600"`

	// LLM provider (OpenAI-compatible chat completions).
	GroqAPIKey      string  `env:"GROQ_API_KEY"`
	GroqBaseURL     string  `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel       string  `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	GroqMaxTokens   int     `env:"GROQ_MAX_TOKENS" envDefault:"2048"`
	GroqTemperature float32 `env:"GROQ_TEMPERATURE" envDefault:"0.1"`
}

// Load reads .env (when present) and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.JWKSURL == "" && cfg.SupabaseProjectID != "" {
		cfg.JWKSURL = fmt.Sprintf("https://%s.supabase.co/rest/v1/auth/jwks", cfg.SupabaseProjectID)
	}
	return cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}
