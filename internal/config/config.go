package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Chat      ChatConfig      `yaml:"chat"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	GinMode         string        `yaml:"gin_mode"         env:"GIN_MODE"                env-default:"release"`
}

// StorageConfig selects the row store. "memory" keeps everything in process.
type StorageConfig struct {
	Driver      string `yaml:"driver"       env:"STORAGE_DRIVER" env-default:"memory"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
}

// RedisConfig enables the shared token blacklist. Empty URL means in-process.
type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"    env-required:"true"`
	JWTIssuer string        `yaml:"jwt_issuer" env:"JWT_ISSUER"    env-default:"pollchat"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"JWT_TOKEN_TTL" env-default:"24h"`
}

// ChatConfig holds the presence windows and feed size.
type ChatConfig struct {
	StaleAfter        time.Duration `yaml:"stale_after"        env:"CHAT_STALE_AFTER"        env-default:"5m"`
	TypingWindow      time.Duration `yaml:"typing_window"      env:"CHAT_TYPING_WINDOW"      env-default:"5s"`
	RecentLimit       int           `yaml:"recent_limit"       env:"CHAT_RECENT_LIMIT"       env-default:"50"`
	TimestampLocation string        `yaml:"timestamp_location" env:"CHAT_TIMESTAMP_LOCATION" env-default:"UTC"`
}

// RateLimitConfig bounds posting per user. A zero rate disables the limiter.
type RateLimitConfig struct {
	PostsPerSecond float64 `yaml:"posts_per_second" env:"RATE_LIMIT_POSTS_PER_SECOND" env-default:"5"`
	Burst          int     `yaml:"burst"            env:"RATE_LIMIT_BURST"            env-default:"10"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"INFO"`
}
