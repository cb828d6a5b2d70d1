package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Auth   AuthConfig   `mapstructure:"auth"`
	AI     AIConfig     `mapstructure:"ai"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowedOrigins  string        `mapstructure:"cors-allowed-origins"`
	AllowedMethods  string        `mapstructure:"cors-allowed-methods"`
	AllowedHeaders  string        `mapstructure:"cors-allowed-headers"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"` // empty disables Redis; sessions stay in memory
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session-ttl"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"` // empty disables transcripts and results
	Database string `mapstructure:"database"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt-secret"`
	TokenTTL  time.Duration `mapstructure:"token-ttl"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// env names kept for deployments configured by environment only
var envBindings = map[string]string{
	"server.port":                 "PORT",
	"server.cors-allowed-origins": "CORS_ALLOWED_ORIGINS",
	"server.cors-allowed-methods": "CORS_ALLOWED_METHODS",
	"server.cors-allowed-headers": "CORS_ALLOWED_HEADERS",
	"redis.addr":                  "REDIS_URI",
	"redis.password":              "REDIS_PASSWORD",
	"mongo.uri":                   "MONGO_URI",
	"mongo.database":              "MONGO_DATABASE",
	"auth.jwt-secret":             "JWT_SECRET",
	"ai.api-key":                  "GEMINI_API_KEY",
	"ai.model":                    "GEMINI_MODEL",
	"log.json":                    "LOG_JSON",
	"log.debug":                   "LOG_DEBUG",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors-allowed-origins", "*")
	v.SetDefault("server.cors-allowed-methods", "GET, POST, PUT, DELETE, OPTIONS")
	v.SetDefault("server.cors-allowed-headers", "Content-Type, Authorization")
	v.SetDefault("server.shutdown-timeout", 30*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session-ttl", 24*time.Hour)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "careerchat")

	v.SetDefault("auth.jwt-secret", "super-secret-key-change-in-production")
	v.SetDefault("auth.token-ttl", 24*time.Hour)

	v.SetDefault("ai.api-key", "")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 20*time.Second)
	v.SetDefault("ai.max-attempts", 3)
	v.SetDefault("ai.temperature", 0.7)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load reads defaults, then the optional config file at path, then the environment
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	replacer := strings.NewReplacer(".", "_", "-", "_")
	v.SetEnvPrefix("CAREERCHAT")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, "CAREERCHAT_"+strings.ToUpper(replacer.Replace(key)), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Redis.Addr = strings.TrimPrefix(cfg.Redis.Addr, "redis://")
	if cfg.AI.MaxAttempts < 1 {
		cfg.AI.MaxAttempts = 1
	}
	return &cfg, nil
}
