package config

import (
	"log"
	"os"
	"strconv"
)

const DefaultSessionExpiryDays = 7

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type Config struct {
	Env               string
	Port              string
	DBURL             string
	RedisAddr         string
	RedisPassword     string
	SessionExpiryDays int
	Google            OAuthProviderConfig
	Github            OAuthProviderConfig
	ResendAPIKey      string
	ResendFromEmail   string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func Load() *Config {
	return &Config{
		Env:               getEnv("ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DBURL:             mustGetEnv("DB_URL"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		SessionExpiryDays: getEnvAsInt("SESSION_EXPIRY_DAYS", DefaultSessionExpiryDays),
		Google: OAuthProviderConfig{
			ClientID:     mustGetEnv("GOOGLE_AUTH_CLIENT_ID"),
			ClientSecret: mustGetEnv("GOOGLE_AUTH_CLIENT_SECRET"),
			CallbackURL:  mustGetEnv("GOOGLE_AUTH_CLIENT_CALLBACK_URL"),
		},
		Github: OAuthProviderConfig{
			ClientID:     mustGetEnv("GITHUB_AUTH_CLIENT_ID"),
			ClientSecret: mustGetEnv("GITHUB_AUTH_CLIENT_SECRET"),
			CallbackURL:  mustGetEnv("GITHUB_AUTH_CLIENT_CALLBACK_URL"),
		},
		ResendAPIKey:    mustGetEnv("RESEND_API_KEY"),
		ResendFromEmail: mustGetEnv("RESEND_FROM_EMAIL"),
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
