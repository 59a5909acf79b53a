package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

type Config struct {
	ServerPort         string
	Environment        string
	FirebaseProject    string
	CredentialsJSON    string
	CredentialsPath    string
	ChatStore          string
	ChatsCollection    string
	ListingsCollection string
	AllowedOrigins     []string
	SendRatePerMinute  int
	SubscribeRetryMin  time.Duration
	SubscribeRetryMax  time.Duration
	WideLayoutDefault  bool
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		CredentialsJSON:    getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		CredentialsPath:    getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		ChatStore:          strings.ToLower(getEnv("CHAT_STORE", StoreFirestore)),
		ChatsCollection:    getEnv("CHATS_COLLECTION", "chats"),
		ListingsCollection: getEnv("LISTINGS_COLLECTION", "properties"),
		AllowedOrigins:     splitAndTrim(getEnv("ALLOWED_ORIGINS", "*")),
		SendRatePerMinute:  getEnvAsInt("SEND_RATE_PER_MINUTE", 10),
		SubscribeRetryMin:  getEnvAsDuration("SUBSCRIBE_RETRY_MIN", 500*time.Millisecond),
		SubscribeRetryMax:  getEnvAsDuration("SUBSCRIBE_RETRY_MAX", 30*time.Second),
		WideLayoutDefault:  getEnvAsBool("WS_WIDE_LAYOUT_DEFAULT", false),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) validate() error {
	switch c.ChatStore {
	case StoreFirestore:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when CHAT_STORE=%s", StoreFirestore)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported CHAT_STORE: %s", c.ChatStore)
	}
	if c.SendRatePerMinute < 1 {
		c.SendRatePerMinute = 10
	}
	if c.SubscribeRetryMax < c.SubscribeRetryMin {
		c.SubscribeRetryMax = c.SubscribeRetryMin
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
