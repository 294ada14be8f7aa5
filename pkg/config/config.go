package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port                    string
	Env                     string
	StoreDriver             string
	MongoURI                string
	MongoDatabase           string
	PostgresConnStr         string
	JWTSecret               string
	RefreshTokenSecret      string
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	FirebaseCredentialsPath string
	ClientOrigins           []string
	LogLevel                string
}

// Load reads the configuration from the environment, after merging a .env
// file when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		StoreDriver:             getEnv("STORE_DRIVER", StoreMongo),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialmedia"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		RefreshTokenSecret:      getEnv("REFRESH_TOKEN_SECRET", ""),
		AccessTokenTTL:          getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:         getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		ClientOrigins:           getList("CLIENT_ORIGIN", []string{"*"}),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports the first setting that makes the server unable to start.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" || c.RefreshTokenSecret == "" {
		return fmt.Errorf("JWT_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if c.JWTSecret == c.RefreshTokenSecret {
		return fmt.Errorf("JWT_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// getList splits a comma-separated variable, dropping empty items.
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
