package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   int
	AdminEnabled bool
	Database     DatabaseConfig
	Auth         AuthConfig
	Events       EventsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type AuthConfig struct {
	JWTSecret   string
	Issuer      string
	Audience    string
	TokenTTL    time.Duration
	BcryptCost  int
	MinUsername int
	MaxUsername int
	MinPassword int
	MaxPassword int
}

type EventsConfig struct {
	// Backend selects the broker: "rabbitmq", "pubsub", or "" to disable
	// event publishing entirely.
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "signon"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "signon_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	authConfig := AuthConfig{
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Issuer:      getEnv("JWT_ISSUER", "signon-id"),
		Audience:    getEnv("JWT_AUDIENCE", "signon-mobile"),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
		BcryptCost:  getEnvInt("BCRYPT_COST", 12),
		MinUsername: getEnvInt("USERNAME_MIN_LEN", 3),
		MaxUsername: getEnvInt("USERNAME_MAX_LEN", 50),
		MinPassword: getEnvInt("PASSWORD_MIN_LEN", 4),
		MaxPassword: getEnvInt("PASSWORD_MAX_LEN", 100),
	}

	eventsConfig := EventsConfig{
		Backend: getEnv("EVENTS_BACKEND", ""),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort:   getEnvInt("SERVER_PORT", 8080),
		AdminEnabled: getEnvBool("ADMIN_ENABLED", false),
		Database:     dbConfig,
		Auth:         authConfig,
		Events:       eventsConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
