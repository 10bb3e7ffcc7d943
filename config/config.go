package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppMode        string
	APIBaseURL     string
	WSBaseURL      string
	AccessToken    string
	RequestTimeout int

	// Dev server settings.
	ServerPort   string
	JWTSecret    string
	JWTExpiryMin int
	SeedPassword string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppMode:        getEnv("APP_MODE", "development"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
		WSBaseURL:      getEnv("WS_BASE_URL", "ws://localhost:8080"),
		AccessToken:    getEnv("ACCESS_TOKEN", ""),
		RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT_SEC", 15),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		JWTExpiryMin:   getEnvAsInt("JWT_EXPIRY_MIN", 60),
		SeedPassword:   getEnv("SEED_PASSWORD", "Talent@123!"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
