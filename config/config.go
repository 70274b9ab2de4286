package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/qwinza/tani-web/internal/payment"
)

type Config struct {
	// Server Settings
	AppPort     string
	Host        string
	DatabaseURL string

	// JWT Settings
	JWTSecret string

	// Payment gateway settings, injected into the adapter at startup.
	Midtrans payment.Config
}

func LoadConfig() *Config {
	// A missing .env is fine in deployed environments; variables come from
	// the process there.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	config := &Config{
		AppPort:     getEnv("PORT", "3000"),
		Host:        getEnv("HOST", "0.0.0.0"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Midtrans: payment.Config{
			ServerKey:    os.Getenv("MIDTRANS_SERVER_KEY"),
			ClientKey:    os.Getenv("MIDTRANS_CLIENT_KEY"),
			IsProduction: os.Getenv("MIDTRANS_IS_PRODUCTION") == "true",
			SnapBaseURL:  os.Getenv("MIDTRANS_SNAP_BASE_URL"),
		},
	}

	return config
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
