package util

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string   `mapstructure:"PORT" validate:"required,number"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS" validate:"dive,url"`
	LogLevel       string   `mapstructure:"LOG_LEVEL" validate:"required,oneof=trace debug info warn error"`
	LogPretty      bool     `mapstructure:"LOG_PRETTY"`
	StaticDir      string   `mapstructure:"STATIC_DIR" validate:"required"`
	GinMode        string   `mapstructure:"GIN_MODE" validate:"required,oneof=debug release test"`
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	pretty, _ := strconv.ParseBool(os.Getenv("LOG_PRETTY"))

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      pretty,
		StaticDir:      getEnv("STATIC_DIR", "./frontend"),
		GinMode:        getEnv("GIN_MODE", "release"),
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func splitList(s string) []string {
	out := []string{}

	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
