package config

import (
	"errors"
	"os"
	"time"
)

type AWS struct {
	Region  string
	Bucket  string
	RoleARN string
}

type Google struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	FrontendURL string

	AWS    AWS
	Google Google

	ClovaAPIKey string
	ClovaAPIURL string

	TokenTTL time.Duration
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from the environment. DATABASE_URL and JWT_SECRET
// are required; everything else has a fallback or degrades the related feature.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		AWS: AWS{
			Region:  getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:  os.Getenv("AWS_S3_BUCKET"),
			RoleARN: os.Getenv("ROLE_ARN"),
		},
		Google: Google{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URI"),
		},
		ClovaAPIKey: os.Getenv("CLOVA_API_KEY"),
		ClovaAPIURL: getEnv("CLOVA_API_URL", "https://clovastudio.stream.ntruss.com/testapp/v3/chat-completions/HCX-005"),
		TokenTTL:    time.Hour,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}
