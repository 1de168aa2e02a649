// Package config loads all process configuration from the environment at
// startup. Nothing else in the codebase reads os.Getenv; every component
// receives the piece of Config it needs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Kakao  KakaoConfig
	Email  EmailConfig
	Image  ImageConfig
}

// ServerConfig covers the HTTP listener and database location. BaseURL is
// the externally visible origin used when building links that leave the
// server, like the password-reset button in email.
type ServerConfig struct {
	Port    int
	DBPath  string
	BaseURL string
}

// AuthConfig holds the process-wide JWT signing secret.
type AuthConfig struct {
	JWTSecret string
}

// KakaoConfig covers the Kakao OAuth app. AdminKey is the app admin key used
// for the server-side unlink call on Kakao account withdrawal. When ClientID
// is empty the Kakao routes are not registered.
type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AdminKey     string
}

// EmailConfig covers the SMTP account used for verification codes and
// password-reset links. When Host is empty, mail sending is disabled and the
// email routes respond with an internal error.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// ImageConfig covers the uploaded-image store: where files land on disk and
// the public URL prefix stored in the database.
type ImageConfig struct {
	Root    string
	BaseURL string
}

// Load reads .env (if present) and then the process environment.
//
// Only JWT_SECRET is mandatory: without it no token can be issued or
// verified, so the server refuses to start. Optional subsystems (Kakao,
// SMTP) degrade to disabled with a warning from the caller.
func Load() (*Config, error) {
	// Missing .env is fine. Production sets real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:    8080,
			DBPath:  envOr("DB_PATH", "data/gamebible.db"),
			BaseURL: envOr("BASE_URL", "http://localhost:8080"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Kakao: KakaoConfig{
			ClientID:     os.Getenv("KAKAO_REST_API_KEY"),
			ClientSecret: os.Getenv("KAKAO_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("KAKAO_REDIRECT_URI"),
			AdminKey:     os.Getenv("KAKAO_ADMIN_KEY"),
		},
		Email: EmailConfig{
			Host:     os.Getenv("EMAIL_SMTP_HOST"),
			Port:     587,
			User:     os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     envOr("EMAIL_FROM", os.Getenv("EMAIL_USER")),
		},
		Image: ImageConfig{
			Root:    envOr("IMAGE_ROOT", "data/images"),
			BaseURL: envOr("IMAGE_BASE_URL", "/images"),
		},
	}

	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid HTTP_PORT %q: %w", portStr, err)
		}
		cfg.Server.Port = port
	}
	if portStr := os.Getenv("EMAIL_SMTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid EMAIL_SMTP_PORT %q: %w", portStr, err)
		}
		cfg.Email.Port = port
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET must be set")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
