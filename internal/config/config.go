package config

import (
	"crypto/rand"
	"log"
	"os"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from env.
type Config struct {
	Port               string
	DatabaseURL        string
	ValkeyAddr         string
	ValkeyPassword     string
	TMDBAPIKey         string
	TMDBLanguage       string
	AdminPassword      string
	AdminPasswordHash  string
	SessionSecret      []byte
	SessionTTL         time.Duration
	Env                string
	CORSAllowedOrigins []string
}

func FromEnv() Config {
	c := Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		ValkeyAddr:        os.Getenv("VALKEY_ADDR"),
		ValkeyPassword:    os.Getenv("VALKEY_PASSWORD"),
		TMDBAPIKey:        os.Getenv("TMDB_API_KEY"),
		TMDBLanguage:      getEnv("TMDB_LANGUAGE", "en-US"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		Env:               getEnv("ENV", "development"),
	}
	if s := os.Getenv("CORS_ALLOWED_ORIGINS"); s != "" {
		parts := strings.Split(s, ",")
		for _, p := range parts {
			if v := strings.TrimSpace(p); v != "" {
				c.CORSAllowedOrigins = append(c.CORSAllowedOrigins, v)
			}
		}
	}
	c.SessionTTL = 24 * time.Hour
	if s := os.Getenv("SESSION_TTL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			log.Printf("warning: invalid SESSION_TTL %q, using default: %v", s, err)
		} else {
			c.SessionTTL = d
		}
	}
	// session secret: raw bytes from env; if empty, generate ephemeral (all
	// sessions die on restart, which is acceptable for this service)
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		c.SessionSecret = []byte(s)
	} else {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err == nil {
			c.SessionSecret = buf
		} else {
			log.Printf("warning: failed to generate session secret: %v", err)
			c.SessionSecret = []byte("insecure-default")
		}
	}
	return c
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
