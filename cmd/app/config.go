package main

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type config struct {
	ProfileDir   string
	Profile      string
	DaemonURL    string
	AdminKey     string
	MaxPeers     int
	GeoIPPath    string
	DNSTimeout   time.Duration
	DNSWorkers   int
	LogLevel     string
	LogBodyLimit int
	Host         string
	Port         string
}

// loadConfig reads envFile (if present) into the environment without
// overriding variables that are already set, then builds the config.
func loadConfig(envFile string) (config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config{}, err
		}
	}
	return config{
		ProfileDir:   getEnv("TRG_PROFILE_DIR", "configs/profiles"),
		Profile:      getEnv("TRG_PROFILE", ""),
		DaemonURL:    getEnv("TRG_URL", ""),
		AdminKey:     getEnv("TRG_ADMIN_KEY", ""),
		MaxPeers:     getEnvInt("TRG_MAX_PEERS", 0),
		GeoIPPath:    getEnv("TRG_GEOIP_PATH", "/usr/share/GeoIP/GeoLite2-Country.mmdb"),
		DNSTimeout:   time.Duration(getEnvInt("TRG_DNS_TIMEOUT_MS", 5000)) * time.Millisecond,
		DNSWorkers:   getEnvInt("TRG_DNS_WORKERS", 8),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogBodyLimit: getEnvInt("TRG_LOG_BODY_LIMIT", 4096),
		Host:         getEnv("SERVER_HOST", "127.0.0.1"),
		Port:         getEnv("SERVER_PORT", "8080"),
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
