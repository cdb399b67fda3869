package main

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Host         string
	Port         string
	GoogleAPIKey string
	Environment  string

	RoomCodeLength int
	PingInterval   time.Duration
	IdleTimeout    time.Duration // participant inactivity before forced disconnect
	RoomDrainGrace time.Duration // how long an empty room survives
	SweepInterval  time.Duration
	MaxMessageSize int64

	WSRateWindow   time.Duration
	WSRateMax      int
	HTTPRateWindow time.Duration
	HTTPRateMax    int
	GenRateWindow  time.Duration
	GenRateMax     int
}

func LoadConfig() *Config {
	return &Config{
		Host:         envStr("HOST", "0.0.0.0"),
		Port:         envStr("PORT", "1234"),
		GoogleAPIKey: envStr("GOOGLE_API_KEY", ""),
		Environment:  envStr("ENVIRONMENT", "development"),

		RoomCodeLength: envInt("ROOM_CODE_LENGTH", 4),
		PingInterval:   time.Duration(envInt("PING_INTERVAL", 30)) * time.Second,
		IdleTimeout:    time.Duration(envInt("IDLE_TIMEOUT", 300)) * time.Second,
		RoomDrainGrace: time.Duration(envInt("ROOM_DRAIN_GRACE", 60)) * time.Second,
		SweepInterval:  time.Duration(envInt("SWEEP_INTERVAL", 10)) * time.Second,
		MaxMessageSize: int64(envInt("MAX_MESSAGE_SIZE", 1048576)),

		WSRateWindow:   time.Duration(envInt("WS_RATE_WINDOW", 60)) * time.Second,
		WSRateMax:      envInt("WS_RATE_MAX", 20),
		HTTPRateWindow: time.Duration(envInt("HTTP_RATE_WINDOW", 60)) * time.Second,
		HTTPRateMax:    envInt("HTTP_RATE_MAX", 100),
		GenRateWindow:  time.Duration(envInt("GEN_RATE_WINDOW", 5)) * time.Second,
		GenRateMax:     envInt("GEN_RATE_MAX", 1),
	}
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
