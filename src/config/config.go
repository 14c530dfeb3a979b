package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type GlobalConfig struct {
	APIBaseURL     string
	TokenPath      string
	LogLevel       string
	AMQPUrl        string
	StatusExchange string
	RazorpayKeyID  string
	StubAddr       string
}

func NewConfig() (GlobalConfig, error) {
	apiBaseURL := os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		return GlobalConfig{}, fmt.Errorf("API_BASE_URL environment variable is required")
	}

	tokenPath := os.Getenv("TOKEN_PATH")
	if tokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return GlobalConfig{}, fmt.Errorf("TOKEN_PATH not set and home directory unavailable: %w", err)
		}
		tokenPath = filepath.Join(home, ".laundry", "tokens.json")
	}

	return GlobalConfig{
		APIBaseURL:     apiBaseURL,
		TokenPath:      tokenPath,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AMQPUrl:        os.Getenv("AMQP_URL"),
		StatusExchange: getEnv("STATUS_EXCHANGE", "laundry.order-status"),
		RazorpayKeyID:  os.Getenv("RAZORPAY_KEY_ID"),
		StubAddr:       getEnv("STUB_ADDR", ":8080"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
