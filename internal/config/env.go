// Package config provides environment helpers for go-spotter commands.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvSource    = "SPOTTER_SOURCE"
	EnvDepthDir  = "SPOTTER_DEPTH_DIR"
	EnvOutputDir = "SPOTTER_OUTPUT_DIR"
	EnvWebPort   = "SPOTTER_WEB_PORT"
	EnvLogLevel  = "SPOTTER_LOG_LEVEL"
	EnvLogFile   = "SPOTTER_LOG_FILE"
)

// LoadDotEnv loads variables from the given .env files (default ".env").
// A missing file is not an error; variables already set in the
// environment are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// String returns the env var named key, or def if unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var named key parsed as an int, or def.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
