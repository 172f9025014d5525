package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/timex"
)

// jsonConfig mirrors Config for decoding. Durations accept "15m" style
// strings or integer nanoseconds.
type jsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDriver              string         `json:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LogFormat                   string         `json:"log_format"`
	HashTime                    uint32         `json:"hash_time"`
	HashMemoryKiB               uint32         `json:"hash_memory_kib"`
	HashThreads                 uint8          `json:"hash_threads"`
}

// parseJSON overlays the values present in the file at path onto config.
// Keys absent from the file leave the current value untouched.
func parseJSON(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogFormat, c.LogFormat)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.HashTime != 0 {
		config.HashTime = c.HashTime
	}
	if c.HashMemoryKiB != 0 {
		config.HashMemoryKiB = c.HashMemoryKiB
	}
	if c.HashThreads != 0 {
		config.HashThreads = c.HashThreads
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
