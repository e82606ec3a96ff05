package sqlite

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config describes how a pool opens its database.
type Config struct {
	Path           string
	MaxConnections int
	BusyTimeout    time.Duration
	ForeignKeys    bool
}

// ParseConfig parses a space-separated option string of key=value pairs.
// Supported keys: path (required), max_connections, busy_timeout (ms),
// foreign_keys (true/false).
func ParseConfig(options string) (*Config, error) {
	args := make(map[string]string)

	for _, pair := range strings.Split(options, " ") {
		kv := strings.SplitN(pair, "=", 2)

		if len(kv) == 2 {
			args[kv[0]] = kv[1]
		}
	}

	if args["path"] == "" {
		return nil, errors.New("path is required")
	}

	config := &Config{
		BusyTimeout:    5 * time.Second,
		MaxConnections: 10,
		Path:           args["path"],
	}

	if v := args["max_connections"]; v != "" {
		n, err := strconv.Atoi(v)

		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid max_connections: %q", v)
		}

		config.MaxConnections = n
	}

	if v := args["busy_timeout"]; v != "" {
		ms, err := strconv.Atoi(v)

		if err != nil || ms < 0 {
			return nil, fmt.Errorf("invalid busy_timeout: %q", v)
		}

		config.BusyTimeout = time.Duration(ms) * time.Millisecond
	}

	if v := args["foreign_keys"]; v != "" {
		enabled, err := strconv.ParseBool(v)

		if err != nil {
			return nil, fmt.Errorf("invalid foreign_keys: %q", v)
		}

		config.ForeignKeys = enabled
	}

	return config, nil
}

// dsn renders the config as a modernc.org/sqlite data source name. Pragmas
// ride along as _pragma query parameters so every pooled connection gets
// them applied.
func (c *Config) dsn() string {
	params := []string{}

	if c.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}

	if c.ForeignKeys {
		params = append(params, "_pragma=foreign_keys(1)")
	}

	if len(params) == 0 {
		return c.Path
	}

	return "file:" + c.Path + "?" + strings.Join(params, "&")
}
