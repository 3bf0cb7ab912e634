package config

import (
	"os"
	"strconv"
	"strings"
)

// mergeEnvVars applies ROTATE_* environment overrides on top of whatever
// the config file provided.
func (c *Config) mergeEnvVars() {
	if v := os.Getenv("ROTATE_ROOT_DIR"); v != "" {
		c.RootDir = v
	}
	if v := os.Getenv("ROTATE_LOCK_PATH"); v != "" {
		c.LockPath = v
	}
	setIntFromEnv("ROTATE_LOCK_TIMEOUT_SEC", func(n int) { c.LockTimeoutSec = n })
	setIntFromEnv("ROTATE_TOTAL_ACCOUNTS", func(n int) { c.TotalAccounts = n })
	if v := os.Getenv("ROTATE_TOOL_BINARY"); v != "" {
		c.ToolBinary = v
	}
	setIntFromEnv("ROTATE_TOOL_TIMEOUT_SEC", func(n int) { c.ToolTimeoutSec = n })
	setIntFromEnv("ROTATE_MAX_RETRIES", func(n int) { c.MaxRetries = n })
	if v := os.Getenv("ROTATE_PING_PROMPT"); v != "" {
		c.PingPrompt = v
	}
	setIntFromEnv("ROTATE_PORT", func(n int) { c.Port = n })
	setToggleFromEnv("ROTATE_RATE_LIMIT_ENABLED", func(b bool) { c.RateLimitEnabled = b })
	setIntFromEnv("ROTATE_RATE_LIMIT_RPS", func(n int) { c.RateLimitRPS = n })
	setIntFromEnv("ROTATE_RATE_LIMIT_BURST", func(n int) { c.RateLimitBurst = n })
	setToggleFromEnv("ROTATE_DEBUG", func(b bool) { c.Debug = b })
	if v := os.Getenv("ROTATE_LOG_FILE"); v != "" {
		c.LogFile = v
	}
}

func setIntFromEnv(key string, setter func(int)) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			setter(n)
		}
	}
}

func setToggleFromEnv(key string, setter func(bool)) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return
	}
	switch v {
	case "1", "true", "yes", "on":
		setter(true)
	case "0", "false", "no", "off":
		setter(false)
	}
}
