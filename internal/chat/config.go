package chat

import (
	"os"
	"strconv"
)

const (
	defaultAddr           = ":9001"
	defaultOutboundBuffer = 64
)

// Config holds the listener addresses and per-client limits.
type Config struct {
	Addr           string // TCP line protocol listener
	WebSocketAddr  string // optional; empty disables the /ws endpoint
	MetricsAddr    string // optional; empty disables /metrics
	OutboundBuffer int    // queued lines per client before it is dropped as too slow
	MaxNameLength  int    // 0 means unlimited
}

func DefaultConfig() Config {
	return Config{
		Addr:           defaultAddr,
		OutboundBuffer: defaultOutboundBuffer,
	}
}

// ConfigFromEnv starts from DefaultConfig and applies CHAT_* environment
// variables. Malformed numeric values keep the default.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if addr := os.Getenv("CHAT_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if addr := os.Getenv("CHAT_WS_ADDR"); addr != "" {
		cfg.WebSocketAddr = addr
	}
	if addr := os.Getenv("CHAT_METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	if v := os.Getenv("CHAT_OUTBOUND_BUFFER"); v != "" {
		cfg.OutboundBuffer = parseIntValue(v, cfg.OutboundBuffer)
	}
	if v := os.Getenv("CHAT_MAX_NAME_LENGTH"); v != "" {
		cfg.MaxNameLength = parseIntValue(v, cfg.MaxNameLength)
	}
	return cfg
}

func (c Config) sanitize() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.OutboundBuffer <= 0 {
		c.OutboundBuffer = defaultOutboundBuffer
	}
	if c.MaxNameLength < 0 {
		c.MaxNameLength = 0
	}
	return c
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}
