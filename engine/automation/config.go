package automation

import "time"

// Config holds configuration for the ScriptRunner
type Config struct {
	Command        string
	Timeout        time.Duration
	MaxOutputBytes int64
	MaxRetries     uint64
	RetryBase      time.Duration
	// WaitDelay bounds how long Wait blocks for I/O after the process is killed.
	WaitDelay time.Duration
}

type Option func(*Config)

func WithCommand(command string) Option {
	return func(c *Config) {
		c.Command = command
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func WithMaxOutputBytes(limit int64) Option {
	return func(c *Config) {
		c.MaxOutputBytes = limit
	}
}

// WithRetries sets how many times a transient failure is retried and the
// initial exponential backoff.
func WithRetries(maxRetries uint64, base time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryBase = base
	}
}

func WithTestConfig() Option {
	return func(c *Config) {
		*c = *TestConfig()
	}
}

func DefaultConfig() *Config {
	return &Config{
		Command:        "osascript -l JavaScript",
		Timeout:        30 * time.Second,
		MaxOutputBytes: 1 << 20,
		MaxRetries:     2,
		RetryBase:      250 * time.Millisecond,
		WaitDelay:      2 * time.Second,
	}
}

func TestConfig() *Config {
	return &Config{
		Command:        "/bin/sh",
		Timeout:        5 * time.Second,
		MaxOutputBytes: 64 * 1024,
		MaxRetries:     2,
		RetryBase:      5 * time.Millisecond,
		WaitDelay:      500 * time.Millisecond,
	}
}
