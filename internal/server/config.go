package server

import "time"

// Config holds server configuration
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	// BroadcastEvery sends one state frame per this many ticks.
	BroadcastEvery int `yaml:"broadcast_every"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	MaxMessageSize int64 `yaml:"max_message_size"`
	SendBuffer     int   `yaml:"send_buffer"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8080",
		BroadcastEvery:  2,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingInterval:    25 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxMessageSize:  4 * 1024,
		SendBuffer:      64,
	}
}
