package channel

import "time"

// Config holds channel settings loaded from the environment.
type Config struct {
	BaseURL           string        `env:"NOTIFICATIONS_BASE_URL" envDefault:"ws://localhost:8000"`
	BatchField        string        `env:"NOTIFICATIONS_BATCH_FIELD" envDefault:"lectures"`
	KeepaliveInterval time.Duration `env:"NOTIFICATIONS_KEEPALIVE_INTERVAL" envDefault:"0s"`
	ReadTimeout       time.Duration `env:"NOTIFICATIONS_READ_TIMEOUT" envDefault:"0s"`
	WriteTimeout      time.Duration `env:"NOTIFICATIONS_WRITE_TIMEOUT" envDefault:"10s"`
	HandshakeTimeout  time.Duration `env:"NOTIFICATIONS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "ws://localhost:8000",
		BatchField:       "lectures",
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}
