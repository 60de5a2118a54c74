package main

import "time"

// ConnectionConfig is the opaque connection configuration the core treats
// as an external input: it never interprets Palette values, only loads and
// forwards them to whatever renders the UI.
type ConnectionConfig struct {
	Driver  string `yaml:"driver" envDefault:"postgres"`
	DSN     string `yaml:"dsn" env:"TILESQL_DSN"`
	AppName string `yaml:"app_name" envDefault:"tilesql"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" envDefault:"10s"`
	MaxRetries     int           `yaml:"max_retries" envDefault:"3"`
	RetryBackoff   time.Duration `yaml:"retry_backoff" envDefault:"200ms"`
	CircuitBreak   int           `yaml:"circuit_break" envDefault:"5"`

	Debug bool `yaml:"debug" envDefault:"false"`

	// Palette is passed through unparsed; the core never reads its keys or
	// values, it only loads them from the config file and hands them to
	// whatever component renders the terminal UI.
	Palette map[string]string `yaml:"palette"`
}
