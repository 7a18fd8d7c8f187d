package httpd

import (
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Addr string
	// Directory is the storage root. Empty means unconfigured: writes
	// fail with 500 and reads with 404.
	Directory string

	MaxHeaderBytes int // request line plus header block
	MaxBodyBytes   int
	// ReadTimeout bounds the wait for a complete request. Zero blocks
	// until the peer sends or closes.
	ReadTimeout time.Duration
	// AllowBinary serves non-UTF-8 files instead of answering 404.
	AllowBinary bool

	Logger *zerolog.Logger // nil disables logging
}

func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:4221",
		MaxHeaderBytes: defaultMaxHeaderBytes,
		MaxBodyBytes:   defaultMaxBodyBytes,
	}
}

func (c *Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}
