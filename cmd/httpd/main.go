package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sndbox/httpd"
)

var (
	addr            = flag.String("addr", "127.0.0.1:4221", "listen address")
	directory       = flag.String("directory", "", "storage root for /files/")
	maxHeaderBytes  = flag.Int("max-header-bytes", 8<<10, "limit for request line and headers")
	maxBodyBytes    = flag.Int("max-body-bytes", 32<<20, "limit for request bodies")
	readTimeout     = flag.Duration("read-timeout", 0, "time allowed to receive a request, 0 waits forever")
	allowBinary     = flag.Bool("allow-binary", false, "serve files that are not valid UTF-8")
	shutdownTimeout = flag.Duration("shutdown-timeout", 5*time.Second, "time allowed for in-flight connections on exit")
	logLevel        = flag.String("log-level", "info", "trace, debug, info, warn or error")
	logJSON         = flag.Bool("log-json", false, "log JSON lines instead of console output")
)

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if *logJSON {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func main() {
	flag.Parse()
	logger := newLogger()

	cfg := httpd.DefaultConfig()
	cfg.Addr = *addr
	cfg.Directory = *directory
	cfg.MaxHeaderBytes = *maxHeaderBytes
	cfg.MaxBodyBytes = *maxBodyBytes
	cfg.ReadTimeout = *readTimeout
	cfg.AllowBinary = *allowBinary
	cfg.Logger = &logger
	srv := httpd.NewServer(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		sig := <-sigCh
		logger.Info().Stringer("signal", sig).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("shutdown incomplete")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, httpd.ErrServerClosed) {
		logger.Fatal().Err(err).Str("addr", *addr).Msg("failed to serve")
	}
	<-drained
}
