// Command vaultenv-server serves the request handler over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mscno/vaultenv"
	"github.com/mscno/vaultenv/pkg/config"
	"github.com/mscno/vaultenv/pkg/handler"
	"github.com/mscno/vaultenv/pkg/logging"
	"github.com/mscno/vaultenv/pkg/oskeyring"
	"github.com/mscno/vaultenv/pkg/store"
	"github.com/mscno/vaultenv/server"
)

type flags struct {
	Config config.Config `embed:""`

	Addr        string        `help:"Listen address." default:":8080" env:"VAULTENV_SERVER_ADDR"`
	RateLimit   float64       `help:"Requests per second allowed per client IP." default:"5" env:"VAULTENV_RATE_LIMIT"`
	RateBurst   int           `help:"Burst size of the per-IP rate limit." default:"20" env:"VAULTENV_RATE_BURST"`
	NoRateLimit bool          `help:"Disable rate limiting." env:"VAULTENV_NO_RATE_LIMIT"`
	CORSOrigins []string      `help:"Allowed CORS origins (default any)." name:"cors-origin" env:"VAULTENV_CORS_ORIGINS"`
	UseKeyring  bool          `help:"Fall back to the token saved by 'vaultenv login'." env:"VAULTENV_USE_KEYRING"`
	GracePeriod time.Duration `help:"Time allowed for in-flight requests on shutdown." default:"10s"`
}

func main() {
	if err := config.LoadEnvFile(""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var f flags
	kong.Parse(&f,
		kong.Name("vaultenv-server"),
		kong.Description("HTTP front end for vaultenv."),
	)
	logger := logging.New(f.Config.Log.Level, f.Config.Log.Format, os.Stderr)

	if f.UseKeyring {
		if err := f.Config.ResolveToken(oskeyring.NewDefaultService()); err != nil {
			logger.Error("failed to read token from keyring", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, closer, err := store.Open(ctx, f.Config, logger)
	if err != nil {
		logger.Error("failed to open secret store", "error", err,
			"config_missing", errors.Is(err, vaultenv.ErrConfigMissing),
			"auth_failed", errors.Is(err, vaultenv.ErrAuthFailed))
		os.Exit(1)
	}
	defer closer.Close()

	h := handler.New(vaultenv.NewMutator(s, logger), logger)
	srv := server.New(h, logger, server.Options{
		Addr:             f.Addr,
		RateLimit:        f.RateLimit,
		RateBurst:        f.RateBurst,
		DisableRateLimit: f.NoRateLimit,
		CORSOrigins:      f.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), f.GracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			os.Exit(1)
		}
	}
}
