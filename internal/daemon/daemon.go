package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/waflora/waflora/internal/api"
	"github.com/waflora/waflora/internal/app/accounts"
	"github.com/waflora/waflora/internal/app/catalog"
	"github.com/waflora/waflora/internal/app/ledger"
	"github.com/waflora/waflora/internal/infra/sqlite"
)

const shutdownTimeout = 15 * time.Second

// Daemon owns the open database and the services built on it.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Ledger   *ledger.Ledger
	Catalog  *catalog.Service
	Accounts *accounts.Service
	Server   *api.Server
}

// New opens the database and wires every service.
func New(cfg Config) (*Daemon, error) {
	opts := sqlite.DefaultOptions()
	if cfg.Database.BusyTimeoutMS > 0 {
		opts.BusyTimeout = time.Duration(cfg.Database.BusyTimeoutMS) * time.Millisecond
	}
	db, err := sqlite.OpenWithOptions(cfg.DataDir(), opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	acct, err := accounts.New(db, cfg.AccountsConfig())
	if err != nil {
		db.Close()
		return nil, err
	}

	d := &Daemon{
		Config:   cfg,
		DB:       db,
		Ledger:   ledger.New(db),
		Catalog:  catalog.New(db),
		Accounts: acct,
	}
	d.Server = api.NewServer(d.Ledger, d.Catalog, d.Accounts)
	if cfg.Metrics.Enabled {
		d.Server.EnableMetrics()
	}
	if cfg.API.SecureCookies {
		d.Server.SecureCookies()
	}
	return d, nil
}

// AccountsConfig converts the [auth] section.
func (c Config) AccountsConfig() accounts.Config {
	ac := accounts.DefaultConfig()
	if c.Auth.AdminUsername != "" {
		ac.AdminUsername = c.Auth.AdminUsername
	}
	ac.AdminPasswordHash = c.Auth.AdminPasswordHash
	if c.Auth.SessionSecret != "" {
		ac.SessionSecret = []byte(c.Auth.SessionSecret)
	}
	ac.SessionTTL = parseDuration(c.Auth.SessionTTL, ac.SessionTTL)
	return ac
}

// Run listens on the configured address until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.Config.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.Config.Addr(), err)
	}
	return d.Serve(ctx, ln)
}

// Serve handles HTTP on ln and shuts down gracefully when ctx is done.
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      d.Server.Handler(),
		ReadTimeout:  parseDuration(d.Config.API.ReadTimeout, 10*time.Second),
		WriteTimeout: parseDuration(d.Config.API.WriteTimeout, 30*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("db", d.DB.Path()).Msg("wa flora ledger listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

// Close releases the database.
func (d *Daemon) Close() error {
	return d.DB.Close()
}

// ConfigureLogging sets the global zerolog logger from the [log] section.
func ConfigureLogging(c LogConfig) error {
	level := zerolog.InfoLevel
	if c.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(c.Level))
		if err != nil {
			return fmt.Errorf("log level %q: %w", c.Level, err)
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)

	switch strings.ToLower(c.Format) {
	case "", "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		return fmt.Errorf("log format %q: want console or json", c.Format)
	}
	return nil
}
