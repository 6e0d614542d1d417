package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/biblioteca-app/sessionguard"
	"github.com/biblioteca-app/sessionguard/core"
	"github.com/biblioteca-app/sessionguard/internal/config"
	"github.com/biblioteca-app/sessionguard/router"
	"github.com/biblioteca-app/sessionguard/store"
	"github.com/biblioteca-app/sessionguard/validator"
)

// app holds what a single command invocation needs. It is built lazily in
// open so that commands like help never touch the session backend.
type app struct {
	out    io.Writer
	errOut io.Writer

	envFile     string
	logLevel    string
	dumpMetrics bool

	cfg      *config.Config
	logger   sessionguard.Logger
	registry *prometheus.Registry

	session   *store.Store
	validator *validator.Validator
	router    *router.Router
	client    *sessionguard.Client
	closers   []func() error
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:           "biblioteca",
		Short:         "Terminal client for the Biblioteca API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load configuration from this .env file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override BIBLIOTECA_LOG_LEVEL")
	cmd.PersistentFlags().BoolVar(&a.dumpMetrics, "metrics", false, "print session metrics after the command")

	cmd.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newOpenCmd(a),
		newGetCmd(a),
	)

	return cmd
}

func (a *app) init() error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		return fmt.Errorf("%w: log level %q", config.ErrInvalidConfig, cfg.Logger.Level)
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
	a.logger = sessionguard.NewZerologLogger(zl)

	a.registry = prometheus.NewRegistry()

	return nil
}

// open wires the session store, the navigation guard and the API client.
func (a *app) open(ctx context.Context) error {
	if a.client != nil {
		return nil
	}

	backend, err := a.backend(ctx)
	if err != nil {
		return err
	}

	a.session, err = store.New(backend, store.WithLogger(a.logger))
	if err != nil {
		return err
	}

	a.validator, err = validator.New()
	if err != nil {
		return err
	}

	guard, err := core.New(
		core.WithTokenStore(a.session),
		core.WithValidator(a.validator),
		core.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	a.router, err = router.New(core.DefaultRoutes(), guard, router.WithLogger(a.logger))
	if err != nil {
		return err
	}

	metrics := sessionguard.NewPrometheusMetrics(a.registry)

	interceptor, err := sessionguard.NewInterceptor(
		sessionguard.WithTokenStore(a.session),
		sessionguard.WithNavigator(a.router),
		sessionguard.WithLogger(a.logger),
		sessionguard.WithMetrics(metrics),
		sessionguard.WithTracer(sessionguard.NewOpenTelemetryTracer(otel.Tracer("biblioteca"))),
	)
	if err != nil {
		return err
	}

	a.client, err = sessionguard.NewClient(a.cfg.API.BaseURL, a.session,
		sessionguard.WithTimeout(a.cfg.API.Timeout),
		sessionguard.WithInterceptor(interceptor),
		sessionguard.WithClientLogger(a.logger),
		sessionguard.WithClientMetrics(metrics),
	)
	return err
}

func (a *app) backend(ctx context.Context) (store.Backend, error) {
	switch a.cfg.Store.Backend {
	case config.StoreMemory:
		return store.NewMemory(), nil

	case config.StoreRedis:
		client, err := store.DialRedis(ctx, a.cfg.Store.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return store.NewRedis(client, store.WithKeyPrefix(a.cfg.Store.RedisPrefix))

	default:
		if dir := filepath.Dir(a.cfg.Store.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create session directory: %w", err)
			}
		}
		db, err := store.NewSQLite(a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return db, nil
	}
}

// runE opens the app for fn and closes it afterwards, whatever fn returns.
func (a *app) runE(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.close())
		}()
		if err := a.open(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd.Context(), args)
	}
}

func (a *app) close() error {
	var errs []error
	if a.dumpMetrics && a.registry != nil {
		errs = append(errs, writeMetrics(a.errOut, a.registry))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
