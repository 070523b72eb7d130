package daemon

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nudge-app/nudged/internal/alerts"
	"github.com/nudge-app/nudged/internal/api"
	"github.com/nudge-app/nudged/internal/bus"
	"github.com/nudge-app/nudged/internal/config"
	"github.com/nudge-app/nudged/internal/lock"
	"github.com/nudge-app/nudged/internal/logging"
	"github.com/nudge-app/nudged/internal/notify"
	"github.com/nudge-app/nudged/internal/push"
	"github.com/nudge-app/nudged/internal/ranker"
	"github.com/nudge-app/nudged/internal/session"
	"github.com/nudge-app/nudged/internal/status"
	"github.com/nudge-app/nudged/internal/store"
	"github.com/nudge-app/nudged/internal/transport"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideCredentials,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideRanker,
			provideClient,
			provideNotifier,
			provideReceiver,
			provideListener,
			provideEngine,
			provideHandler,
			provideControl,
			provideQueryService,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(logger *zap.Logger) *config.Config {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read config, using defaults", zap.Error(err))
		}
		return config.Default()
	}
	return cfg
}

func provideCredentials(p Params) (*config.Credentials, error) {
	return config.LoadCredentials(session.CredentialsPath(p.SessionName))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideRanker(db *store.DB, cfg *config.Config, logger *zap.Logger) (*ranker.Ranker, error) {
	return ranker.New(db, cfg.Importance.Scale, cfg.Importance.MaxImportant, logger)
}

func provideClient(cfg *config.Config, creds *config.Credentials, logger *zap.Logger) transport.Client {
	return transport.NewHTTPClient(
		cfg.Server.BaseURL,
		cfg.Server.Timeout(),
		func() string { return creds.AuthToken },
		logger,
	)
}

func provideNotifier(logger *zap.Logger) notify.Notifier {
	return notify.NewDesktop(logger)
}

func provideReceiver(b *bus.Bus, logger *zap.Logger) *push.Receiver {
	return push.NewReceiver(b, logger)
}

func provideListener(p Params, r *push.Receiver, logger *zap.Logger) *push.Listener {
	return push.NewListener(session.SocketPath(p.SessionName), r, logger)
}

func provideEngine(db *store.DB, r *ranker.Ranker, client transport.Client, b *bus.Bus, n notify.Notifier, machine *status.Machine, creds *config.Credentials, logger *zap.Logger) *alerts.Engine {
	return alerts.NewEngine(db, r, client, b, n, machine, func() string { return creds.AuthToken }, logger)
}

func provideHandler(db *store.DB, r *ranker.Ranker, client transport.Client, b *bus.Bus, n notify.Notifier, creds *config.Credentials, cfg *config.Config, logger *zap.Logger) *alerts.Handler {
	return alerts.NewHandler(db, r, client, b, n,
		func() string { return creds.Username }, func() bool { return cfg.Notifications.Enabled }, logger)
}

func provideControl(p Params, engine *alerts.Engine, logger *zap.Logger) *Control {
	return NewControl(session.ControlPath(p.SessionName), engine, logger)
}

func provideQueryService(p Params, db *store.DB, b *bus.Bus, machine *status.Machine) *api.QueryService {
	return api.NewQueryService(db, b, machine, p.SessionName)
}

func registerLifecycle(lc fx.Lifecycle, db *store.DB, lk *lock.Lock, handler *alerts.Handler, listener *push.Listener, control *Control, client transport.Client, creds *config.Credentials, machine *status.Machine, queries *api.QueryService, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if friends, err := queries.ListFriends(); err == nil {
				logger.Info("roster restored", zap.Int("friends", len(friends)))
			}
			// Start consuming push traffic before the ingress opens, so
			// nothing received on registration is lost.
			handler.Start(context.Background())
			if err := listener.Start(context.Background()); err != nil {
				return err
			}
			if err := control.Start(context.Background()); err != nil {
				return err
			}

			if !creds.SignedIn() {
				logger.Info("no credentials found, auth required")
				_ = machine.Transition(status.AuthRequired)
				return nil
			}

			_ = machine.Transition(status.Ready)
			if creds.PushToken != "" {
				go func() {
					if err := client.RegisterDevice(context.Background(), creds.PushToken); err != nil {
						logger.Error("device registration failed", zap.Error(err))
						_ = machine.Transition(status.Degraded)
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			control.Stop()
			listener.Stop()
			handler.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
