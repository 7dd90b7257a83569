// Package app is the shared service bootstrap: flag surface, environment,
// log files, metrics, backing-store pools, and the serve loop. Each binary
// under cmd/ fills in an App and calls Run.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/buzzblog/buzzblog/internal/config"
	"github.com/buzzblog/buzzblog/internal/hub"
	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/pgdb"
	"github.com/buzzblog/buzzblog/internal/redisdb"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// redisReadyTimeout bounds the startup Redis ping. Failure is logged, not
// fatal: the client reconnects lazily, and services may start in any order.
const redisReadyTimeout = 10 * time.Second

// Flags is the full CLI surface. Each binary binds only the groups its
// service takes.
type Flags struct {
	Host            string
	Port            int
	Threads         int
	AcceptBacklog   int
	BackendFilepath string
	Logging         int

	MicroservicePoolMinSize        int
	MicroservicePoolMaxSize        int
	MicroservicePoolAllowEphemeral bool

	PostgresPoolMinSize        int
	PostgresPoolMaxSize        int
	PostgresPoolAllowEphemeral bool
	PostgresUser               string
	PostgresPassword           string

	RedisPoolSize int

	NInvalidWords int
}

// BindCommon registers the flags every service takes.
func (f *Flags) BindCommon(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.Host, "host", "0.0.0.0", "address to listen on")
	fs.IntVar(&f.Port, "port", 0, "port to listen on")
	fs.IntVar(&f.Threads, "threads", 0, "concurrent client limit (0 = unlimited)")
	fs.IntVar(&f.AcceptBacklog, "accept_backlog", 0, "listen backlog (0 = OS default)")
	fs.StringVar(&f.BackendFilepath, "backend_filepath", "/etc/opt/BuzzBlog/backend.yml",
		"path to the backend topology file")
	fs.IntVar(&f.Logging, "logging", 1, "write monitoring log files (0/1)")
	_ = cmd.MarkFlagRequired("port")
}

// BindMicroservicePool registers the outbound RPC pool flags.
func (f *Flags) BindMicroservicePool(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.MicroservicePoolMinSize, "microservice_connection_pool_min_size", 0,
		"connections to keep open per peer service")
	fs.IntVar(&f.MicroservicePoolMaxSize, "microservice_connection_pool_max_size", 0,
		"connection cap per peer service (0 = unpooled)")
	fs.BoolVar(&f.MicroservicePoolAllowEphemeral, "microservice_connection_pool_allow_ephemeral", false,
		"open throwaway connections instead of queueing at the cap")
}

// BindPostgresPool registers the database pool and credential flags.
func (f *Flags) BindPostgresPool(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.PostgresPoolMinSize, "postgres_connection_pool_min_size", 0,
		"database sessions to keep open")
	fs.IntVar(&f.PostgresPoolMaxSize, "postgres_connection_pool_max_size", 0,
		"database session cap (0 = unpooled)")
	fs.BoolVar(&f.PostgresPoolAllowEphemeral, "postgres_connection_pool_allow_ephemeral", false,
		"open throwaway sessions instead of queueing at the cap")
	fs.StringVar(&f.PostgresUser, "postgres_user", "postgres", "database user")
	fs.StringVar(&f.PostgresPassword, "postgres_password", "postgres", "database password")
}

// BindRedis registers the Redis pool flag.
func (f *Flags) BindRedis(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.RedisPoolSize, "redis_connection_pool_size", 0,
		"redis connection pool size (0 = client default)")
}

// BindWordfilter registers the blocklist size flag.
func (f *Flags) BindWordfilter(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.NInvalidWords, "n_invalid_words", 0, "number of blocklisted words")
}

// App ties one service's components together. Set the Needs flags for the
// backing stores the service uses and NewProcessor to build its dispatcher;
// Run owns the rest.
type App struct {
	Service string
	Flags   Flags

	NeedsHub   bool
	NeedsDB    bool
	NeedsRedis bool

	// NewProcessor builds the service dispatcher once the backing stores
	// are up.
	NewProcessor func(a *App) *rpc.ServiceProcessor

	Env     config.Env
	Logs    *observability.Logs
	Backend config.Backend
	Hub     *hub.Hub
	DB      *pgdb.DB
	Redis   *redisdb.Store
	Startup *slog.Logger
}

// Run brings the service up and serves until ctx is canceled or a
// termination signal arrives. It returns nil on clean shutdown.
func (a *App) Run(ctx context.Context) error {
	a.Startup = slog.New(slog.NewTextHandler(os.Stdout, nil)).
		With(slog.String("service", a.Service))

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	a.Env = env

	if a.Flags.Logging != 0 {
		logs, err := observability.OpenLogs(env.LogDir)
		if err != nil {
			return err
		}
		a.Logs = logs
		defer a.Logs.Close()
	}

	observability.InitMetrics()
	var debugSrv *http.Server
	if env.DebugAddr != "" {
		debugSrv = a.startDebugServer(env.DebugAddr)
		defer func() { _ = debugSrv.Close() }()
	}

	backend, err := config.LoadBackend(a.Flags.BackendFilepath)
	if err != nil {
		return err
	}
	a.Backend = backend

	if err := a.openStores(ctx); err != nil {
		return err
	}
	defer a.closeStores()

	srv := &rpc.Server{
		Host:                  a.Flags.Host,
		Port:                  a.Flags.Port,
		ConcurrentClientLimit: a.Flags.Threads,
		AcceptBacklog:         a.Flags.AcceptBacklog,
		Processor:             a.NewProcessor(a),
		Log:                   a.Startup,
		Observe: func(method, outcome string, elapsed time.Duration) {
			observability.ObserveRPC(a.Service, method, outcome, elapsed)
		},
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}

func (a *App) openStores(ctx context.Context) error {
	if a.NeedsHub {
		h, err := hub.New(hub.Options{
			LocalService:   a.Service,
			Backend:        a.Backend,
			MinSize:        a.Flags.MicroservicePoolMinSize,
			MaxSize:        a.Flags.MicroservicePoolMaxSize,
			AllowEphemeral: a.Flags.MicroservicePoolAllowEphemeral,
			CallLog:        a.callLog(),
			ConnLog:        a.rpcConnLog(),
			Startup:        a.Startup,
		})
		if err != nil {
			return err
		}
		a.Hub = h
	}

	if a.NeedsDB {
		ep, ok, err := a.Backend.DatabaseEndpoint(a.Service)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("op=app.openStores service=%s: no database in backend file", a.Service)
		}
		db, err := pgdb.Open(pgdb.Options{
			LocalService:   a.Service,
			Name:           a.Service,
			Endpoint:       ep,
			User:           a.Flags.PostgresUser,
			Password:       a.Flags.PostgresPassword,
			MinSize:        a.Flags.PostgresPoolMinSize,
			MaxSize:        a.Flags.PostgresPoolMaxSize,
			AllowEphemeral: a.Flags.PostgresPoolAllowEphemeral,
			CallLog:        a.queryCallLog(),
			ConnLog:        a.queryConnLog(),
		})
		if err != nil {
			return err
		}
		a.DB = db
	}

	if a.NeedsRedis {
		ep, ok, err := a.Backend.RedisEndpoint(a.Service)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("op=app.openStores service=%s: no redis in backend file", a.Service)
		}
		a.Redis = redisdb.Open(redisdb.Options{
			LocalService: a.Service,
			Endpoint:     ep,
			PoolSize:     a.Flags.RedisPoolSize,
			Log:          a.redisLog(),
		})
		a.waitForRedis(ctx)
	}
	return nil
}

func (a *App) closeStores() {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}

// waitForRedis pings until Redis answers or the retry window runs out. The
// failure is only logged: the client connects lazily on first command.
func (a *App) waitForRedis(ctx context.Context) {
	policy := backoff.WithContext(
		backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(redisReadyTimeout)), ctx)
	err := backoff.Retry(func() error { return a.Redis.Ping(ctx) }, policy)
	if err != nil {
		a.Startup.Warn("redis not reachable at startup, continuing",
			slog.Any("error", err))
		return
	}
	a.Startup.Info("redis ready")
}

func (a *App) startDebugServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Startup.Warn("debug server stopped", slog.Any("error", err))
		}
	}()
	a.Startup.Info("debug server listening", slog.String("addr", addr))
	return srv
}

func (a *App) callLog() *slog.Logger {
	if a.Logs == nil {
		return nil
	}
	return a.Logs.RPCCall
}

func (a *App) rpcConnLog() *slog.Logger {
	if a.Logs == nil {
		return nil
	}
	return a.Logs.RPCConn
}

func (a *App) queryCallLog() *slog.Logger {
	if a.Logs == nil {
		return nil
	}
	return a.Logs.QueryCall
}

func (a *App) queryConnLog() *slog.Logger {
	if a.Logs == nil {
		return nil
	}
	return a.Logs.QueryConn
}

func (a *App) redisLog() *slog.Logger {
	if a.Logs == nil {
		return nil
	}
	return a.Logs.Redis
}
