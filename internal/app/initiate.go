package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/authotp/internal/identity"
	"github.com/shandysiswandi/authotp/internal/identity/outbound/db"
	"github.com/shandysiswandi/authotp/internal/pkg/clock"
	"github.com/shandysiswandi/authotp/internal/pkg/config"
	"github.com/shandysiswandi/authotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/authotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/jwt"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/shandysiswandi/authotp/internal/pkg/messaging"
	"github.com/shandysiswandi/authotp/internal/pkg/router"
	"github.com/shandysiswandi/authotp/internal/pkg/uid"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
)

// connectRetries bounds how long startup waits for a dependency.
const connectRetries = 5

func connectBackoff() retry.Backoff {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	return retry.WithMaxRetries(connectRetries, b)
}

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	endpoint := a.config.GetString("instrument.otlp_endpoint")

	ins, err := instrument.New(a.ctx, instrument.Config{
		Enabled:          endpoint != "",
		ServiceName:      a.config.GetString("app.name"),
		ServiceVersion:   a.config.GetString("app.version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     endpoint,
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.max_goroutine"))

	v, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = v

	snow, err := uid.NewSnowflake(a.config.GetInt64("snowflake.node"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initIdentityConfig() {
	cfg, err := identity.LoadConfig(a.config, a.validator)
	if err != nil {
		slog.Error("failed to load identity config", "error", err)
		os.Exit(1)
	}
	a.identityCfg = cfg
}

func (a *App) initJWT() {
	token, err := jwt.NewHS512(a.identityCfg.JWT(a.clock, a.uuid))
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = token
}

func (a *App) initDatabase() {
	dsn := a.config.GetString("database.dsn")

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	if n := a.config.GetInt("database.max_conns"); n > 0 {
		poolCfg.MaxConns = int32(n) //nolint:gosec // bounded by config
	}
	if n := a.config.GetInt("database.min_conns"); n > 0 {
		poolCfg.MinConns = int32(n) //nolint:gosec // bounded by config
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, poolCfg)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := retry.Do(a.ctx, connectBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("DB not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("database.migrate") {
		if err := db.Migrate(dsn); err != nil {
			slog.Error("failed to migrate DB", "error", err)
			os.Exit(1)
		}
		slog.Info("DB migrations applied")
	}

	a.dbConn = pool
}

// initCache connects redis for the Idempotency-Key middleware. Without an
// address the middleware is disabled.
func (a *App) initCache() {
	addr := a.config.GetString("redis.address")
	if addr == "" {
		slog.Warn("redis address is empty, idempotency keys are disabled")
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: a.config.GetString("redis.password"),
		DB:       a.config.GetInt("redis.db"),
	})

	if err := retry.Do(a.ctx, connectBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.NewRedis(rdb)
}

func (a *App) initMail() {
	m, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("smtp.host"),
		Port:     a.config.GetInt("smtp.port"),
		Username: a.config.GetString("smtp.username"),
		Password: a.config.GetString("smtp.password"),
		From:     a.config.GetString("smtp.from"),

		DialTimeout: a.config.GetSecond("smtp.dial_timeout_seconds"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = m
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString("messaging.nats.url"),
			Name: a.config.GetString("app.name"),
			Options: []nats.Option{
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(true),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:      a.config,
		UUID:        a.uuid,
		JWT:         a.jwt,
		Instrument:  a.ins,
		Idempotency: a.idemp,
	})

	a.router.GET("/health", a.health)

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("cors.allowed_origins"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			router.HeaderIdempotencyKey,
			instrument.CorrelationIDHeader,
		},
		ExposedHeaders: []string{
			router.HeaderIdempotentReplayed,
			instrument.CorrelationIDHeader,
		},
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("server.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("server.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("server.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("server.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
