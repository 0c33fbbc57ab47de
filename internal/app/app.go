package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/authotp/internal/identity"
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

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config      config.Config
	identityCfg identity.Config
	ins         instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Store
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initIdentityConfig()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
