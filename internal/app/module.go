package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/authotp/internal/identity"
	"github.com/shandysiswandi/authotp/internal/notification"
)

func (a *App) initModules() {
	if err := identity.New(identity.Dependency{
		Config:     a.identityCfg,
		DBConn:     a.dbConn,
		Router:     a.router,
		Instrument: a.ins,
		UID:        a.uid,
		Clock:      a.clock,
		Validator:  a.validator,
		JWT:        a.jwt,
		Mail:       a.mail,
		Messaging:  a.messaging,
	}); err != nil {
		slog.Error("failed to init module identity", "error", err)
		os.Exit(1)
	}

	// The consumer side only runs when codes travel through the broker.
	if a.identityCfg.NotifierDriver == identity.NotifierMessaging {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Mail:        a.mail,
			Goroutine:   a.goroutine,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Validator:   a.validator,
			Subject:     a.identityCfg.NotifierSubject,
			OTPTTL:      a.identityCfg.OTPTTL,
			Concurrency: a.config.GetInt("messaging.consumer_concurrency"),
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
