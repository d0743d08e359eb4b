package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/auth"
	"github.com/ezza-forms/backend/config"
	"github.com/ezza-forms/backend/database"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/mail"
	"github.com/ezza-forms/backend/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	var superadmins int
	err = db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = 'superadmin'`).Scan(&superadmins)
	if err != nil {
		log.Fatal("main.db.check_superadmin:", err)
	}
	if superadmins == 0 {
		log.Warn("No superadmin account yet, visit /setup to create one")
	}

	a := app.App{
		DB:        db,
		Config:    cfg,
		TokenAuth: auth.NewTokenAuth(cfg.TokenSecret),
		OTPs:      auth.NewOTPStore(db, cfg.OTPTTL),
		Mailer:    mail.NewSender(cfg.SMTP),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.OTPs.RunSweeper(ctx, time.Minute)

	handler := routes.Wire(a)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
