package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/survey-templates/app"
	"github.com/mbolis/survey-templates/config"
	"github.com/mbolis/survey-templates/database"
	"github.com/mbolis/survey-templates/log"
	"github.com/mbolis/survey-templates/routes"
	"github.com/mbolis/survey-templates/store"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	pool, err := database.NewPool(cfg.Database)
	if err != nil {
		log.Fatal("main.db.pool:", err)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		db, err := pool.Get(context.Background())
		if err != nil {
			log.Fatal("main.db.open:", err)
		}
		if err = database.Migrate(db, cfg.Database.Driver); err != nil {
			log.Fatal("main.db.migrate:", err)
		}
	}

	app := app.New(cfg, store.New(pool))

	handler := routes.Wire(app)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("main.server.shutdown:", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-drained
	}
	return err
}
