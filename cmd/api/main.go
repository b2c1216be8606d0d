package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/impactlens/impact-backend/config"
	"github.com/impactlens/impact-backend/internal/assessments"
	"github.com/impactlens/impact-backend/internal/bootstrap"
	"github.com/impactlens/impact-backend/internal/cron"
	"github.com/impactlens/impact-backend/internal/mailer"
	"github.com/impactlens/impact-backend/internal/provider"
	"github.com/impactlens/impact-backend/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:       cfg.Database.DSN,
		ConnectTO: cfg.Database.ConnectTO,
		PingTO:    cfg.Database.PingTO,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := bootstrap.Migrate(ctx, cfg.Database.DSN); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	authClient := provider.New(cfg.Provider.URL, cfg.Provider.PublicKey)
	mail := mailer.New(cfg.Mailer.APIKey, cfg.Mailer.From)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Auth:   authClient,
		Mail:   mail,
	})

	sched := cron.NewScheduler(
		session.NewStore(rdb, cfg.Session.TTL),
		assessments.NewRepo(db),
	)
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
