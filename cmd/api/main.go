package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warden-api/warden/internal/auth"
	"github.com/warden-api/warden/internal/config"
	"github.com/warden-api/warden/internal/httpapi"
	"github.com/warden-api/warden/internal/obs"
	"github.com/warden-api/warden/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres when a DSN is configured, in-memory otherwise. The in-memory
	// store keeps local development and tests free of infrastructure.
	var (
		store   auth.Store
		pgStore *pg.Store
	)
	if cfg.PGDSN != "" {
		pgStore, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		log.Println("no WARDEN_PG_DSN set, using in-memory store")
		store = auth.NewMemStore()
	}

	seedCtx, seedCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := auth.EnsureDefaults(seedCtx, store); err != nil {
		seedCancel()
		log.Fatalf("seed defaults: %v", err)
	}
	seedCancel()

	issuer, err := auth.NewTokenIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	authSvc, err := auth.NewService(store, issuer)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	rbacSvc, err := auth.NewRBACService(store)
	if err != nil {
		log.Fatalf("rbac service: %v", err)
	}

	probe := httpapi.ReadyProbe{}
	if pgStore != nil {
		probe.DB = pgStore.DB()
	}

	api := httpapi.New(probe, version, authSvc, rbacSvc)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting warden-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	if cfg.GRPCAddr != "" {
		grpcSrv := httpapi.NewGRPCHealthServer(probe)
		go func() {
			log.Printf("Starting gRPC health on %s", cfg.GRPCAddr)
			if err := grpcSrv.Serve(ctx, cfg.GRPCAddr); err != nil {
				log.Fatalf("grpc: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}
