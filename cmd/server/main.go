// Package main is the entry point for the kinfilter API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kinfilter/internal/core/locale"
	"kinfilter/internal/domain/auth"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/infrastructure/cache"
	"kinfilter/internal/infrastructure/filterfile"
	v1 "kinfilter/internal/infrastructure/http/v1"
	"kinfilter/internal/infrastructure/storage"
	"kinfilter/pkg/logger"
)

func main() {
	cfg := loadConfig()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)
	log.Info("starting kinfilter server")

	// --- Record store ---
	store, err := storage.Open(ctx, storage.Options{
		DSN:          cfg.DatabaseURL,
		MaxConns:     int32(cfg.MaxConns),
		EnsureSchema: true,
	})
	if err != nil {
		log.Fatalw("failed to open database", "error", err)
	}
	defer store.Close()

	// --- Custom filters ---
	lib := filter.NewLibrary()
	if store.Pool != nil {
		libCache := cache.NewLibraryCache(store.Pool.Pool, lib)
		if err := libCache.EnsureSchema(ctx); err != nil {
			log.Fatalw("failed to prepare filter definitions", "error", err)
		}
		if cfg.FiltersFile != "" {
			file, err := filterfile.LoadFile(cfg.FiltersFile)
			if err != nil {
				log.Fatalw("failed to load filters file", "path", cfg.FiltersFile, "error", err)
			}
			if err := libCache.Store(ctx, file); err != nil {
				log.Fatalw("failed to publish filters file", "error", err)
			}
		}
		libCache.OnInvalidation(func(lib *filter.Library, err error) {
			if err == nil {
				log.Infow("custom filters reloaded", "namespaces", len(lib.Kinds()))
			}
		})
		if err := libCache.Start(ctx); err != nil {
			log.Fatalw("failed to load custom filters", "error", err)
		}
		defer libCache.Stop()
	} else if cfg.FiltersFile != "" {
		file, err := filterfile.LoadFile(cfg.FiltersFile)
		if err != nil {
			log.Fatalw("failed to load filters file", "path", cfg.FiltersFile, "error", err)
		}
		lib = file
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Pool:        store.Pool,
		DB:          store.DB,
		Snapshotter: store.Snapshotter,
		Library:     lib,
		Catalog:     locale.Builtin(),
		Logger:      log,
	}
	if cfg.JWTSecret != "" {
		jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
		jwtConfig.AccessTokenTTL = cfg.TokenTTL
		routerCfg.JWTValidator = auth.NewJWTService(jwtConfig)
	} else {
		log.Warn("JWT_SECRET not set, authentication disabled")
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port, "demo", store.Pool == nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
