//	@title			Homeguide API
//	@version		1.0
//	@description	Backend for Homeguide — markdown property guides hosts share with guests via tokenized links.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homeguide/service/internal/auth"
	"github.com/homeguide/service/internal/config"
	"github.com/homeguide/service/internal/db"
	"github.com/homeguide/service/internal/image"
	"github.com/homeguide/service/internal/server"
	"github.com/homeguide/service/internal/space"
	"github.com/homeguide/service/internal/storage"
	"github.com/homeguide/service/internal/user"

	_ "github.com/homeguide/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	var userRepo user.Repository
	var spaceRepo space.Repository

	// One repository interface, two backing stores, selected here.
	switch cfg.StoreDriver {
	case "sqlite":
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite store init failed: %v", err)
		}
		defer sqlDB.Close()
		userRepo = user.NewSQLiteRepository(sqlDB)
		spaceRepo = space.NewSQLiteRepository(sqlDB)

	case "postgres":
		pool, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer pool.Close()

		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		userRepo = user.NewPostgresRepository(pool)
		spaceRepo = space.NewPostgresRepository(pool)

	default:
		log.Fatalf("unknown STORE_DRIVER %q (want postgres or sqlite)", cfg.StoreDriver)
	}

	store, err := storage.NewMinioStorage(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	// Wire dependencies: repository → service → handler
	userSvc := user.NewService(userRepo)
	authSvc := auth.NewService(userSvc, cfg)
	spaceSvc := space.NewService(spaceRepo)
	imageSvc := image.NewService(spaceRepo, store)

	r := server.New(cfg, server.Handlers{
		Auth:  auth.NewHandler(authSvc),
		User:  user.NewHandler(userSvc),
		Space: space.NewHandler(spaceSvc),
		Image: image.NewHandler(imageSvc, store, cfg.StoragePublicBase),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s, store=%s)", cfg.Port, cfg.AppEnv, cfg.StoreDriver)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
