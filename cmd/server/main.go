// Copyright 2026 The Accessgate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/accessgate/accessgate/internal/accessobject"
	"github.com/accessgate/accessgate/internal/audit"
	"github.com/accessgate/accessgate/internal/config"
	"github.com/accessgate/accessgate/internal/observability/logger"
	"github.com/accessgate/accessgate/internal/observability/metrics"
	"github.com/accessgate/accessgate/internal/observability/tracing"
	"github.com/accessgate/accessgate/internal/rights"
	"github.com/accessgate/accessgate/internal/role"
	"github.com/accessgate/accessgate/internal/store/postgres"
	"github.com/accessgate/accessgate/internal/store/sqlite"
	transportHTTP "github.com/accessgate/accessgate/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting accessgate rights service")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	_, err = metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Load the access object tree. It is immutable reference data; a
	// broken definition is a deployment error, so fail fast.
	tree, err := accessobject.LoadFile(cfg.AccessTree.Path)
	if err != nil {
		slog.Error("failed to load access object tree", logger.Error(err))
		os.Exit(1)
	}
	slog.Info("loaded access object tree",
		logger.String("path", cfg.AccessTree.Path),
		logger.ActionCount(len(tree.AllActionNames())),
	)

	// Initialize repositories
	roleRepo, grantRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", logger.Error(err))
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("connected to store", logger.String("driver", cfg.Database.Driver))

	// Initialize services
	auditLogger := audit.NewSlogLogger()
	roleService := role.NewService(roleRepo, auditLogger)
	evaluator := rights.NewEvaluator(roleService, tree, grantRepo)
	reassigner := rights.NewReassigner(roleService, tree, grantRepo, auditLogger)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		roleService,
		evaluator,
		reassigner,
		auditLogger,
		transportHTTP.AuthConfig{
			JWTSecret:       cfg.Auth.JWTSecret,
			AdminPermission: cfg.Auth.AdminPermission,
		},
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

// openStore selects the persistence driver from configuration
func openStore(ctx context.Context, cfg *config.Config) (role.Repository, rights.GrantRepository, func(), error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.New(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewRoleRepository(db), sqlite.NewGrantRepository(db), func() { db.Close() }, nil
	default:
		db, err := postgres.New(ctx, postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			Database:     cfg.Database.Database,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return postgres.NewRoleRepository(db), postgres.NewGrantRepository(db), db.Close, nil
	}
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()

	if cfg.Database.Driver == "sqlite" {
		// Schema is applied on open for sqlite.
		db, err := sqlite.New(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return err
		}
		return db.Close()
	}

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
