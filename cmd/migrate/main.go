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

// Command migrate applies the database schema.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/accessgate/accessgate/internal/config"
	"github.com/accessgate/accessgate/internal/store/postgres"
	"github.com/accessgate/accessgate/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Migration successful.")
}

func run(cfg *config.Config) error {
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

	return db.Migrate(ctx, postgres.InitialSchema)
}
