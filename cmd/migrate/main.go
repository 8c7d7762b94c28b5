package main

// Run database migrations:
//   go run ./cmd/migrate
// Print the migration SQL instead of applying it:
//   go run ./cmd/migrate -print

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"profile-backend/internal/shared/config"
	"profile-backend/internal/shared/storage/db"
)

func main() {
	printOnly := flag.Bool("print", false, "print migration SQL to stdout instead of applying it")
	flag.Parse()

	if *printOnly {
		sqlText, err := db.MigrationSQL()
		if err != nil {
			log.Printf("failed to render migrations: %v", err)
			os.Exit(1)
		}
		fmt.Print(sqlText)
		return
	}

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
