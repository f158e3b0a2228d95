package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"depalletconsole/frontend/login"
	"depalletconsole/infrastructure/config"
	"depalletconsole/infrastructure/sqlite"
)

func main() {
	username := flag.String("username", "operator", "operator login name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	password := cfg.OperatorPassword
	if password == "" {
		log.Fatalf("OPERATOR_PASSWORD is required")
	}

	if err := seed(context.Background(), cfg.SQLitePath, os.Getenv("MIGRATIONS_DIR"), *username, password); err != nil {
		log.Fatalf("seed operator: %v", err)
	}
	fmt.Printf("seeded operator (username=%s)\n", *username)
}

// seed applies migrations to the database at dbPath and creates or resets the
// operator account.
func seed(ctx context.Context, dbPath, migrationsDir, username, password string) (err error) {
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { err = errors.Join(err, db.Close()) }()

	if err := sqlite.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return login.UpsertOperator(ctx, db, username, password)
}
