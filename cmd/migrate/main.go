package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"catalogue/internal/platform/postgres"

	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, reset, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	loadEnvFiles()
	dir := migrationsDir()

	if *command == "create" {
		if *name == "" {
			log.Fatal("Name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		fmt.Printf("Migration created: %s\n", *name)
		return
	}

	ctx := context.Background()
	pool, err := postgres.Open(ctx, dsn())
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", postgres.RedactDSN(dsn()), err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, dir, *command); err != nil {
		log.Fatalf("Migration %s failed: %v", *command, err)
	}
	fmt.Printf("Migration %s completed\n", *command)
}
