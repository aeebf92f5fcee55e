// Command audit verifies the hash chain of a vote backend database offline.
//
// It connects directly to PostgreSQL, walks the audit log from the first
// entry, and reports the first break if the chain has been tampered with.
// Exit status is 0 for an intact chain and 1 for a broken one, so the
// command can run from cron or CI.
//
// # Usage
//
//	go run ./cmd/audit --db-host=localhost --db-password=secret
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fieldvotes/securevotes/audit"
	"github.com/fieldvotes/securevotes/services"
)

func main() {
	var (
		dbHost     = flag.String("db-host", "localhost", "PostgreSQL host")
		dbPort     = flag.Int("db-port", 5432, "PostgreSQL port")
		dbUser     = flag.String("db-user", "securevotes", "PostgreSQL user")
		dbPassword = flag.String("db-password", "", "PostgreSQL password (or SECUREVOTES_DB_PASSWORD)")
		dbName     = flag.String("db-name", "securevotes", "PostgreSQL database name")
		dbSSLMode  = flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")
	)
	flag.Parse()

	if *dbPassword == "" {
		*dbPassword = os.Getenv("SECUREVOTES_DB_PASSWORD")
	}

	store, err := services.NewPostgresStore(&services.PostgresConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPassword,
		Database: *dbName,
		SSLMode:  *dbSSLMode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	entries, err := store.AuditEntries(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading audit log: %v\n", err)
		os.Exit(1)
	}

	result := audit.Verify(entries)
	if err := result.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Chain intact: %d entries verified\n", result.Length)
}
