// Command server runs the vote backend HTTP service.
//
// The server holds the Paillier keypair, accepts client-encrypted votes,
// appends the tamper-evident audit chain, and answers aggregation queries
// without ever decrypting an individual vote.
//
// # Storage
//
// By default the server persists to PostgreSQL; --memory switches to an
// in-process store for development. Encrypted photo blobs land on the local
// filesystem under --blob-dir.
//
// # Usage
//
//	go run ./cmd/server --addr=:8000 --db-host=localhost --db-password=secret
//	go run ./cmd/server --memory --admin-token=dev-token
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fieldvotes/securevotes/api/httpserver"
	"github.com/fieldvotes/securevotes/crypto"
	"github.com/fieldvotes/securevotes/services"
)

func main() {
	var (
		addr        = flag.String("addr", ":8000", "HTTP listen address")
		enablePprof = flag.Bool("pprof", false, "Enable pprof debugging API")

		useMemory  = flag.Bool("memory", false, "Use the in-memory store instead of PostgreSQL")
		dbHost     = flag.String("db-host", "localhost", "PostgreSQL host")
		dbPort     = flag.Int("db-port", 5432, "PostgreSQL port")
		dbUser     = flag.String("db-user", "securevotes", "PostgreSQL user")
		dbPassword = flag.String("db-password", "", "PostgreSQL password (or SECUREVOTES_DB_PASSWORD)")
		dbName     = flag.String("db-name", "securevotes", "PostgreSQL database name")
		dbSSLMode  = flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")

		blobDir = flag.String("blob-dir", "./data/photos", "Directory for encrypted photo blobs")

		keyBits    = flag.Int("key-bits", crypto.DefaultKeyBits, "Paillier modulus size in bits")
		adminToken = flag.String("admin-token", "", "Static admin bearer token (or SECUREVOTES_ADMIN_TOKEN)")
		origins    = flag.String("allowed-origins", "", "Comma-separated CORS origins")

		drainDuration    = flag.Duration("drain-duration", 5*time.Second, "Wait after drain before shutdown")
		shutdownDuration = flag.Duration("shutdown-duration", 10*time.Second, "Graceful shutdown timeout")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *dbPassword == "" {
		*dbPassword = os.Getenv("SECUREVOTES_DB_PASSWORD")
	}
	if *adminToken == "" {
		*adminToken = os.Getenv("SECUREVOTES_ADMIN_TOKEN")
	}
	if *adminToken == "" {
		log.Warn("no admin token configured, admin endpoints are disabled")
	}

	var store services.VoteStore
	if *useMemory {
		log.Info("using in-memory store, data will not survive restarts")
		store = services.NewInMemoryStore()
	} else {
		pg, err := services.NewPostgresStore(&services.PostgresConfig{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Password: *dbPassword,
			Database: *dbName,
			SSLMode:  *dbSSLMode,
		})
		if err != nil {
			log.Error("connecting to PostgreSQL", "err", err)
			os.Exit(1)
		}
		store = pg
	}
	defer store.Close()

	blobs, err := services.NewFileBlobStore(*blobDir)
	if err != nil {
		log.Error("opening blob store", "dir", *blobDir, "err", err)
		os.Exit(1)
	}

	log.Info("generating keypair", "bits", *keyBits)
	keys, err := services.NewKeyring(*keyBits)
	if err != nil {
		log.Error("generating keypair", "err", err)
		os.Exit(1)
	}
	log.Info("keypair ready", "key_id", services.DefaultKeyID)

	var allowedOrigins []string
	if *origins != "" {
		allowedOrigins = strings.Split(*origins, ",")
	}

	api := services.NewAPI(&services.APIConfig{
		Store:          store,
		Blobs:          blobs,
		Keys:           keys,
		Log:            log,
		AdminToken:     *adminToken,
		AllowedOrigins: allowedOrigins,
	})

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               *addr,
		EnablePprof:              *enablePprof,
		Log:                      log,
		DrainDuration:            *drainDuration,
		GracefulShutdownDuration: *shutdownDuration,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
	}, api)
	if err != nil {
		log.Error("creating server", "err", err)
		os.Exit(1)
	}

	srv.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	srv.Shutdown()
}
