package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/decred/slog"
	"github.com/joho/godotenv"
	"github.com/jrick/logrotate/rotator"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cardtable/pokerroom/pkg/server"
	"github.com/cardtable/pokerroom/internal/db"
)

const sweepInterval = 5 * time.Second

func main() {
	// .env overlays defaults; explicit flags win over both.
	_ = godotenv.Load()

	var (
		dbPath      string
		listenAddr  string
		identityURL string
		logFile     string
		debugLevel  string
		seed        int64
	)
	flag.StringVar(&dbPath, "db", envOr("POKERROOM_DB", "pokerroom.sqlite"), "Path to SQLite database file (created if missing)")
	flag.StringVar(&listenAddr, "listen", envOr("POKERROOM_LISTEN", "127.0.0.1:8080"), "Address to listen on")
	flag.StringVar(&identityURL, "identity", envOr("POKERROOM_IDENTITY_URL", ""), "Base URL of the identity service (empty = dev mode, token doubles as user id)")
	flag.StringVar(&logFile, "logfile", envOr("POKERROOM_LOGFILE", ""), "If set, also log to this rotated file")
	flag.StringVar(&debugLevel, "debuglevel", envOr("POKERROOM_DEBUGLEVEL", "info"), "Logging level: trace, debug, info, warn, error")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for decks (0 = random)")
	flag.Parse()

	log, closeLog, err := newLogger(logFile, debugLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	store, err := db.Open(dbPath)
	if err != nil {
		log.Errorf("failed to init db: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var identity server.Identity
	if identityURL != "" {
		identity = server.NewHTTPIdentity(identityURL, log)
	} else {
		log.Warnf("no identity service configured, running in dev mode: bearer tokens are trusted as user ids")
		identity = &server.StaticIdentity{TokenAsID: true}
	}

	srv := server.New(server.Config{
		DB:       store,
		Identity: identity,
		Log:      log,
		Seed:     seed,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Turn deadlines are also enforced lazily on each action; the sweep keeps
	// abandoned tables moving when nobody is sending requests.
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.SweepExpiredTurns(ctx)
			}
		}
	}()

	httpSrv := &http.Server{
		Addr:         listenAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		log.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Infof("listening on %s (db %s)", listenAddr, dbPath)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("serve error: %v", err)
		os.Exit(1)
	}
}

// newLogger builds the slog logger, writing to stdout and optionally a
// rotated file.
func newLogger(logFile, level string) (slog.Logger, func(), error) {
	w := io.Writer(os.Stdout)
	closeLog := func() {}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
			return nil, nil, err
		}
		rot, err := rotator.New(logFile, 32*1024, false, 5)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(os.Stdout, rot)
		closeLog = func() { rot.Close() }
	}

	log := slog.NewBackend(w).Logger("PKRM")
	lvl, ok := slog.LevelFromString(level)
	if !ok {
		return nil, nil, fmt.Errorf("unknown debug level %q", level)
	}
	log.SetLevel(lvl)
	return log, closeLog, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
