package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"medvault/internal/anonymize"
	"medvault/internal/audit"
	"medvault/internal/auth"
	"medvault/internal/crypto"
	"medvault/internal/domain"
	"medvault/internal/platform/config"
	"medvault/internal/platform/httpserver"
	"medvault/internal/platform/logger"
	"medvault/internal/platform/metrics"
	"medvault/internal/records"
	"medvault/internal/retention"
	"medvault/internal/storage"
	httptransport "medvault/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	cipher, err := crypto.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		log.Error("field cipher init failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		auditStore   audit.Store
		patientStore records.Store
		userStore    auth.UserStore
		txRunner     storage.TxRunner
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(context.Background()); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}

		auditStore = audit.NewPostgresStore(db)
		patientStore = records.NewPostgresStore(db)
		userStore = auth.NewPostgresStore(db)
		txRunner = storage.NewPostgresTxRunner(db)
	} else {
		log.Warn("MEDVAULT_DATABASE_URL not set, using in-memory storage with seeded dev users")
		memDB := storage.NewMemoryDB()
		if err := auth.SeedMemory(context.Background(), memDB, devUsers()); err != nil {
			log.Error("seed dev users", "error", err)
			os.Exit(1)
		}
		auditStore = audit.NewMemoryStore(memDB)
		patientStore = records.NewMemoryStore(memDB)
		userStore = auth.NewMemoryStore(memDB)
		txRunner = memDB
	}

	auditor := audit.NewRecorder(auditStore, log)
	recordsSvc := records.NewService(patientStore, auditor, cipher, txRunner, log, m)
	anonymizer := anonymize.NewService(patientStore, auditor, cipher, txRunner, log, m)
	retentionSvc := retention.NewService(patientStore, auditStore, txRunner, log, m)
	authSvc := auth.NewService(userStore, auditor, log, m)
	tokens := httptransport.NewTokenIssuer([]byte(cfg.JWTSigningKey))

	handler := httptransport.NewHandler(log, authSvc, recordsSvc, anonymizer, retentionSvc, tokens)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting medvault", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func devUsers() []auth.SeedUser {
	return []auth.SeedUser{
		{Username: "admin", Password: "admin", Role: domain.RoleAdmin},
		{Username: "doctor", Password: "doctor", Role: domain.RoleDoctor},
		{Username: "reception", Password: "reception", Role: domain.RoleReceptionist},
	}
}
