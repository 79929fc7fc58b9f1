package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/wingit-app/wingit-server/internal/api/http/router"
	httpServer "github.com/wingit-app/wingit-server/internal/api/http/server"
	"github.com/wingit-app/wingit-server/internal/config"
	"github.com/wingit-app/wingit-server/internal/logger"
	"github.com/wingit-app/wingit-server/internal/mailer/smtp"
	"github.com/wingit-app/wingit-server/internal/model"
	"github.com/wingit-app/wingit-server/internal/repository/postgres"
	"github.com/wingit-app/wingit-server/internal/server"
	"github.com/wingit-app/wingit-server/internal/service"
	storage "github.com/wingit-app/wingit-server/internal/storage/minio"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)

	mailer := smtp.New(smtp.Config{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		Username:   cfg.SMTP.Username,
		Password:   cfg.SMTP.Password,
		From:       cfg.SMTP.From,
		APIBaseURL: cfg.HTTP.APIBaseURL,
	}, logger)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	presignExpiry := time.Duration(cfg.Storage.PresignExpirySeconds) * time.Second
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket, presignExpiry)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	accountService := service.NewAccounts(accountRepo, mailer, storageClient, logger)

	engine := router.New(accountService, logger).Register()
	srv := httpServer.NewHTTPServer(engine, fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
