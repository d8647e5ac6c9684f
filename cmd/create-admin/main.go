// Команда create-admin создает учетную запись администратора.
// Пароль берется из флага -password или переменной ADMIN_PASSWORD.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/afero"
	"github.com/untibullet/project-hub/internal/blobstore"
	"github.com/untibullet/project-hub/internal/config"
	"github.com/untibullet/project-hub/internal/repository"
	"github.com/untibullet/project-hub/internal/service"
	"go.uber.org/zap"
)

func main() {
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *password == "" {
		logger.Fatal("admin password is required: pass -password or set ADMIN_PASSWORD")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		logger.Fatal("failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	repo := repository.New(pool)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}

	svc := service.New(repo, blobstore.New(afero.NewOsFs(), cfg.Uploads.Dir), logger, service.Options{
		AdminUsername: cfg.Admin.Username,
	})

	user, created, err := svc.CreateAdmin(ctx, *password)
	if err != nil {
		logger.Fatal("failed to create admin", zap.Error(err))
	}
	if !created {
		logger.Info("admin already exists", zap.String("username", user.Username), zap.String("user_id", user.ID))
		return
	}
	logger.Info("admin created", zap.String("username", user.Username), zap.String("user_id", user.ID))
}
