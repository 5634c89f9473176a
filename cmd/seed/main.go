package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-leave-api/internal/repository"
	"github.com/noah-isme/sma-leave-api/internal/seed"
	"github.com/noah-isme/sma-leave-api/internal/service"
	"github.com/noah-isme/sma-leave-api/pkg/config"
	"github.com/noah-isme/sma-leave-api/pkg/database"
	"github.com/noah-isme/sma-leave-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		fixturePath string
		migrate     bool
		printTokens bool
		tokenTTL    time.Duration
	)
	flag.StringVar(&fixturePath, "file", cfg.Seed.File, "Path to YAML fixture")
	flag.BoolVar(&migrate, "migrate", true, "Apply the schema before seeding")
	flag.BoolVar(&printTokens, "tokens", false, "Print a signed access token per seeded account")
	flag.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "Lifetime of printed tokens")
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fixture, err := seed.LoadFile(fixturePath)
	if err != nil {
		logr.Fatal("failed to load fixture", zap.String("file", fixturePath), zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
	}

	seeder := seed.NewSeeder(repository.NewUserRepository(db), repository.NewStudentRepository(db), logr)
	users, err := seeder.Apply(ctx, fixture)
	if err != nil {
		logr.Fatal("seeding failed", zap.Error(err))
	}
	logr.Info("seeding complete", zap.Int("accounts", len(users)))

	if !printTokens {
		return
	}
	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})
	for _, user := range users {
		token, err := tokens.Sign(user, tokenTTL)
		if err != nil {
			logr.Fatal("failed to sign token", zap.String("email", user.Email), zap.Error(err))
		}
		fmt.Printf("%s\t%s\t%s\n", user.Role, user.Email, token)
	}
}
