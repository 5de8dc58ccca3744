package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/memberservice/internal/admin"
	"github.com/dmitrijs2005/memberservice/internal/logging"
	"github.com/dmitrijs2005/memberservice/internal/server/auth"
	"github.com/dmitrijs2005/memberservice/internal/server/config"
	"github.com/dmitrijs2005/memberservice/internal/server/passwords"
	"github.com/dmitrijs2005/memberservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memberservice/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	us := services.NewUserService(db, rm,
		passwords.NewHasher(cfg.LegacyPasswordSecret, cfg.BcryptCost),
		auth.NewTokenCodec([]byte(cfg.SecretKey)),
		logging.New(cfg.Env))

	app := admin.NewApp(os.Stdout, func(ctx context.Context) error {
		return rm.RunMigrations(ctx, db)
	}, us)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Printf("%v", err)
		db.Close()
		os.Exit(1)
	}

}
