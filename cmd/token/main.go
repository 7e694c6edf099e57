// Command token mints a development bearer token, optionally creating the account first.
//
//	token -sub <account-id> -email a@b.c
//	token -create -email a@b.c -nickname gopher
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"studyhub/config"
	"studyhub/internal/adapters/auth"
	"studyhub/internal/domain"
	"studyhub/internal/repository/postgres"
)

func main() {
	sub := flag.String("sub", "", "account id (token subject)")
	mail := flag.String("email", "", "account email")
	create := flag.Bool("create", false, "create the account before issuing")
	nickname := flag.String("nickname", "", "nickname for -create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)

	if *create {
		id, err := createAccount(cfg, *mail, *nickname, logger)
		if err != nil {
			logger.Error("create account", "err", err)
			os.Exit(1)
		}
		*sub = id
	}
	if *sub == "" {
		fmt.Fprintln(os.Stderr, "either -sub or -create is required")
		flag.Usage()
		os.Exit(2)
	}

	token, err := auth.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.Issuer).Issue(*sub, *mail, cfg.JWT.Expiry)
	if err != nil {
		logger.Error("issue token", "err", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func createAccount(cfg *config.Config, mail, nickname string, logger *slog.Logger) (string, error) {
	if mail == "" || nickname == "" {
		return "", fmt.Errorf("-create needs -email and -nickname")
	}
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return "", err
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(db, logger); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	acc := &domain.Account{
		Email:         mail,
		Nickname:      nickname,
		EmailVerified: true,
		Preferences:   domain.DefaultNotificationPreferences(),
		JoinedAt:      time.Now(),
	}
	if err := postgres.NewAccountRepository(db).Create(ctx, acc); err != nil {
		return "", err
	}
	logger.Info("account created", "account_id", acc.ID, "email", acc.Email)
	return acc.ID, nil
}
