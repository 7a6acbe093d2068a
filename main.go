package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jotlabs/jot-server/auth"
	"github.com/jotlabs/jot-server/config"
	"github.com/jotlabs/jot-server/domain"
	httpapi "github.com/jotlabs/jot-server/http"
	"github.com/jotlabs/jot-server/notes"
	"github.com/jotlabs/jot-server/store"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	ctx := context.Background()
	pool, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	users := store.NewUserStore(pool)
	if err := seedUser(ctx, users, cfg); err != nil {
		log.Fatal().Err(err).Msg("seed user")
	}

	authn := auth.New(users, cfg.JWTSecret, cfg.TokenTTL)
	svc := notes.NewService(store.NewNoteStore(pool))
	server := httpapi.NewServer(svc, authn, log)

	app := server.NewApp(cfg.AllowedOrigin)

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

// seedUser creates the fixed startup account. There is no registration
// flow; this is the only way users come to exist.
func seedUser(ctx context.Context, users *store.UserStore, cfg *config.Config) error {
	hash, err := auth.HashPassword(cfg.SeedPassword)
	if err != nil {
		return err
	}
	return users.Seed(ctx, &domain.User{
		ID:       uuid.New(),
		Username: cfg.SeedUsername,
		Password: hash,
		Email:    cfg.SeedEmail,
	})
}
