package main

import (
	"context"
	"fmt"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/repository"
)

func runMigrate() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database.Path, database.MigrationsFS())
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.AppliedMigrations()
	if err != nil {
		return err
	}
	mainLog.Info().Int("applied", len(applied)).Str("path", cfg.Database.Path).Msg("database is up to date")
	return nil
}

func runPromote(ctx context.Context, username string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database.Path, database.MigrationsFS())
	if err != nil {
		return err
	}
	defer db.Close()

	return promote(ctx, repository.NewSQLiteUserRepo(db.Conn), username)
}

func promote(ctx context.Context, users repository.UserRepository, username string) error {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("user %q: %w", username, err)
	}
	if user.Role == models.RoleAdmin {
		mainLog.Info().Str("username", username).Msg("user is already an admin")
		return nil
	}
	if err := users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return err
	}
	mainLog.Info().Str("username", username).Str("previous_role", string(user.Role)).Msg("user promoted to admin")
	return nil
}
