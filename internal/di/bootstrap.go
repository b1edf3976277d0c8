package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/adapters/storage"
	"github.com/linkguard/linkguard/internal/auth"
	"github.com/linkguard/linkguard/internal/config"
)

// SeedBootstrapAdmin creates the initial admin account from
// configuration when no account with that email exists yet. A fresh
// deployment needs one operator to be able to log in and mint keys.
func SeedBootstrapAdmin(ctx context.Context, cfg *config.Config, store storage.Store, logger *zap.Logger) error {
	authCfg := cfg.GetAuth()
	if authCfg.BootstrapAdminEmail == "" || authCfg.BootstrapAdminPassword == "" {
		return nil
	}

	_, err := store.GetAdminUserByEmail(ctx, authCfg.BootstrapAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to check bootstrap admin: %w", err)
	}

	hash, err := auth.HashPassword(authCfg.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap admin password: %w", err)
	}

	admin, err := store.CreateAdminUser(ctx, storage.AdminUser{
		Email:        authCfg.BootstrapAdminEmail,
		PasswordHash: hash,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	logger.Info("Created bootstrap admin account",
		zap.String("email", admin.Email),
		zap.Int64("id", admin.ID))
	return nil
}
