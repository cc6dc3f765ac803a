// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminName, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureSuperAdmin creates or promotes the platform operator account. The
// account binds its identity provider subject on first sign-in.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, name string, logger *zap.Logger) error {
	users := userstore.New(deps.ChapelHubMongoDatabase)

	existing, err := users.GetPlatformByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleSuperAdmin {
			return nil
		}
		logger.Info("promoting existing user to superadmin",
			zap.String("email", email))
		return users.PromoteToSuperAdmin(ctx, existing.ID)
	case !errors.Is(err, userstore.ErrNotFound):
		return err
	}

	if _, err := users.Create(ctx, models.User{
		FullName: name,
		Email:    email,
		Role:     models.RoleSuperAdmin,
		Status:   models.UserActive,
	}); err != nil {
		return err
	}
	logger.Info("created superadmin account", zap.String("email", email))
	return nil
}
