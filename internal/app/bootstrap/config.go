// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ChapelHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CHAPELHUB_MONGO_URI, CHAPELHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "chapelhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "chapelhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host; use '.example.org' for cross-subdomain cookies)"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth redirects and checkout return links"},

	// Identity provider
	{Name: "oauth_client_id", Default: "", Desc: "OAuth2 client ID for the identity provider"},
	{Name: "oauth_client_secret", Default: "", Desc: "OAuth2 client secret"},
	{Name: "oauth_auth_url", Default: "https://accounts.google.com/o/oauth2/auth", Desc: "OAuth2 authorization endpoint"},
	{Name: "oauth_token_url", Default: "https://oauth2.googleapis.com/token", Desc: "OAuth2 token endpoint"},
	{Name: "oauth_userinfo_url", Default: "https://www.googleapis.com/oauth2/v3/userinfo", Desc: "OIDC userinfo endpoint"},
	{Name: "state_hash_key", Default: "dev-only-state-hash-key-0123456789AB", Desc: "HMAC key for the OAuth state cookie"},
	{Name: "state_block_key", Default: "", Desc: "AES key for encrypting the OAuth state cookie (16/24/32 bytes, blank disables encryption)"},

	// Stripe billing
	{Name: "stripe_secret_key", Default: "", Desc: "Stripe API secret key (blank disables billing)"},
	{Name: "stripe_webhook_secret", Default: "", Desc: "Stripe webhook signing secret"},
	{Name: "stripe_price_pro", Default: "", Desc: "Stripe price id for the pro plan"},
	{Name: "stripe_price_unlimited", Default: "", Desc: "Stripe price id for the unlimited plan"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_billing", Default: "all", Desc: "Billing event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_security", Default: "all", Desc: "Security event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the platform superadmin (created/promoted on startup)"},
	{Name: "superadmin_name", Default: "Platform Admin", Desc: "Display name for a superadmin created on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific to
// this app. config.LoadWithAppConfig merges .env files, config files,
// CHAPELHUB_* environment variables, and command-line flags with the usual
// precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CHAPELHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		BaseURL: appValues.String("base_url"),

		OAuthClientID:     appValues.String("oauth_client_id"),
		OAuthClientSecret: appValues.String("oauth_client_secret"),
		OAuthAuthURL:      appValues.String("oauth_auth_url"),
		OAuthTokenURL:     appValues.String("oauth_token_url"),
		OAuthUserInfoURL:  appValues.String("oauth_userinfo_url"),
		StateHashKey:      appValues.String("state_hash_key"),
		StateBlockKey:     appValues.String("state_block_key"),

		StripeSecretKey:     appValues.String("stripe_secret_key"),
		StripeWebhookSecret: appValues.String("stripe_webhook_secret"),
		StripePricePro:      appValues.String("stripe_price_pro"),
		StripePriceUnlim:    appValues.String("stripe_price_unlimited"),

		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogAdmin:    appValues.String("audit_log_admin"),
		AuditLogBilling:  appValues.String("audit_log_billing"),
		AuditLogSecurity: appValues.String("audit_log_security"),

		SuperAdminEmail: appValues.String("superadmin_email"),
		SuperAdminName:  appValues.String("superadmin_name"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. It runs before any
// backend connections, so misconfiguration fails fast.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	// Billing is optional, but a key without a webhook secret means synced
	// subscriptions could never arrive.
	if appCfg.StripeSecretKey != "" && appCfg.StripeWebhookSecret == "" {
		return fmt.Errorf("stripe_secret_key is set but stripe_webhook_secret is empty")
	}

	switch n := len(appCfg.StateBlockKey); n {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("state_block_key must be 16, 24, or 32 bytes, got %d", n)
	}

	return nil
}
