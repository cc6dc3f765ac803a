// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds ChapelHub-specific configuration.
//
// WAFFLE's CoreConfig covers framework-level settings (ports, TLS, logging,
// CORS, body limits). Everything specific to this application lives here and
// is loaded in LoadConfig from config files, CHAPELHUB_* environment
// variables, or command-line flags.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth redirects and checkout return links
	BaseURL string

	// Identity provider (OAuth2 / OIDC)
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthUserInfoURL  string
	StateHashKey      string // signs the OAuth state cookie
	StateBlockKey     string // encrypts the OAuth state cookie (optional, 16/24/32 bytes)

	// Stripe billing
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePricePro      string // price id mapped to the pro plan
	StripePriceUnlim    string // price id mapped to the unlimited plan

	// Audit logging: 'all' (db+log), 'db', 'log', or 'off' per category
	AuditLogAuth     string
	AuditLogAdmin    string
	AuditLogBilling  string
	AuditLogSecurity string

	// SuperAdmin bootstrap
	SuperAdminEmail string // creates/promotes the platform operator on startup
	SuperAdminName  string
}
