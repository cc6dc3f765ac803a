// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	assetsfeature "github.com/chapelware/chapelhub/internal/app/features/assets"
	auditviewfeature "github.com/chapelware/chapelhub/internal/app/features/auditview"
	authcallbackfeature "github.com/chapelware/chapelhub/internal/app/features/authcallback"
	billingfeature "github.com/chapelware/chapelhub/internal/app/features/billing"
	billingwebhookfeature "github.com/chapelware/chapelhub/internal/app/features/billingwebhook"
	churchesfeature "github.com/chapelware/chapelhub/internal/app/features/churches"
	classesfeature "github.com/chapelware/chapelhub/internal/app/features/classes"
	coursesfeature "github.com/chapelware/chapelhub/internal/app/features/courses"
	enrollmentsfeature "github.com/chapelware/chapelhub/internal/app/features/enrollments"
	healthfeature "github.com/chapelware/chapelhub/internal/app/features/health"
	integrationsfeature "github.com/chapelware/chapelhub/internal/app/features/integrations"
	membersfeature "github.com/chapelware/chapelhub/internal/app/features/members"
	programsfeature "github.com/chapelware/chapelhub/internal/app/features/programs"
	settingsfeature "github.com/chapelware/chapelhub/internal/app/features/settings"
	"github.com/chapelware/chapelhub/internal/app/store/audit"
	assetstore "github.com/chapelware/chapelhub/internal/app/store/assets"
	churchstore "github.com/chapelware/chapelhub/internal/app/store/churches"
	enrollmentstore "github.com/chapelware/chapelhub/internal/app/store/enrollments"
	integrationstore "github.com/chapelware/chapelhub/internal/app/store/integrations"
	programstore "github.com/chapelware/chapelhub/internal/app/store/programs"
	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
	"github.com/chapelware/chapelhub/internal/app/system/auditlog"
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/billing"
	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"github.com/chapelware/chapelhub/internal/app/system/quota"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It assembles the shared system pieces (sessions,
// tenant resolution, audit, quota, billing) and mounts a feature router per
// API area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.ChapelHubMongoDatabase

	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fresh user data on each request so role changes and disabled accounts
	// take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(userstore.New(db)))

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Admin:    appCfg.AuditLogAdmin,
		Billing:  appCfg.AuditLogBilling,
		Security: appCfg.AuditLogSecurity,
	})

	quotaEnforcer := quota.New(quota.StoreCounters{
		Users:        userstore.New(db),
		Enrollments:  enrollmentstore.New(db),
		Programs:     programstore.New(db),
		Assets:       assetstore.New(db),
		Integrations: integrationstore.New(db),
	})

	prices := plans.NewPriceMap(map[string]string{
		appCfg.StripePricePro:   models.PlanPro,
		appCfg.StripePriceUnlim: models.PlanUnlimited,
	})
	syncer := billing.NewSyncer(churchstore.New(db), prices, auditLogger, logger)
	stripeProvider := billing.NewStripeProvider(appCfg.StripeSecretKey, logger)

	r := chi.NewRouter()

	// Tenant resolution from the edge-injected headers, then session load.
	// Order matters: handlers see both the tenant and the current user.
	r.Use(tenant.Middleware(churchstore.New(db), logger))
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.ChapelHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	authHandler := authcallbackfeature.NewHandler(
		db, sessionMgr, auditLogger,
		appCfg.OAuthClientID, appCfg.OAuthClientSecret,
		appCfg.BaseURL, appCfg.OAuthAuthURL, appCfg.OAuthTokenURL, appCfg.OAuthUserInfoURL,
		[]byte(appCfg.StateHashKey), stateBlockKey(appCfg),
		logger,
	)
	r.Mount("/auth", authcallbackfeature.Routes(authHandler))

	billingHandler := billingfeature.NewHandler(db, stripeProvider, prices, auditLogger, logger,
		appCfg.BaseURL+"/billing/success",
		appCfg.BaseURL+"/billing/cancel",
		appCfg.BaseURL+"/settings/church")
	webhookHandler := billingwebhookfeature.NewHandler(syncer, appCfg.StripeWebhookSecret, auditLogger, logger)
	r.Route("/billing", func(br chi.Router) {
		// Webhook first: it authenticates by signature, not session.
		br.Mount("/webhook", billingwebhookfeature.Routes(webhookHandler))
		br.Mount("/", billingfeature.Routes(billingHandler, sessionMgr))
	})

	programsHandler := programsfeature.NewHandler(db, auditLogger, quotaEnforcer, logger)
	r.Mount("/programs", programsfeature.Routes(programsHandler, sessionMgr))

	coursesHandler := coursesfeature.NewHandler(db, auditLogger, logger)
	r.Mount("/courses", coursesfeature.Routes(coursesHandler, sessionMgr))

	classesHandler := classesfeature.NewHandler(db, auditLogger, logger)
	r.Mount("/classes", classesfeature.Routes(classesHandler, sessionMgr))

	enrollmentsHandler := enrollmentsfeature.NewHandler(db, auditLogger, quotaEnforcer, logger)
	r.Mount("/enrollments", enrollmentsfeature.Routes(enrollmentsHandler, sessionMgr))

	membersHandler := membersfeature.NewHandler(db, auditLogger, quotaEnforcer, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler, sessionMgr))

	assetsHandler := assetsfeature.NewHandler(db, auditLogger, quotaEnforcer, logger)
	r.Mount("/assets", assetsfeature.Routes(assetsHandler, sessionMgr))

	integrationsHandler := integrationsfeature.NewHandler(db, auditLogger, quotaEnforcer, logger)
	r.Mount("/integrations", integrationsfeature.Routes(integrationsHandler, sessionMgr))

	settingsHandler := settingsfeature.NewHandler(db, auditLogger, logger)
	r.Mount("/settings", settingsfeature.Routes(settingsHandler, sessionMgr))

	churchesHandler := churchesfeature.NewHandler(db, auditLogger, logger)
	r.Mount("/churches", churchesfeature.Routes(churchesHandler, sessionMgr))

	auditHandler := auditviewfeature.NewHandler(db, logger)
	r.Mount("/audit", auditviewfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}

// stateBlockKey returns the optional AES key for the OAuth state cookie.
// securecookie treats a nil block key as signing-only.
func stateBlockKey(appCfg AppConfig) []byte {
	if appCfg.StateBlockKey == "" {
		return nil
	}
	return []byte(appCfg.StateBlockKey)
}
