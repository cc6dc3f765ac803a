// Package tenant resolves the church a request belongs to and scopes
// queries to it.
//
// The edge layer (reverse proxy) maps the inbound hostname's subdomain to a
// (church id, subdomain) pair and injects it as the X-Church-ID and
// X-Church-Subdomain request headers. This package reads and validates that
// metadata; it never derives tenancy from anything the client controls
// directly (path, body, cookies).
//
// Absence of both headers means no tenant context, which is a valid state
// (apex domain, platform pages). Privileged tenant endpoints must then reject via
// RequireTenant or authz checks rather than guessing a tenant.
package tenant

import (
	"context"
	"net/http"

	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Header names populated by the edge layer.
const (
	HeaderChurchID  = "X-Church-ID"
	HeaderSubdomain = "X-Church-Subdomain"
)

type ctxKey string

const tenantKey ctxKey = "tenant"

// Info holds the resolved church context for the current request.
type Info struct {
	ID        primitive.ObjectID
	Subdomain string
	Name      string
	Plan      string
	Status    string
}

// ChurchStore defines the lookup the middleware needs.
type ChurchStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Church, error)
}

// Middleware reads the edge-injected tenant headers and places an Info in
// the request context.
//
//   - Both headers absent: no tenant context, request continues (public /
//     platform traffic).
//   - Malformed church id, unknown church, or subdomain mismatch: 404. The
//     caller learns nothing about which of the three it was.
//   - Suspended church: 403.
func Middleware(store ChurchStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idHex := r.Header.Get(HeaderChurchID)
			sub := r.Header.Get(HeaderSubdomain)

			if idHex == "" && sub == "" {
				// Apex / platform request.
				next.ServeHTTP(w, r)
				return
			}

			if idHex == "" || sub == "" {
				logger.Warn("partial tenant metadata from edge",
					zap.Bool("has_id", idHex != ""),
					zap.Bool("has_subdomain", sub != ""))
				http.NotFound(w, r)
				return
			}

			churchID, err := primitive.ObjectIDFromHex(idHex)
			if err != nil {
				logger.Warn("malformed church id header", zap.String("value", idHex))
				http.NotFound(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			defer cancel()

			church, err := store.GetByID(ctx, churchID)
			if err != nil {
				logger.Debug("church not found for tenant headers",
					zap.String("church_id", idHex),
					zap.Error(err))
				http.NotFound(w, r)
				return
			}
			if church.Subdomain != sub {
				logger.Warn("tenant header subdomain mismatch",
					zap.String("header", sub),
					zap.String("stored", church.Subdomain))
				http.NotFound(w, r)
				return
			}
			if !church.IsActive() {
				logger.Info("request to suspended church",
					zap.String("subdomain", sub))
				http.Error(w, `{"error":"not allowed"}`, http.StatusForbidden)
				return
			}

			r = withTenant(r, &Info{
				ID:        church.ID,
				Subdomain: church.Subdomain,
				Name:      church.Name,
				Plan:      church.Plan,
				Status:    church.Status,
			})
			next.ServeHTTP(w, r)
		})
	}
}

// FromRequest returns the tenant info from the request context, or nil.
func FromRequest(r *http.Request) *Info {
	return FromContext(r.Context())
}

// FromContext returns the tenant info from the context, or nil.
func FromContext(ctx context.Context) *Info {
	if t, ok := ctx.Value(tenantKey).(*Info); ok {
		return t
	}
	return nil
}

// RequireTenant rejects requests that carry no tenant context. Mounted
// ahead of every tenant-scoped route group.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromRequest(r) == nil {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Filter adds church_id to a bson filter for scoped queries. No-op without
// tenant context.
func Filter(r *http.Request, filter bson.M) {
	if t := FromRequest(r); t != nil {
		filter["church_id"] = t.ID
	}
}

// MustFilter adds church_id to the filter and reports whether a tenant was
// present. Callers use the false return to reject requests that require
// tenant scoping.
func MustFilter(r *http.Request, filter bson.M) bool {
	t := FromRequest(r)
	if t == nil {
		return false
	}
	filter["church_id"] = t.ID
	return true
}

func withTenant(r *http.Request, t *Info) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), tenantKey, t))
}

// WithTestTenant returns a request with tenant context set. Exported for
// tests only.
func WithTestTenant(r *http.Request, id primitive.ObjectID, subdomain, plan string) *http.Request {
	return withTenant(r, &Info{
		ID:        id,
		Subdomain: subdomain,
		Plan:      plan,
		Status:    models.ChurchActive,
	})
}
