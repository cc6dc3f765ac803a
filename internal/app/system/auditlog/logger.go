// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each category is controlled
// independently with one of: "all" (MongoDB + zap), "db" (MongoDB only),
// "log" (zap only), "off" (disabled).
type Config struct {
	Auth     string
	Admin    string
	Billing  string
	Security string
}

// Logger provides convenience methods for recording audit events.
// It writes to MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ChurchID != nil {
		fields = append(fields, zap.String("church_id", event.ChurchID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryBilling:
		setting = l.config.Billing
	case audit.CategorySecurity:
		setting = l.config.Security
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in via the identity provider.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, churchID *primitive.ObjectID, subjectID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		ChurchID:  churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"subject_id": subjectID,
		},
	})
}

// LoginFailed logs a rejected sign-in attempt.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, churchID *primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		ChurchID:      churchID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a user sign-out. Accepts string IDs from the session and
// converts them to ObjectIDs.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr, churchIDStr string) {
	var userID *primitive.ObjectID
	var churchID *primitive.ObjectID

	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}
	if oid, err := primitive.ObjectIDFromHex(churchIDStr); err == nil {
		churchID = &oid
	}

	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		ChurchID:  churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// StudentProvisioned logs first-sign-in creation of a student record.
func (l *Logger) StudentProvisioned(ctx context.Context, r *http.Request, userID, churchID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventStudentProvisioned,
		UserID:    &userID,
		ChurchID:  &churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// InviteClaimed logs a successful facilitator invite claim.
func (l *Logger) InviteClaimed(ctx context.Context, r *http.Request, userID, churchID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventInviteClaimed,
		UserID:    &userID,
		ChurchID:  &churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// InviteClaimFailed logs an invite claim that was rejected.
func (l *Logger) InviteClaimFailed(ctx context.Context, r *http.Request, churchID *primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventInviteClaimFailed,
		ChurchID:      churchID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// --- Admin Events ---

// AdminAction logs a tenant-scoped admin mutation (content CRUD, member
// management, integrations). The event type identifies the action.
func (l *Logger) AdminAction(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, churchID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		ChurchID:  churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}

// MemberInvited logs a facilitator invite being issued.
func (l *Logger) MemberInvited(ctx context.Context, r *http.Request, actorID, targetUserID, churchID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberInvited,
		UserID:    &targetUserID,
		ActorID:   &actorID,
		ChurchID:  &churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"role": role,
		},
	})
}

// MemberRoleChanged logs a role change within a church.
func (l *Logger) MemberRoleChanged(ctx context.Context, r *http.Request, actorID, targetUserID, churchID primitive.ObjectID, oldRole, newRole string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberRoleChanged,
		UserID:    &targetUserID,
		ActorID:   &actorID,
		ChurchID:  &churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"old_role": oldRole,
			"new_role": newRole,
		},
	})
}

// MemberRemoved logs a member being removed from a church.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, targetUserID, churchID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberRemoved,
		UserID:    &targetUserID,
		ActorID:   &actorID,
		ChurchID:  &churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Billing Events ---

// SubscriptionSynced logs a webhook-driven plan change.
func (l *Logger) SubscriptionSynced(ctx context.Context, churchID primitive.ObjectID, plan, subscriptionID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryBilling,
		EventType: audit.EventSubscriptionSynced,
		ChurchID:  &churchID,
		Success:   true,
		Details: map[string]string{
			"plan":            plan,
			"subscription_id": subscriptionID,
		},
	})
}

// SubscriptionEnded logs a cancellation that downgraded a church to free.
func (l *Logger) SubscriptionEnded(ctx context.Context, churchID primitive.ObjectID, subscriptionID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryBilling,
		EventType: audit.EventSubscriptionEnded,
		ChurchID:  &churchID,
		Success:   true,
		Details: map[string]string{
			"subscription_id": subscriptionID,
		},
	})
}

// WebhookRejected logs a billing webhook that failed verification or
// matched no church.
func (l *Logger) WebhookRejected(ctx context.Context, reason, eventType string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryBilling,
		EventType:     audit.EventWebhookRejected,
		Success:       false,
		FailureReason: reason,
		Details: map[string]string{
			"provider_event": eventType,
		},
	})
}

// CheckoutStarted logs a checkout session being created for a church.
func (l *Logger) CheckoutStarted(ctx context.Context, r *http.Request, actorID, churchID primitive.ObjectID, plan string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryBilling,
		EventType: audit.EventCheckoutStarted,
		ActorID:   &actorID,
		ChurchID:  &churchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"plan": plan,
		},
	})
}

// --- Security Events ---

// QuotaDenied logs a mutation blocked by a plan limit.
func (l *Logger) QuotaDenied(ctx context.Context, r *http.Request, actorID, churchID primitive.ObjectID, resource string, limit, current int64) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventQuotaDenied,
		ActorID:       &actorID,
		ChurchID:      &churchID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "plan limit reached",
		Details: map[string]string{
			"resource": resource,
			"limit":    strconv.FormatInt(limit, 10),
			"current":  strconv.FormatInt(current, 10),
		},
	})
}

// AccessDenied logs an authorization failure.
func (l *Logger) AccessDenied(ctx context.Context, r *http.Request, actorID *primitive.ObjectID, churchID *primitive.ObjectID, action string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventAccessDenied,
		ActorID:       actorID,
		ChurchID:      churchID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "not permitted",
		Details: map[string]string{
			"action": action,
		},
	})
}

// SuspendedAccess logs a request against a suspended church.
func (l *Logger) SuspendedAccess(ctx context.Context, r *http.Request, churchID primitive.ObjectID, subdomain string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventSuspendedAccess,
		ChurchID:      &churchID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "church suspended",
		Details: map[string]string{
			"subdomain": subdomain,
		},
	})
}
