// internal/app/features/assets/handler.go
package assets

import (
	"github.com/chapelware/chapelhub/internal/app/system/auditlog"
	"github.com/chapelware/chapelhub/internal/app/system/quota"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB    *mongo.Database
	Log   *zap.Logger
	Audit *auditlog.Logger
	Quota *quota.Enforcer
}

// NewHandler constructs an assets feature handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, q *quota.Enforcer, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Log:   logger,
		Audit: audit,
		Quota: q,
	}
}
