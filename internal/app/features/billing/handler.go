// internal/app/features/billing/handler.go
package billing

import (
	"github.com/chapelware/chapelhub/internal/app/system/auditlog"
	syncbilling "github.com/chapelware/chapelhub/internal/app/system/billing"
	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the church admin's billing surface: current subscription,
// checkout, and the provider's self-service portal.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Audit    *auditlog.Logger
	Provider syncbilling.Provider
	Prices   *plans.PriceMap

	// Where the provider sends the admin back after checkout or portal.
	SuccessURL string
	CancelURL  string
	ReturnURL  string
}

// NewHandler constructs a billing feature handler.
func NewHandler(db *mongo.Database, provider syncbilling.Provider, prices *plans.PriceMap, audit *auditlog.Logger, logger *zap.Logger, successURL, cancelURL, returnURL string) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Audit:      audit,
		Provider:   provider,
		Prices:     prices,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		ReturnURL:  returnURL,
	}
}
