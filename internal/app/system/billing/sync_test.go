package billing

import (
	"errors"
	"testing"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	churchstore "github.com/chapelware/chapelhub/internal/app/store/churches"
	"github.com/chapelware/chapelhub/internal/app/system/auditlog"
	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/chapelware/chapelhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestSyncer(t *testing.T) (*Syncer, *churchstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	churches := churchstore.New(db)
	prices := plans.NewPriceMap(map[string]string{
		"price_pro_monthly":   models.PlanPro,
		"price_unlim_monthly": models.PlanUnlimited,
	})
	auditLogger := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{})
	return NewSyncer(churches, prices, auditLogger, zap.NewNop()), churches, testutil.NewFixtures(t, db)
}

func TestApplySubscription(t *testing.T) {
	syncer, churches, fx := newTestSyncer(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanFree)
	if err := churches.SetStripeCustomerID(ctx, church.ID, "cus_123"); err != nil {
		t.Fatalf("SetStripeCustomerID: %v", err)
	}

	if err := syncer.ApplySubscription(ctx, "cus_123", "sub_abc", "price_pro_monthly"); err != nil {
		t.Fatalf("ApplySubscription: %v", err)
	}

	got, err := churches.GetByID(ctx, church.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Plan != models.PlanPro {
		t.Errorf("Plan = %q, want %q", got.Plan, models.PlanPro)
	}
	if got.StripeSubscriptionID != "sub_abc" {
		t.Errorf("StripeSubscriptionID = %q, want sub_abc", got.StripeSubscriptionID)
	}
}

func TestApplySubscription_ReplayConverges(t *testing.T) {
	syncer, churches, fx := newTestSyncer(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanFree)
	if err := churches.SetStripeCustomerID(ctx, church.ID, "cus_123"); err != nil {
		t.Fatalf("SetStripeCustomerID: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := syncer.ApplySubscription(ctx, "cus_123", "sub_abc", "price_unlim_monthly"); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	got, err := churches.GetByID(ctx, church.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Plan != models.PlanUnlimited || got.StripeSubscriptionID != "sub_abc" {
		t.Errorf("after replays: plan=%q sub=%q", got.Plan, got.StripeSubscriptionID)
	}
}

func TestApplySubscription_UnknownPrice(t *testing.T) {
	syncer, churches, fx := newTestSyncer(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanFree)
	if err := churches.SetStripeCustomerID(ctx, church.ID, "cus_123"); err != nil {
		t.Fatalf("SetStripeCustomerID: %v", err)
	}

	err := syncer.ApplySubscription(ctx, "cus_123", "sub_abc", "price_from_old_catalog")
	if !errors.Is(err, ErrUnknownPrice) {
		t.Fatalf("err = %v, want ErrUnknownPrice", err)
	}

	got, _ := churches.GetByID(ctx, church.ID)
	if got.Plan != models.PlanFree {
		t.Errorf("unmapped price changed plan to %q", got.Plan)
	}
}

func TestApplySubscription_UnknownCustomer(t *testing.T) {
	syncer, _, _ := newTestSyncer(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := syncer.ApplySubscription(ctx, "cus_never_seen", "sub_abc", "price_pro_monthly")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestEndSubscription(t *testing.T) {
	syncer, churches, fx := newTestSyncer(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanFree)
	if err := churches.SetStripeCustomerID(ctx, church.ID, "cus_123"); err != nil {
		t.Fatalf("SetStripeCustomerID: %v", err)
	}
	if err := syncer.ApplySubscription(ctx, "cus_123", "sub_abc", "price_pro_monthly"); err != nil {
		t.Fatalf("ApplySubscription: %v", err)
	}

	if err := syncer.EndSubscription(ctx, "sub_abc"); err != nil {
		t.Fatalf("EndSubscription: %v", err)
	}

	got, err := churches.GetByID(ctx, church.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Plan != models.PlanFree {
		t.Errorf("Plan = %q, want free after cancellation", got.Plan)
	}
	if got.StripeSubscriptionID != "" {
		t.Errorf("StripeSubscriptionID = %q, want cleared", got.StripeSubscriptionID)
	}

	// The retried cancellation finds nothing to do.
	if err := syncer.EndSubscription(ctx, "sub_abc"); !errors.Is(err, ErrNoMatch) {
		t.Errorf("replayed cancel: err = %v, want ErrNoMatch", err)
	}
}
