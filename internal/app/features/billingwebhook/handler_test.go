package billingwebhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const testSecret = "whsec_test_secret"

func signedRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(string(signed.Payload)))
	r.Header.Set("Stripe-Signature", signed.Header)
	return r
}

func newTestHandler() *Handler {
	// No syncer: these cases must resolve before any sync runs.
	return NewHandler(nil, testSecret, nil, zap.NewNop())
}

func TestServe_BadSignature(t *testing.T) {
	h := newTestHandler()

	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"type":"customer.subscription.created"}`))
	r.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")
	w := httptest.NewRecorder()
	h.Serve(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestServe_MissingSignature(t *testing.T) {
	h := newTestHandler()

	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.Serve(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestServe_UnhandledEventAcknowledged(t *testing.T) {
	h := newTestHandler()

	r := signedRequest(t, `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)
	w := httptest.NewRecorder()
	h.Serve(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestServe_SubscriptionMissingCustomer(t *testing.T) {
	h := newTestHandler()

	r := signedRequest(t, `{"id":"evt_2","type":"customer.subscription.created","data":{"object":{"id":"sub_abc","items":{"data":[]}}}}`)
	w := httptest.NewRecorder()
	h.Serve(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
