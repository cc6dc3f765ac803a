package tenant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeChurchStore struct {
	churches map[primitive.ObjectID]models.Church
}

func (f *fakeChurchStore) GetByID(ctx context.Context, id primitive.ObjectID) (models.Church, error) {
	c, ok := f.churches[id]
	if !ok {
		return models.Church{}, errors.New("church not found")
	}
	return c, nil
}

func testChurch(status string) models.Church {
	return models.Church{
		ID:        primitive.NewObjectID(),
		Name:      "Grace Chapel",
		Subdomain: "gracechapel",
		Plan:      models.PlanFree,
		Status:    status,
	}
}

// runMiddleware sends a request with the given headers through the
// middleware and returns the recorder plus the tenant the inner handler saw.
func runMiddleware(t *testing.T, store ChurchStore, idHeader, subHeader string) (*httptest.ResponseRecorder, *Info, bool) {
	t.Helper()

	var seen *Info
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = FromRequest(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/programs", nil)
	if idHeader != "" {
		req.Header.Set(HeaderChurchID, idHeader)
	}
	if subHeader != "" {
		req.Header.Set(HeaderSubdomain, subHeader)
	}
	rec := httptest.NewRecorder()
	Middleware(store, zap.NewNop())(inner).ServeHTTP(rec, req)
	return rec, seen, called
}

func TestMiddleware_NoHeadersIsPlatformRequest(t *testing.T) {
	store := &fakeChurchStore{}
	rec, seen, called := runMiddleware(t, store, "", "")
	if !called {
		t.Fatal("inner handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if seen != nil {
		t.Error("expected no tenant context")
	}
}

func TestMiddleware_PartialHeadersRejected(t *testing.T) {
	church := testChurch(models.ChurchActive)
	store := &fakeChurchStore{churches: map[primitive.ObjectID]models.Church{church.ID: church}}

	rec, _, called := runMiddleware(t, store, church.ID.Hex(), "")
	if called || rec.Code != http.StatusNotFound {
		t.Errorf("id-only headers: called=%v status=%d, want 404", called, rec.Code)
	}

	rec, _, called = runMiddleware(t, store, "", church.Subdomain)
	if called || rec.Code != http.StatusNotFound {
		t.Errorf("subdomain-only headers: called=%v status=%d, want 404", called, rec.Code)
	}
}

func TestMiddleware_MalformedIDRejected(t *testing.T) {
	store := &fakeChurchStore{}
	rec, _, called := runMiddleware(t, store, "not-a-hex-id", "gracechapel")
	if called || rec.Code != http.StatusNotFound {
		t.Errorf("malformed id: called=%v status=%d, want 404", called, rec.Code)
	}
}

func TestMiddleware_UnknownChurchRejected(t *testing.T) {
	store := &fakeChurchStore{}
	rec, _, called := runMiddleware(t, store, primitive.NewObjectID().Hex(), "gracechapel")
	if called || rec.Code != http.StatusNotFound {
		t.Errorf("unknown church: called=%v status=%d, want 404", called, rec.Code)
	}
}

func TestMiddleware_SubdomainMismatchRejected(t *testing.T) {
	church := testChurch(models.ChurchActive)
	store := &fakeChurchStore{churches: map[primitive.ObjectID]models.Church{church.ID: church}}
	rec, _, called := runMiddleware(t, store, church.ID.Hex(), "otherchurch")
	if called || rec.Code != http.StatusNotFound {
		t.Errorf("subdomain mismatch: called=%v status=%d, want 404", called, rec.Code)
	}
}

func TestMiddleware_SuspendedChurchForbidden(t *testing.T) {
	church := testChurch(models.ChurchSuspended)
	store := &fakeChurchStore{churches: map[primitive.ObjectID]models.Church{church.ID: church}}
	rec, _, called := runMiddleware(t, store, church.ID.Hex(), church.Subdomain)
	if called || rec.Code != http.StatusForbidden {
		t.Errorf("suspended church: called=%v status=%d, want 403", called, rec.Code)
	}
}

func TestMiddleware_ResolvesActiveChurch(t *testing.T) {
	church := testChurch(models.ChurchActive)
	store := &fakeChurchStore{churches: map[primitive.ObjectID]models.Church{church.ID: church}}
	rec, seen, called := runMiddleware(t, store, church.ID.Hex(), church.Subdomain)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("active church: called=%v status=%d, want 200", called, rec.Code)
	}
	if seen == nil {
		t.Fatal("expected tenant context")
	}
	if seen.ID != church.ID || seen.Subdomain != church.Subdomain || seen.Plan != church.Plan {
		t.Errorf("tenant info = %+v, want church %s", seen, church.ID.Hex())
	}
}

func TestRequireTenant(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	RequireTenant(inner).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no tenant: status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = WithTestTenant(req, primitive.NewObjectID(), "gracechapel", models.PlanFree)
	rec = httptest.NewRecorder()
	RequireTenant(inner).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with tenant: status = %d, want 200", rec.Code)
	}
}

func TestFilterHelpers(t *testing.T) {
	id := primitive.NewObjectID()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = WithTestTenant(req, id, "gracechapel", models.PlanFree)

	filter := bson.M{"published": true}
	Filter(req, filter)
	if filter["church_id"] != id {
		t.Errorf("Filter church_id = %v, want %s", filter["church_id"], id.Hex())
	}

	filter = bson.M{}
	if !MustFilter(req, filter) {
		t.Error("MustFilter = false with tenant present")
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	filter = bson.M{}
	Filter(bare, filter)
	if _, ok := filter["church_id"]; ok {
		t.Error("Filter added church_id without tenant")
	}
	if MustFilter(bare, filter) {
		t.Error("MustFilter = true without tenant")
	}
}
