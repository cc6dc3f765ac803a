package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID       string
	Name     string
	Email    string
	Role     string
	ChurchID string
}

// ChurchAdminUser returns a TestUser with the church_admin role.
func ChurchAdminUser(churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Admin",
		Email:    "admin@test.com",
		Role:     models.RoleChurchAdmin,
		ChurchID: churchID.Hex(),
	}
}

// FacilitatorUser returns a TestUser with the facilitator role.
func FacilitatorUser(churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Facilitator",
		Email:    "facilitator@test.com",
		Role:     models.RoleFacilitator,
		ChurchID: churchID.Hex(),
	}
}

// StudentUser returns a TestUser with the student role.
func StudentUser(churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Student",
		Email:    "student@test.com",
		Role:     models.RoleStudent,
		ChurchID: churchID.Hex(),
	}
}

// SuperAdminUser returns a platform-scoped TestUser.
func SuperAdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test SuperAdmin",
		Email: "super@test.com",
		Role:  models.RoleSuperAdmin,
	}
}

// WithUser adds a user to the request context, bypassing the session
// middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		ChurchID: user.ChurchID,
	})
}

// WithTenant adds tenant context to the request, bypassing the tenant
// middleware.
func WithTenant(r *http.Request, church models.Church) *http.Request {
	return tenant.WithTestTenant(r, church.ID, church.Subdomain, church.Plan)
}

// NewRequest creates an HTTP request for testing. A non-empty body is sent
// as JSON.
func NewRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// TenantRequest creates a request carrying both tenant and user context.
func TenantRequest(method, target, body string, church models.Church, user TestUser) *http.Request {
	req := NewRequest(method, target, body)
	req = WithTenant(req, church)
	return WithUser(req, user)
}
