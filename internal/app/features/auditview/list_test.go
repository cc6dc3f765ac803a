package auditview

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseFilter_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	f, err := parseFilter(r)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if f.Limit != defaultLimit || f.Offset != 0 {
		t.Errorf("limit=%d offset=%d, want %d/0", f.Limit, f.Offset, defaultLimit)
	}
	if f.Category != "" || f.EventType != "" || f.UserID != nil || f.StartTime != nil || f.EndTime != nil {
		t.Errorf("empty query produced filter %+v", f)
	}
}

func TestParseFilter_FullQuery(t *testing.T) {
	userID := primitive.NewObjectID()
	r := httptest.NewRequest("GET",
		"/?category=auth&event_type=login_success&user_id="+userID.Hex()+
			"&start=2026-01-01T00:00:00Z&end=2026-02-01T00:00:00Z&limit=25&offset=50", nil)

	f, err := parseFilter(r)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if f.Category != "auth" || f.EventType != "login_success" {
		t.Errorf("category=%q event_type=%q", f.Category, f.EventType)
	}
	if f.UserID == nil || *f.UserID != userID {
		t.Errorf("UserID = %v, want %s", f.UserID, userID.Hex())
	}
	wantStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if f.StartTime == nil || !f.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v", f.StartTime)
	}
	if f.Limit != 25 || f.Offset != 50 {
		t.Errorf("limit=%d offset=%d", f.Limit, f.Offset)
	}
}

func TestParseFilter_LimitClamped(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=9999", nil)
	f, err := parseFilter(r)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if f.Limit != maxLimit {
		t.Errorf("Limit = %d, want %d", f.Limit, maxLimit)
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	targets := []string{
		"/?user_id=not-hex",
		"/?start=yesterday",
		"/?end=tomorrow",
		"/?limit=0",
		"/?limit=-5",
		"/?limit=abc",
		"/?offset=-1",
	}
	for _, target := range targets {
		r := httptest.NewRequest("GET", target, nil)
		if _, err := parseFilter(r); !errors.Is(err, httperr.ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", target, err)
		}
	}
}
