package authorization

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/invoicely/internal/auth/domain"
	"github.com/smallbiznis/invoicely/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestAuthorizer(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dbConn := db.NewTest(t, &authdomain.User{})
	enforcer, err := NewEnforcer(dbConn)
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	return NewService(Params{DB: dbConn, Log: zap.NewNop(), Enforcer: enforcer}), dbConn
}

func seedUser(t *testing.T, dbConn *gorm.DB, id int64, role string) string {
	t.Helper()
	user := authdomain.User{
		ID:         snowflake.ID(id),
		ExternalID: snowflake.ID(id).String(),
		Provider:   authdomain.ProviderLocal,
		Role:       role,
	}
	if err := dbConn.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return "user:" + user.ID.String()
}

func TestMemberMayWriteInvoices(t *testing.T) {
	svc, dbConn := newTestAuthorizer(t)
	actor := seedUser(t, dbConn, 101, RoleMember)

	for _, action := range []string{ActionInvoiceView, ActionInvoiceCreate, ActionInvoiceUpdate, ActionInvoiceDelete, ActionInvoiceSettle} {
		if err := svc.Authorize(context.Background(), actor, ObjectInvoice, action); err != nil {
			t.Fatalf("expected %s to be allowed, got %v", action, err)
		}
	}
	if err := svc.Authorize(context.Background(), actor, ObjectReport, ActionReportView); err != nil {
		t.Fatalf("expected report view to be allowed, got %v", err)
	}
}

func TestViewerIsReadOnly(t *testing.T) {
	svc, dbConn := newTestAuthorizer(t)
	actor := seedUser(t, dbConn, 202, RoleViewer)

	if err := svc.Authorize(context.Background(), actor, ObjectInvoice, ActionInvoiceView); err != nil {
		t.Fatalf("expected view to be allowed, got %v", err)
	}
	if err := svc.Authorize(context.Background(), actor, ObjectInvoice, ActionInvoiceCreate); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRoleChangeTakesEffect(t *testing.T) {
	svc, dbConn := newTestAuthorizer(t)
	actor := seedUser(t, dbConn, 303, RoleMember)

	if err := svc.Authorize(context.Background(), actor, ObjectInvoice, ActionInvoiceDelete); err != nil {
		t.Fatalf("expected delete to be allowed, got %v", err)
	}
	if err := dbConn.Model(&authdomain.User{}).Where("id = ?", 303).Update("role", RoleViewer).Error; err != nil {
		t.Fatalf("failed to update role: %v", err)
	}
	if err := svc.Authorize(context.Background(), actor, ObjectInvoice, ActionInvoiceDelete); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden after demotion, got %v", err)
	}
}

func TestAuthorizeRejectsBadInput(t *testing.T) {
	svc, _ := newTestAuthorizer(t)

	cases := []struct {
		actor, object, action string
		want                  error
	}{
		{"", ObjectInvoice, ActionInvoiceView, ErrInvalidActor},
		{"api_key:1", ObjectInvoice, ActionInvoiceView, ErrInvalidActor},
		{"user:abc", ObjectInvoice, ActionInvoiceView, ErrInvalidActor},
		{"user:1", "", ActionInvoiceView, ErrInvalidObject},
		{"user:1", ObjectInvoice, " ", ErrInvalidAction},
		{"user:999", ObjectInvoice, ActionInvoiceView, ErrForbidden},
	}
	for _, tc := range cases {
		err := svc.Authorize(context.Background(), tc.actor, tc.object, tc.action)
		if !errors.Is(err, tc.want) {
			t.Fatalf("Authorize(%q, %q, %q) = %v, want %v", tc.actor, tc.object, tc.action, err, tc.want)
		}
	}
}

func TestSeedPoliciesIdempotent(t *testing.T) {
	dbConn := db.NewTest(t, &authdomain.User{})
	if _, err := NewEnforcer(dbConn); err != nil {
		t.Fatalf("first enforcer: %v", err)
	}
	enforcer, err := NewEnforcer(dbConn)
	if err != nil {
		t.Fatalf("second enforcer: %v", err)
	}
	policies, err := enforcer.GetPolicy()
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if len(policies) != 10 {
		t.Fatalf("expected 10 policies, got %d", len(policies))
	}
}
