package bankguard

import (
	"context"
	"errors"
	"testing"

	"github.com/darvenko/bankguard/rbac"
)

func seedTellerHierarchy(t *testing.T, e *Engine) {
	t.Helper()
	pe := e.Permissions()

	if err := pe.CreateRole("teller", "branch teller", ""); err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}
	if err := pe.AddPermission("teller", rbac.ResourceTransaction, rbac.ActionCreate|rbac.ActionRead, nil); err != nil {
		t.Fatalf("AddPermission failed: %v", err)
	}
	if err := pe.CreateRole("senior_teller", "approves transactions", "teller"); err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}
	if err := pe.AddPermission("senior_teller", rbac.ResourceTransaction, rbac.ActionApprove, nil); err != nil {
		t.Fatalf("AddPermission failed: %v", err)
	}
}

func TestCheckPermissionAllowsAndDenies(t *testing.T) {
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
		Roles:        []string{"teller"},
	})
	e := newTestEngine(t, users, nil)
	seedTellerHierarchy(t, e)

	tokens := authTokens(t, e, "alice", "s3cret")
	ctx := context.Background()

	info, err := e.CheckPermission(ctx, tokens.AccessToken, rbac.ResourceTransaction, rbac.ActionCreate)
	if err != nil {
		t.Fatalf("CheckPermission failed: %v", err)
	}
	if info.PrincipalID != "u-1" {
		t.Fatalf("unexpected principal: %q", info.PrincipalID)
	}

	// A plain teller cannot approve.
	if _, err := e.CheckPermission(ctx, tokens.AccessToken, rbac.ResourceTransaction, rbac.ActionApprove); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}

	entries := entriesByAction(t, e, auditPermissionDenied)
	if len(entries) != 1 {
		t.Fatalf("permission_denied entries = %d, want 1", len(entries))
	}
	if entries[0].PrincipalID != "u-1" {
		t.Fatalf("denial entry principal = %q", entries[0].PrincipalID)
	}
	if e.Metrics().Value(MetricPermissionDenied) != 1 {
		t.Fatal("denial counter not incremented")
	}
}

func TestCheckPermissionInheritedGrant(t *testing.T) {
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-2",
		Username:     "bob",
		PasswordHash: hashPassword(t, "s3cret"),
		Roles:        []string{"senior_teller"},
	})
	e := newTestEngine(t, users, nil)
	seedTellerHierarchy(t, e)

	tokens := authTokens(t, e, "bob", "s3cret")
	ctx := context.Background()

	// Approve is direct, create is inherited from teller.
	if _, err := e.CheckPermission(ctx, tokens.AccessToken, rbac.ResourceTransaction, rbac.ActionApprove); err != nil {
		t.Fatalf("direct grant denied: %v", err)
	}
	if _, err := e.CheckPermission(ctx, tokens.AccessToken, rbac.ResourceTransaction, rbac.ActionCreate); err != nil {
		t.Fatalf("inherited grant denied: %v", err)
	}
}

func TestCheckPermissionRejectsRevokedToken(t *testing.T) {
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
		Roles:        []string{"teller"},
	})
	e := newTestEngine(t, users, nil)
	seedTellerHierarchy(t, e)

	tokens := authTokens(t, e, "alice", "s3cret")
	if err := e.Revoke(context.Background(), tokens.AccessToken); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if _, err := e.CheckPermission(context.Background(), tokens.AccessToken, rbac.ResourceTransaction, rbac.ActionCreate); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("got %v, want ErrTokenRevoked", err)
	}
}

func TestGuardDelegatesToHierarchy(t *testing.T) {
	e := newTestEngine(t, newMemUsers(), nil)
	seedTellerHierarchy(t, e)

	guard := e.Guard()
	if !guard([]string{"teller"}, rbac.ResourceTransaction, rbac.ActionRead) {
		t.Fatal("guard denied a granted action")
	}
	if guard([]string{"teller"}, rbac.ResourceAuditLog, rbac.ActionRead) {
		t.Fatal("guard allowed an ungranted action")
	}

	var nilEngine *Engine
	if nilEngine.Guard()([]string{"teller"}, rbac.ResourceTransaction, rbac.ActionRead) {
		t.Fatal("nil engine guard allowed")
	}
}
