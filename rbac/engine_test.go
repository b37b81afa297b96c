package rbac

import (
	"errors"
	"sync"
	"testing"
)

func newBankEngine(t *testing.T) *Engine {
	t.Helper()

	e := NewEngine()
	if err := e.CreateRole("teller", "branch teller", ""); err != nil {
		t.Fatalf("CreateRole teller: %v", err)
	}
	if err := e.CreateRole("senior_teller", "senior branch teller", "teller"); err != nil {
		t.Fatalf("CreateRole senior_teller: %v", err)
	}
	if err := e.AddPermission("teller", ResourceAccount, ActionRead, nil); err != nil {
		t.Fatalf("AddPermission teller: %v", err)
	}
	if err := e.AddPermission("senior_teller", ResourceTransaction, ActionApprove, nil); err != nil {
		t.Fatalf("AddPermission senior_teller: %v", err)
	}
	return e
}

func TestInheritanceResolution(t *testing.T) {
	e := newBankEngine(t)
	roles := []string{"senior_teller"}

	if !e.HasPermission(roles, ResourceAccount, ActionRead) {
		t.Fatal("inherited account:read denied")
	}
	if !e.HasPermission(roles, ResourceTransaction, ActionApprove) {
		t.Fatal("direct transaction:approve denied")
	}
	if e.HasPermission(roles, ResourceUserManagement, ActionCreate) {
		t.Fatal("user_management:create allowed without any grant")
	}
}

func TestDeepChainResolution(t *testing.T) {
	e := NewEngine()
	parent := ""
	for _, name := range []string{"intern", "teller", "senior_teller", "manager", "director"} {
		if err := e.CreateRole(name, "", parent); err != nil {
			t.Fatalf("CreateRole %s: %v", name, err)
		}
		parent = name
	}
	if err := e.AddPermission("intern", ResourceAccount, ActionRead, nil); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}

	if !e.HasPermission([]string{"director"}, ResourceAccount, ActionRead) {
		t.Fatal("grant at tree root not visible from leaf")
	}
}

func TestCycleRejectedAtAssignment(t *testing.T) {
	e := NewEngine()
	for _, name := range []string{"a", "b", "c"} {
		if err := e.CreateRole(name, "", ""); err != nil {
			t.Fatalf("CreateRole %s: %v", name, err)
		}
	}
	if err := e.SetParent("b", "a"); err != nil {
		t.Fatalf("SetParent b->a: %v", err)
	}
	if err := e.SetParent("c", "b"); err != nil {
		t.Fatalf("SetParent c->b: %v", err)
	}

	if err := e.SetParent("a", "c"); !errors.Is(err, ErrCycle) {
		t.Fatalf("a->c: got %v, want ErrCycle", err)
	}
	if err := e.SetParent("a", "b"); !errors.Is(err, ErrCycle) {
		t.Fatalf("a->b: got %v, want ErrCycle", err)
	}
	if err := e.SetParent("a", "a"); !errors.Is(err, ErrCycle) {
		t.Fatalf("a->a: got %v, want ErrCycle", err)
	}

	// The rejected assignments must not have landed; resolution stays finite.
	if e.HasPermission([]string{"a"}, ResourceAccount, ActionRead) {
		t.Fatal("unexpected grant")
	}
}

func TestDeleteRoleWithChildrenRejected(t *testing.T) {
	e := newBankEngine(t)

	if err := e.DeleteRole("teller"); !errors.Is(err, ErrHasChildren) {
		t.Fatalf("got %v, want ErrHasChildren", err)
	}

	// Reparent the child, then deletion succeeds.
	if err := e.SetParent("senior_teller", ""); err != nil {
		t.Fatalf("SetParent: %v", err)
	}
	if err := e.DeleteRole("teller"); err != nil {
		t.Fatalf("DeleteRole after reparent: %v", err)
	}
}

func TestActionBitEditsIdempotent(t *testing.T) {
	e := NewEngine()
	if err := e.CreateRole("auditor", "", ""); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := e.AddPermission("auditor", ResourceAuditLog, ActionRead, nil); err != nil {
			t.Fatalf("AddPermission round %d: %v", i, err)
		}
	}
	perms, err := e.GetPermissions("auditor", false)
	if err != nil {
		t.Fatalf("GetPermissions: %v", err)
	}
	if len(perms) != 1 || perms[0].Actions != ActionRead {
		t.Fatalf("repeated set produced %+v", perms)
	}

	for i := 0; i < 3; i++ {
		if err := e.RemovePermission("auditor", ResourceAuditLog, ActionApprove); err != nil {
			t.Fatalf("RemovePermission round %d: %v", i, err)
		}
	}
	if !e.HasPermission([]string{"auditor"}, ResourceAuditLog, ActionRead) {
		t.Fatal("clearing an unset bit disturbed existing bits")
	}

	if err := e.RemovePermission("auditor", ResourceAuditLog, ActionRead); err != nil {
		t.Fatalf("RemovePermission: %v", err)
	}
	perms, err = e.GetPermissions("auditor", false)
	if err != nil {
		t.Fatalf("GetPermissions: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("zeroed permission not dropped: %+v", perms)
	}
}

func TestGetPermissionsNearestAncestorFirst(t *testing.T) {
	e := NewEngine()
	if err := e.CreateRole("root", "", ""); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if err := e.CreateRole("mid", "", "root"); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if err := e.CreateRole("leaf", "", "mid"); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if err := e.AddPermission("root", ResourceSystemConfig, ActionUpdate, nil); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}
	if err := e.AddPermission("mid", ResourceAccount, ActionRead, nil); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}
	if err := e.AddPermission("leaf", ResourceTransaction, ActionCreate, nil); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}

	perms, err := e.GetPermissions("leaf", true)
	if err != nil {
		t.Fatalf("GetPermissions: %v", err)
	}
	want := []ResourceType{ResourceTransaction, ResourceAccount, ResourceSystemConfig}
	if len(perms) != len(want) {
		t.Fatalf("got %d permissions, want %d", len(perms), len(want))
	}
	for i, resource := range want {
		if perms[i].Resource != resource {
			t.Fatalf("position %d: got %s, want %s", i, perms[i].Resource, resource)
		}
	}

	own, err := e.GetPermissions("leaf", false)
	if err != nil {
		t.Fatalf("GetPermissions: %v", err)
	}
	if len(own) != 1 || own[0].Resource != ResourceTransaction {
		t.Fatalf("own permissions = %+v", own)
	}
}

func TestUnknownRolesAndInvalidInputsDeny(t *testing.T) {
	e := newBankEngine(t)

	if e.HasPermission([]string{"ghost"}, ResourceAccount, ActionRead) {
		t.Fatal("unknown role allowed")
	}
	if e.HasPermission(nil, ResourceAccount, ActionRead) {
		t.Fatal("empty role set allowed")
	}
	if e.HasPermission([]string{"teller"}, ResourceType("payments"), ActionRead) {
		t.Fatal("invalid resource allowed")
	}
	if e.HasPermission([]string{"teller"}, ResourceAccount, Action(64)) {
		t.Fatal("invalid action allowed")
	}
	// Compound bit: Valid requires a single defined action.
	if e.HasPermission([]string{"teller"}, ResourceAccount, ActionRead|ActionCreate) {
		t.Fatal("compound action bit allowed")
	}
}

func TestAddPermissionValidatesInputs(t *testing.T) {
	e := newBankEngine(t)

	if err := e.AddPermission("teller", ResourceType("payments"), ActionRead, nil); !errors.Is(err, ErrInvalidResource) {
		t.Fatalf("got %v, want ErrInvalidResource", err)
	}
	if err := e.AddPermission("teller", ResourceAccount, Action(128), nil); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("got %v, want ErrInvalidAction", err)
	}
	if err := e.AddPermission("ghost", ResourceAccount, ActionRead, nil); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("got %v, want ErrRoleNotFound", err)
	}
}

func TestGuardDelegates(t *testing.T) {
	e := newBankEngine(t)
	guard := Guard(e)

	if !guard([]string{"senior_teller"}, ResourceAccount, ActionRead) {
		t.Fatal("guard denied an inherited grant")
	}
	if guard([]string{"senior_teller"}, ResourceUserManagement, ActionCreate) {
		t.Fatal("guard allowed an absent grant")
	}
	if Guard(nil)([]string{"teller"}, ResourceAccount, ActionRead) {
		t.Fatal("nil engine must deny")
	}
}

func TestConcurrentResolutionAndMutation(t *testing.T) {
	e := newBankEngine(t)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				e.HasPermission([]string{"senior_teller"}, ResourceAccount, ActionRead)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = e.AddPermission("teller", ResourceAccount, ActionUpdate, nil)
			_ = e.RemovePermission("teller", ResourceAccount, ActionUpdate)
		}
	}()
	wg.Wait()

	if !e.HasPermission([]string{"teller"}, ResourceAccount, ActionRead) {
		t.Fatal("baseline grant lost under concurrency")
	}
}
