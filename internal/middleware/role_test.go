package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/character-api/internal/apperr"
	"github.com/iliyamo/character-api/internal/model"
)

func TestRoleAllowed(t *testing.T) {
	writers := NewRoleSet(model.RoleAdmin, model.RoleUser)
	admins := NewRoleSet(model.RoleAdmin)

	cases := []struct {
		role    model.Role
		set     RoleSet
		allowed bool
	}{
		{model.RoleAdmin, writers, true},
		{model.RoleUser, writers, true},
		{"GUEST", writers, false},
		{"", writers, false},
		{model.RoleUser, admins, false},
		{model.RoleAdmin, admins, true},
	}
	for _, tc := range cases {
		if got := RoleAllowed(model.Identity{Role: tc.role}, tc.set); got != tc.allowed {
			t.Fatalf("RoleAllowed(%q)=%v, want %v", tc.role, got, tc.allowed)
		}
	}
}

func runRoleGate(t *testing.T, id *model.Identity, roles ...model.Role) (bool, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/characters", nil), httptest.NewRecorder())
	if id != nil {
		SetIdentity(c, *id)
	}
	called := false
	err := RequireRole(nil, roles...)(func(echo.Context) error {
		called = true
		return nil
	})(c)
	return called, err
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	called, err := runRoleGate(t, &model.Identity{UserID: 1, Role: model.RoleUser}, model.RoleAdmin, model.RoleUser)
	if err != nil || !called {
		t.Fatalf("expected pass-through, called=%v err=%v", called, err)
	}
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	called, err := runRoleGate(t, &model.Identity{UserID: 1, Role: "GUEST"}, model.RoleAdmin, model.RoleUser)
	if called || apperr.KindOf(err) != apperr.KindRoleForbidden {
		t.Fatalf("expected role forbidden, called=%v err=%v", called, err)
	}
}

func TestRequireRoleWithoutIdentityIsInternal(t *testing.T) {
	called, err := runRoleGate(t, nil, model.RoleAdmin)
	if called || apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected internal error for missing identity, called=%v err=%v", called, err)
	}
}
