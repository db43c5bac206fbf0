package rbac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/shared"
)

type stubPermissions struct {
	perms map[int64][]string
	err   error
}

func (s *stubPermissions) EffectivePermissions(_ context.Context, operatorID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.perms[operatorID], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithOperator(operatorID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	sess := &shared.Session{ID: "test-session"}
	sess.SetUser(operatorID)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRequireAnyAllowsGrantedOperator(t *testing.T) {
	m := Middleware{Service: &stubPermissions{perms: map[int64][]string{42: {"audit.view"}}}}
	guard := m.RequireAny(shared.PermAuditView)(okHandler())

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, requestWithOperator("42"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAnyRejectsMissingPermission(t *testing.T) {
	m := Middleware{Service: &stubPermissions{perms: map[int64][]string{42: {"audit.export"}}}}
	guard := m.RequireAny(shared.PermAuditView)(okHandler())

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, requestWithOperator("42"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAnyRejectsAnonymousRequest(t *testing.T) {
	m := Middleware{Service: &stubPermissions{perms: map[int64][]string{42: {"audit.view"}}}}
	guard := m.RequireAny(shared.PermAuditView)(okHandler())

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAnyLookupFailure(t *testing.T) {
	m := Middleware{
		Service: &stubPermissions{err: errors.New("pool closed")},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	guard := m.RequireAny(shared.PermAuditView)(okHandler())

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, requestWithOperator("42"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestNormalizePermissions(t *testing.T) {
	got := normalizePermissions([]string{" Audit.View ", "", "AUDIT.EXPORT"})
	want := []string{"audit.view", "audit.export"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizePermissions = %v, want %v", got, want)
	}
}

func TestHasAnyPermission(t *testing.T) {
	granted := []string{"audit.view"}

	if !hasAnyPermission(granted, []string{"audit.export", "audit.view"}) {
		t.Fatal("expected match on audit.view")
	}
	if hasAnyPermission(granted, []string{"audit.export"}) {
		t.Fatal("unexpected match")
	}
	if hasAnyPermission(nil, []string{"audit.view"}) {
		t.Fatal("empty grants must never match")
	}
}
