package shared

import (
	"context"
	"errors"
	"testing"
)

func TestCSRFEnsureTokenIsStable(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := &Session{ID: "abc"}

	first, err := m.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if first == "" {
		t.Fatal("empty token")
	}
	second, err := m.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first != second {
		t.Fatal("token must be stable within a session")
	}
}

func TestCSRFVerifyToken(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := &Session{ID: "abc"}
	token, err := m.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if err := m.VerifyToken(context.Background(), sess, token); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if err := m.VerifyToken(context.Background(), sess, "forged"); !errors.Is(err, ErrCSRFTokenMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := m.VerifyToken(context.Background(), sess, ""); !errors.Is(err, ErrCSRFTokenMissing) {
		t.Fatalf("expected missing, got %v", err)
	}
	if err := m.VerifyToken(context.Background(), nil, token); !errors.Is(err, ErrCSRFTokenMissing) {
		t.Fatalf("expected missing for nil session, got %v", err)
	}
}
