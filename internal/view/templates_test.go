package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/shared"
)

func TestNewEngineParsesEmbeddedTemplates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	require.NotNil(t, engine)
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/login.html", TemplateData{
		Title:     "Sign in",
		CSRFToken: "tok-123",
		Flash:     &shared.FlashMessage{Kind: "error", Message: "Invalid email or password."},
		Data: map[string]any{
			"Form":   map[string]string{"Email": "admin@example.test"},
			"Errors": map[string]string{},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "tok-123")
	assert.Contains(t, body, "admin@example.test")
	assert.Contains(t, body, "Invalid email or password.")
}

func TestAuditTemplateRegistered(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	tpl := engine.templates.Lookup("pages/audit.html")
	require.NotNil(t, tpl, "audit page template missing")
}
