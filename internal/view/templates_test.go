package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRendersDashboard(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/dashboard.html", TemplateData{
		Title:  "Dashboard",
		UserID: "u-1",
		Data:   map[string]any{"AppEnv": "test"},
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, "Dashboard")
	assert.Contains(t, body, "/purchases")
	assert.Contains(t, body, "Logout", "signed-in chrome renders for a known user")
}

func TestEngineRendersLoginWithoutSession(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/login.html", TemplateData{
		Title: "Sign In",
		Data: map[string]any{
			"Form":   map[string]string{"Email": "admin@example.com"},
			"Errors": map[string]string{"general": "Login failed. Please try again."},
		},
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, "admin@example.com")
	assert.Contains(t, body, "Login failed")
	assert.NotContains(t, body, "Logout", "anonymous chrome hides the app nav")
}
