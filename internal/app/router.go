package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridianpos/backoffice/internal/api"
	"github.com/meridianpos/backoffice/internal/auth"
	"github.com/meridianpos/backoffice/internal/screens"
	"github.com/meridianpos/backoffice/internal/session"
	"github.com/meridianpos/backoffice/internal/view"
	"github.com/meridianpos/backoffice/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *session.Manager
	CSRFManager    *session.CSRFManager
	APIClient      *api.Client
	AuthHandler    *auth.Handler
}

// NewRouter constructs the chi.Router serving the back office.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/static/*", http.FileServer(http.FS(web.Static)))

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			renderDashboard(w, r, params)
		})

		mountScreen := func(r chi.Router, desc screens.ScreenConfig) {
			screen := screens.NewScreen(desc.Descriptor, params.APIClient, params.Logger, params.Templates, params.CSRFManager, desc.Hooks)
			r.Route("/"+desc.Descriptor.Slug, screen.MountRoutes)
		}
		mountScreen(r, screens.Config(screens.Users()))
		mountScreen(r, screens.Config(screens.Suppliers()))
		mountScreen(r, screens.Config(screens.Categories()))
		mountScreen(r, screens.Config(screens.Products()))
		mountScreen(r, screens.Config(screens.Purchases()))
	})

	return r
}

func renderDashboard(w http.ResponseWriter, r *http.Request, params RouterParams) {
	sess := session.FromContext(r.Context())
	csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
	var flash *session.FlashMessage
	var userID string
	if sess != nil {
		flash = sess.PopFlash()
		userID = sess.UserID()
	}
	data := view.TemplateData{
		Title:     "Dashboard",
		CSRFToken: csrfToken,
		Flash:     flash,
		UserID:    userID,
		Data: map[string]any{
			"AppEnv": params.Config.AppEnv,
		},
	}
	if err := params.Templates.Render(w, "pages/dashboard.html", data); err != nil {
		params.Logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
