// Package auth wires the login, register and logout flows against the
// upstream POS API and keeps the issued token in the browser session.
package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridianpos/backoffice/internal/api"
	"github.com/meridianpos/backoffice/internal/session"
	"github.com/meridianpos/backoffice/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	client         *api.Client
	templates      *view.Engine
	sessionManager *session.Manager
	csrfManager    *session.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, client *api.Client, templates *view.Engine, sessions *session.Manager, csrf *session.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		client:         client,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

type registerForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type registerPageData struct {
	Form   registerForm
	Errors api.FieldErrors
}

// credentials is the data object of a successful /login response.
type credentials struct {
	Token string          `json:"token"`
	ID    json.RawMessage `json:"id"`
}

func (c credentials) userID() string {
	if len(c.ID) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(c.ID, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(c.ID, &n); err == nil {
		return n.String()
	}
	return ""
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/login.html", "Sign In", loginPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				formErrors[fieldErr.Field()] = "This field is invalid."
			}
		}
	}

	if len(formErrors) == 0 {
		env, err := h.client.Post(r.Context(), "/login", map[string]string{
			"email":    form.Email,
			"password": form.Password,
		})
		if err != nil {
			formErrors["general"] = loginFailureMessage(err)
		} else {
			var creds credentials
			if decodeErr := json.Unmarshal(env.Data, &creds); decodeErr != nil || creds.Token == "" {
				h.logger.Error("decode login response", slog.Any("error", decodeErr))
				formErrors["general"] = "Login failed. Please try again."
			} else {
				sess := session.FromContext(r.Context())
				if sess != nil {
					sess.SetCredentials(creds.Token, creds.userID())
					sess.AddFlash(session.FlashMessage{Kind: "success", Message: "Welcome back"})
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.render(w, r, "pages/login.html", "Sign In", loginPageData{Form: form, Errors: formErrors})
}

func loginFailureMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if msg := apiErr.Envelope.Message(); msg != "" {
			return msg
		}
	}
	return "Login failed. Please try again."
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/register.html", "Register", registerPageData{})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := registerForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	fieldErrors := make(api.FieldErrors)
	if err := h.validator.Struct(form); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			for _, fieldErr := range errs {
				name := fieldName(fieldErr.Field())
				fieldErrors[name] = append(fieldErrors[name], "This field is invalid.")
			}
		}
	}

	if len(fieldErrors) == 0 {
		_, err := h.client.Post(r.Context(), "/register", map[string]string{
			"name":     form.Name,
			"email":    form.Email,
			"password": form.Password,
		})
		if err != nil {
			if errs, ok := api.ValidationErrors(err); ok {
				fieldErrors = errs
			} else {
				h.logger.Error("register failed", slog.Any("error", err))
				fieldErrors["general"] = []string{"Registration failed. Please try again."}
			}
		} else {
			sess := session.FromContext(r.Context())
			if sess != nil {
				sess.AddFlash(session.FlashMessage{Kind: "success", Message: "Account created, please sign in"})
			}
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.render(w, r, "pages/register.html", "Register", registerPageData{Form: form, Errors: fieldErrors})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Best effort: the session dies locally even if the upstream call fails.
	if _, err := h.client.Post(r.Context(), "/logout", nil); err != nil && !errors.Is(err, api.ErrUnauthorized) {
		h.logger.Warn("logout call failed", slog.Any("error", err))
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func fieldName(structField string) string {
	switch structField {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Password":
		return "password"
	default:
		return structField
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any) {
	sess := session.FromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *session.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render "+template, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
