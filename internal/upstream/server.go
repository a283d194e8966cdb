package upstream

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/meridianpos/backoffice/internal/platform/httpx"
)

const perPage = 10

// Server exposes the POS API over HTTP.
type Server struct {
	logger    *slog.Logger
	store     Store
	tokens    *TokenManager
	validator *recordValidator
}

// NewServer builds a Server over the given store.
func NewServer(logger *slog.Logger, store Store, tokens *TokenManager) *Server {
	return &Server{
		logger:    logger,
		store:     store,
		tokens:    tokens,
		validator: newRecordValidator(store),
	}
}

// Routes builds the API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(chimw.Logger)

	r.Route("/api", func(r chi.Router) {
		r.With(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
			Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			for _, col := range Collections {
				col := col
				r.Route("/"+col, func(r chi.Router) {
					r.Get("/", s.handleList(col))
					r.Post("/", s.handleCreate(col))
					r.Get("/{id}", s.handleGet(col))
					r.Put("/{id}", s.handleUpdate(col))
					r.Delete("/{id}", s.handleDelete(col))
				})
			}
		})
	})
	return r
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			httpx.Message(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		if _, err := s.tokens.Verify(header[len(prefix):]); err != nil {
			httpx.Message(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resourcePayload is the wire form of one record.
type resourcePayload struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

func (s *Server) handleList(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		records, total, err := s.store.List(r.Context(), collection, page, perPage)
		if err != nil {
			s.serverError(w, "list "+collection, err)
			return
		}

		data := make([]resourcePayload, 0, len(records))
		for _, rec := range records {
			attrs := s.presentAttrs(r, collection, rec.Attrs)
			data = append(data, resourcePayload{ID: rec.ID, Attributes: attrs})
		}

		lastPage := (total + perPage - 1) / perPage
		if lastPage < 1 {
			lastPage = 1
		}
		from, to := 0, 0
		if len(records) > 0 {
			from = (page-1)*perPage + 1
			to = from + len(records) - 1
		}

		httpx.JSON(w, http.StatusOK, map[string]any{
			"data": data,
			"meta": map[string]any{
				"from":         from,
				"to":           to,
				"total":        total,
				"current_page": page,
				"last_page":    lastPage,
				"per_page":     perPage,
				"links":        pageLinks(requestBaseURL(r)+"/api/"+collection, page, lastPage),
			},
		})
	}
}

func (s *Server) handleGet(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.store.Get(r.Context(), collection, chi.URLParam(r, "id"))
		if err != nil {
			s.storeError(w, err)
			return
		}
		attrs := s.presentAttrs(r, collection, rec.Attrs)
		httpx.JSON(w, http.StatusOK, map[string]any{
			"data": resourcePayload{ID: rec.ID, Attributes: attrs},
		})
	}
}

func (s *Server) handleCreate(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var attrs map[string]any
		if err := httpx.DecodeJSON(r, &attrs); err != nil {
			httpx.Message(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		if errs := s.validator.Validate(r.Context(), collection, attrs, ""); len(errs) > 0 {
			httpx.ValidationFailed(w, errs)
			return
		}
		if collection == ColPurchases {
			assignItemIDs(attrs)
		}
		rec, err := s.store.Create(r.Context(), collection, attrs)
		if err != nil {
			s.storeError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, map[string]any{
			"data": resourcePayload{ID: rec.ID, Attributes: s.presentAttrs(r, collection, rec.Attrs)},
		})
	}
}

func (s *Server) handleUpdate(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var attrs map[string]any
		if err := httpx.DecodeJSON(r, &attrs); err != nil {
			httpx.Message(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		if errs := s.validator.Validate(r.Context(), collection, attrs, id); len(errs) > 0 {
			httpx.ValidationFailed(w, errs)
			return
		}
		if collection == ColPurchases {
			assignItemIDs(attrs)
		}
		rec, err := s.store.Update(r.Context(), collection, id, attrs)
		if err != nil {
			s.storeError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"data": resourcePayload{ID: rec.ID, Attributes: s.presentAttrs(r, collection, rec.Attrs)},
		})
	}
}

func (s *Server) handleDelete(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Delete(r.Context(), collection, chi.URLParam(r, "id")); err != nil {
			s.storeError(w, err)
			return
		}
		httpx.Message(w, http.StatusOK, "Deleted.")
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	rec, found, err := s.store.FindByAttr(r.Context(), ColUsers, "email", req.Email)
	if err != nil {
		s.serverError(w, "login lookup", err)
		return
	}
	hash, _ := rec.Attrs["password_hash"].(string)
	if !found || !CheckPassword(hash, req.Password) {
		// Deliberately not a 401: clients reserve that status for expired
		// sessions on authenticated routes.
		httpx.Message(w, http.StatusUnprocessableEntity, "These credentials do not match our records.")
		return
	}
	token, err := s.tokens.Issue(rec.ID)
	if err != nil {
		s.serverError(w, "issue token", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"token": token,
			"id":    rec.ID,
			"name":  rec.Attrs["name"],
			"email": rec.Attrs["email"],
		},
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	errs := s.validator.Validate(r.Context(), ColUsers, map[string]any{
		"name":  req.Name,
		"email": req.Email,
	}, "")
	if req.Password == "" {
		errs.add("password", "The password field is required.")
	} else if len(req.Password) < 8 {
		errs.add("password", "The password must be at least 8 characters.")
	}
	if len(errs) > 0 {
		httpx.ValidationFailed(w, errs)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		s.serverError(w, "hash password", err)
		return
	}
	rec, err := s.store.Create(r.Context(), ColUsers, map[string]any{
		"name":          req.Name,
		"email":         req.Email,
		"password_hash": hash,
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"data":    resourcePayload{ID: rec.ID, Attributes: s.presentAttrs(r, ColUsers, rec.Attrs)},
		"message": "Account created.",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; logout only exists so clients can fire-and-forget.
	httpx.Message(w, http.StatusOK, "Logged out.")
}

// presentAttrs shapes stored attributes for the wire: password hashes never
// leave the server and purchase rows carry the supplier name for listings.
func (s *Server) presentAttrs(r *http.Request, collection string, attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if collection == ColUsers && k == "password_hash" {
			continue
		}
		out[k] = v
	}
	if collection == ColPurchases {
		if supplierID := str(attrs["supplier_id"]); supplierID != "" {
			if supplier, err := s.store.Get(r.Context(), ColSuppliers, supplierID); err == nil {
				out["supplier_name"] = supplier.Attrs["name"]
			}
		}
	}
	return out
}

// assignItemIDs rewrites the flat item rows of a purchase payload into
// identified sub-resources before storage.
func assignItemIDs(attrs map[string]any) {
	items, ok := attrs["items"].([]any)
	if !ok {
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, entry := range items {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"id":         uuid.NewString(),
			"attributes": item,
		})
	}
	attrs["items"] = out
}

// pageLinks builds the Previous / numbered / Next link trio. Boundary links
// carry a null url so clients render them inert.
func pageLinks(listURL string, page, lastPage int) []map[string]any {
	links := make([]map[string]any, 0, lastPage+2)

	links = append(links, pageLink(listURL, "&laquo; Previous", page-1, page > 1, false))
	for n := 1; n <= lastPage; n++ {
		links = append(links, pageLink(listURL, strconv.Itoa(n), n, true, n == page))
	}
	links = append(links, pageLink(listURL, "Next &raquo;", page+1, page < lastPage, false))
	return links
}

func pageLink(listURL, label string, page int, enabled, active bool) map[string]any {
	link := map[string]any{"url": nil, "label": label, "active": active}
	if enabled {
		link["url"] = fmt.Sprintf("%s?page=%d", listURL, page)
	}
	return link
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case err == ErrNotFound:
		httpx.Message(w, http.StatusNotFound, "Not found.")
	case err == ErrConflict:
		httpx.Message(w, http.StatusConflict, "Conflict.")
	default:
		s.serverError(w, "store", err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, slog.Any("error", err))
	httpx.Message(w, http.StatusInternalServerError, "Server error.")
}
