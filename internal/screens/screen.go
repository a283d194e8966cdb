// Package screens renders the back-office CRUD screens. One generic handler
// drives every resource from its descriptor; per-resource code is limited to
// the field set, the table columns and a couple of hooks.
package screens

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/meridianpos/backoffice/internal/api"
	"github.com/meridianpos/backoffice/internal/crud"
	"github.com/meridianpos/backoffice/internal/session"
	"github.com/meridianpos/backoffice/internal/view"
)

// Option is one entry of a select control.
type Option struct {
	ID    string
	Label string
}

// Hooks carry the little behavior that is genuinely per resource.
type Hooks struct {
	// PrepareForm runs before a form renders, e.g. to refresh a product's
	// advisory SKU suggestion from the current name and category.
	PrepareForm func(f *crud.FormState, options map[string][]Option)
	// CanDelete decides whether the delete affordance is rendered for a row.
	// The user screen hides it for the signed-in user's own record.
	CanDelete func(sess *session.Session, res api.Resource) bool
}

// ScreenConfig pairs a descriptor with its hooks for mounting.
type ScreenConfig struct {
	Descriptor crud.Descriptor
	Hooks      Hooks
}

// Config bundles a descriptor constructor's results.
func Config(desc crud.Descriptor, hooks Hooks) ScreenConfig {
	return ScreenConfig{Descriptor: desc, Hooks: hooks}
}

// Screen serves the CRUD screen of one resource.
type Screen struct {
	desc      crud.Descriptor
	client    *api.Client
	logger    *slog.Logger
	templates *view.Engine
	csrf      *session.CSRFManager
	hooks     Hooks
}

// NewScreen builds a screen from its descriptor.
func NewScreen(desc crud.Descriptor, client *api.Client, logger *slog.Logger, templates *view.Engine, csrf *session.CSRFManager, hooks Hooks) *Screen {
	return &Screen{desc: desc, client: client, logger: logger, templates: templates, csrf: csrf, hooks: hooks}
}

// MountRoutes registers the screen's routes on the given router.
func (s *Screen) MountRoutes(r chi.Router) {
	r.Get("/", s.List)
	r.Get("/new", s.AddForm)
	r.Post("/", s.Create)
	r.Get("/{id}/edit", s.EditForm)
	r.Post("/{id}", s.Update)
	r.Get("/{id}/confirm", s.ConfirmDelete)
	r.Post("/{id}/delete", s.Delete)
}

// flashNotifier turns controller outcomes into session flash messages.
type flashNotifier struct{}

func (flashNotifier) Success(ctx context.Context, message string) {
	if sess := session.FromContext(ctx); sess != nil {
		sess.AddFlash(session.FlashMessage{Kind: "success", Message: message})
	}
}

func (flashNotifier) Failure(ctx context.Context, message string) {
	if sess := session.FromContext(ctx); sess != nil {
		sess.AddFlash(session.FlashMessage{Kind: "error", Message: message})
	}
}

func (s *Screen) controller() *crud.Controller {
	return crud.NewController(s.desc, s.client, s.logger, flashNotifier{})
}

// listPage is the template payload for the list screen, with or without an
// open modal.
type listPage struct {
	Desc       crud.Descriptor
	Rows       []api.Resource
	Pagination Pagination
	ListURL    string
	CanDelete  map[string]bool
	Form       *crud.FormState
	FormTitle  string
	Options    map[string][]Option
	ItemsTotal string
	ConfirmID  string
	ConfirmRow *api.Resource
}

// List renders the table plus pagination. The u query parameter carries a
// server-supplied page URL; without it the default collection URL loads.
func (s *Screen) List(w http.ResponseWriter, r *http.Request) {
	s.renderList(w, r, nil, nil, "")
}

// AddForm opens the modal seeded from the empty template.
func (s *Screen) AddForm(w http.ResponseWriter, r *http.Request) {
	form := crud.NewAddForm(s.desc)
	options := s.loadOptions(r.Context())
	s.prepareForm(form, options)
	s.renderList(w, r, form, options, "")
}

// EditForm opens the modal seeded from the record's current attributes.
func (s *Screen) EditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.controller().Get(r.Context(), id)
	if err != nil {
		s.handleAPIError(w, r, err)
		return
	}
	form := crud.NewEditForm(s.desc, res)
	options := s.loadOptions(r.Context())
	s.prepareForm(form, options)
	s.renderList(w, r, form, options, "")
}

// Create submits a new record. Row-editing actions re-render the open modal
// instead of submitting; validation failures keep it open with inline
// errors and the entered values untouched.
func (s *Screen) Create(w http.ResponseWriter, r *http.Request) {
	form := s.parseForm(r, crud.ModeAdd, "")
	if s.handleItemAction(w, r, form) {
		return
	}
	errs, err := s.controller().Create(r.Context(), form.Attributes(s.desc))
	s.finishSubmit(w, r, form, errs, err)
}

// Update submits changed attributes for one record.
func (s *Screen) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form := s.parseForm(r, crud.ModeEdit, id)
	if s.handleItemAction(w, r, form) {
		return
	}
	errs, err := s.controller().Update(r.Context(), id, form.Attributes(s.desc))
	s.finishSubmit(w, r, form, errs, err)
}

// ConfirmDelete renders the non-blocking confirmation dialog. No request
// reaches the upstream until the dialog's form is submitted.
func (s *Screen) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	s.renderList(w, r, nil, nil, chi.URLParam(r, "id"))
}

// Delete issues the DELETE after explicit confirmation.
func (s *Screen) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.controller().Remove(r.Context(), id); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.handleAPIError(w, r, err)
			return
		}
		// Failure already flashed; the list renders unchanged.
	}
	s.redirectToList(w, r)
}

func (s *Screen) finishSubmit(w http.ResponseWriter, r *http.Request, form *crud.FormState, errs api.FieldErrors, err error) {
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.handleAPIError(w, r, err)
			return
		}
		// Non-validation failure: outcome already flashed, close the modal.
		s.redirectToList(w, r)
		return
	}
	if len(errs) > 0 {
		form.SetErrors(errs)
		options := s.loadOptions(r.Context())
		s.prepareForm(form, options)
		s.renderList(w, r, form, options, "")
		return
	}
	// The record landed on the first page of the default ordering, so the
	// list returns there rather than to whatever page was open.
	s.redirectToDefault(w, r)
}

// handleItemAction covers the no-script row editing fallback for composite
// resources: add_item / remove_item re-render the modal without submitting.
func (s *Screen) handleItemAction(w http.ResponseWriter, r *http.Request, form *crud.FormState) bool {
	if !s.desc.HasItems {
		return false
	}
	action := r.PostFormValue("action")
	switch {
	case action == "add_item":
		form.AddItem()
	case strings.HasPrefix(action, "remove_item:"):
		index, err := strconv.Atoi(strings.TrimPrefix(action, "remove_item:"))
		if err != nil {
			return false
		}
		form.RemoveItem(index)
	default:
		return false
	}
	options := s.loadOptions(r.Context())
	s.prepareForm(form, options)
	s.renderList(w, r, form, options, "")
	return true
}

func (s *Screen) parseForm(r *http.Request, mode crud.Mode, id string) *crud.FormState {
	_ = r.ParseForm()
	form := &crud.FormState{Mode: mode, ID: id, Values: make(map[string]string, len(s.desc.Fields))}
	for _, f := range s.desc.Fields {
		form.Values[f.Name] = r.PostFormValue(f.Name)
	}
	if s.desc.HasItems {
		products := r.PostForm["item_product_id"]
		quantities := r.PostForm["item_quantity"]
		prices := r.PostForm["item_unit_price"]
		for i := range products {
			item := crud.LineItem{ProductID: products[i]}
			if i < len(quantities) {
				item.Quantity = quantities[i]
			}
			if i < len(prices) {
				item.UnitPrice = prices[i]
			}
			form.Items = append(form.Items, item)
		}
	}
	return form
}

func (s *Screen) prepareForm(form *crud.FormState, options map[string][]Option) {
	if s.hooks.PrepareForm != nil {
		s.hooks.PrepareForm(form, options)
	}
}

// loadOptions fetches the collections feeding the form's select controls,
// one fetch per source collection, concurrently. Composite resources
// additionally get the product options for their line item rows under the
// item_product_id key. A failed fetch leaves that select empty.
func (s *Screen) loadOptions(ctx context.Context) map[string][]Option {
	fields := s.desc.Fields
	if s.desc.HasItems {
		fields = append(fields[:len(fields):len(fields)], crud.Field{
			Name:        "item_product_id",
			Kind:        crud.KindSelect,
			OptionsFrom: ItemProductOptions,
			OptionLabel: "name",
		})
	}

	var mu sync.Mutex
	options := make(map[string][]Option)
	var g errgroup.Group
	for _, f := range fields {
		if f.OptionsFrom == "" {
			continue
		}
		f := f
		g.Go(func() error {
			env, err := s.client.Get(ctx, f.OptionsFrom)
			if err != nil {
				s.logger.Error("load options failed", "field", f.Name, "path", f.OptionsFrom, "error", err)
				return nil
			}
			rows, err := env.Resources()
			if err != nil {
				s.logger.Error("decode options failed", "field", f.Name, "error", err)
				return nil
			}
			opts := make([]Option, 0, len(rows))
			for _, row := range rows {
				opts = append(opts, Option{ID: row.ID, Label: row.Attr(f.OptionLabel)})
			}
			mu.Lock()
			options[f.Name] = opts
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return options
}

func (s *Screen) renderList(w http.ResponseWriter, r *http.Request, form *crud.FormState, options map[string][]Option, confirmID string) {
	ctx := r.Context()
	ctrl := s.controller()
	listURL := r.URL.Query().Get("u")
	if listURL != "" && !s.client.TrustsURL(listURL) {
		// Only URLs the upstream itself handed out (pagination links) are
		// followed; anything pointing elsewhere falls back to page one.
		s.logger.Warn("rejected page url", "resource", s.desc.Slug, "url", listURL)
		listURL = ""
	}
	if err := ctrl.Load(ctx, listURL); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.handleAPIError(w, r, err)
			return
		}
		// List-load failures are logged; the prior state renders without a
		// user-facing message.
	}

	rows := ctrl.Rows()
	sess := session.FromContext(ctx)
	canDelete := make(map[string]bool, len(rows))
	var confirmRow *api.Resource
	for i := range rows {
		allowed := true
		if s.hooks.CanDelete != nil {
			allowed = s.hooks.CanDelete(sess, rows[i])
		}
		canDelete[rows[i].ID] = allowed
		if confirmID != "" && rows[i].ID == confirmID {
			confirmRow = &rows[i]
		}
	}

	page := listPage{
		Desc:       s.desc,
		Rows:       rows,
		Pagination: BuildPagination(ctrl.Links(), ctrl.Meta()),
		ListURL:    listURL,
		CanDelete:  canDelete,
		Form:       form,
		ConfirmID:  confirmID,
		ConfirmRow: confirmRow,
	}
	if form != nil {
		page.FormTitle = form.Title(s.desc)
		page.Options = options
		if s.desc.HasItems {
			page.ItemsTotal = crud.ItemsTotal(form.Items)
		}
	}

	status := http.StatusOK
	if form != nil && len(form.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	s.render(w, r, "pages/resource_list.html", page, status)
}

func (s *Screen) render(w http.ResponseWriter, r *http.Request, template string, data any, status int) {
	sess := session.FromContext(r.Context())
	csrfToken, _ := s.csrf.EnsureToken(r.Context(), sess)
	var flash *session.FlashMessage
	var userID string
	if sess != nil {
		flash = sess.PopFlash()
		userID = sess.UserID()
	}
	viewData := view.TemplateData{
		Title:       s.desc.Title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		UserID:      userID,
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.Render(w, template, viewData); err != nil {
		s.logger.Error("render template", "error", err, "template", template)
	}
}

// redirectToList keeps the caller on the page it came from; deletes reload
// in place so the remaining rows of that page stay visible.
func (s *Screen) redirectToList(w http.ResponseWriter, r *http.Request) {
	target := "/" + s.desc.Slug
	if u := r.URL.Query().Get("u"); u != "" {
		target += "?u=" + url.QueryEscape(u)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Screen) redirectToDefault(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+s.desc.Slug, http.StatusSeeOther)
}

// handleAPIError covers the global unauthorized side effect: the client has
// already cleared the token, the screen only forces navigation to login.
func (s *Screen) handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	s.logger.Error("api call failed", "resource", s.desc.Slug, "error", err)
	http.Redirect(w, r, "/"+s.desc.Slug, http.StatusSeeOther)
}
