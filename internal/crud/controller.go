package crud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/meridianpos/backoffice/internal/api"
)

// Doer is the slice of the API client the controller needs.
type Doer interface {
	Do(ctx context.Context, method, path string, body any) (*api.Envelope, error)
}

// Notifier receives whole-operation outcomes. The web layer flashes them,
// tests record them.
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string)
}

// NopNotifier drops notifications.
type NopNotifier struct{}

func (NopNotifier) Success(context.Context, string) {}
func (NopNotifier) Failure(context.Context, string) {}

// Controller drives the fetch, render, paginate cycle for one resource. It
// exclusively owns the current page: rows, meta and links are swapped
// atomically on a successful load and left untouched on failure.
type Controller struct {
	desc     Descriptor
	client   Doer
	logger   *slog.Logger
	notifier Notifier

	mu         sync.Mutex
	seq        uint64
	rows       []api.Resource
	meta       api.PageMeta
	links      []api.PageLink
	currentURL string
}

// NewController builds a controller for one resource.
func NewController(desc Descriptor, client Doer, logger *slog.Logger, notifier Notifier) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Controller{
		desc:       desc,
		client:     client,
		logger:     logger,
		notifier:   notifier,
		currentURL: desc.DefaultURL(),
	}
}

// Descriptor returns the resource configuration driving this controller.
func (c *Controller) Descriptor() Descriptor { return c.desc }

// Load fetches one page and replaces the held list, meta and links. An empty
// url means the default collection URL. Each call is stamped with a
// monotonically increasing sequence; a completion that is no longer the
// latest issued is discarded so a slow stale response cannot clobber newer
// data. Failures keep prior state and are logged only.
func (c *Controller) Load(ctx context.Context, url string) error {
	if url == "" {
		url = c.desc.DefaultURL()
	}

	c.mu.Lock()
	c.seq++
	stamp := c.seq
	c.mu.Unlock()

	env, err := c.client.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("load list failed", "resource", c.desc.Slug, "url", url, "error", err)
		return err
	}
	rows, err := env.Resources()
	if err != nil {
		c.logger.Error("decode list failed", "resource", c.desc.Slug, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if stamp != c.seq {
		// A newer load was issued while this one was in flight.
		return nil
	}
	c.rows = rows
	if env.Meta != nil {
		c.meta = *env.Meta
		c.links = env.Meta.Links
	} else {
		c.meta = api.PageMeta{}
		c.links = nil
	}
	c.currentURL = url
	return nil
}

// Rows returns the current page's records.
func (c *Controller) Rows() []api.Resource {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Resource, len(c.rows))
	copy(out, c.rows)
	return out
}

// Meta returns the current page metadata.
func (c *Controller) Meta() api.PageMeta {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

// Links returns the current pagination links.
func (c *Controller) Links() []api.PageLink {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.PageLink, len(c.links))
	copy(out, c.links)
	return out
}

// CurrentURL is the URL of the most recently applied load.
func (c *Controller) CurrentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentURL
}

// RangeText renders the human-readable page range.
func (c *Controller) RangeText() string {
	m := c.Meta()
	return fmt.Sprintf("%d to %d of %d", m.From, m.To, m.Total)
}

// Get fetches one record, used to seed edit forms for composite resources.
func (c *Controller) Get(ctx context.Context, id string) (api.Resource, error) {
	env, err := c.client.Do(ctx, http.MethodGet, c.desc.ItemURL(id), nil)
	if err != nil {
		return api.Resource{}, err
	}
	return env.Resource()
}

// Create posts a new record. On success the list returns to the default URL
// and a success notification fires. A validation failure surfaces field
// errors for the still-open modal; any other failure is returned as-is.
func (c *Controller) Create(ctx context.Context, attrs map[string]any) (api.FieldErrors, error) {
	_, err := c.client.Do(ctx, http.MethodPost, c.desc.Path, attrs)
	if err != nil {
		if errs, ok := api.ValidationErrors(err); ok {
			return errs, nil
		}
		c.notifier.Failure(ctx, fmt.Sprintf("Failed to add %s.", lower(c.desc.Name)))
		return nil, err
	}
	c.notifier.Success(ctx, c.desc.Name+" added successfully!")
	if err := c.Load(ctx, ""); err != nil {
		c.logger.Warn("reload after create failed", "resource", c.desc.Slug, "error", err)
	}
	return nil, nil
}

// Update puts changed attributes for one record, with the same outcome
// handling as Create. Updates return the list to the default URL afterwards.
func (c *Controller) Update(ctx context.Context, id string, attrs map[string]any) (api.FieldErrors, error) {
	_, err := c.client.Do(ctx, http.MethodPut, c.desc.ItemURL(id), attrs)
	if err != nil {
		if errs, ok := api.ValidationErrors(err); ok {
			return errs, nil
		}
		c.notifier.Failure(ctx, fmt.Sprintf("Failed to update %s.", lower(c.desc.Name)))
		return nil, err
	}
	c.notifier.Success(ctx, c.desc.Name+" updated successfully!")
	if err := c.Load(ctx, ""); err != nil {
		c.logger.Warn("reload after update failed", "resource", c.desc.Slug, "error", err)
	}
	return nil, nil
}

// Remove deletes one record. Callers must have taken the user through an
// explicit confirmation step first; declining that step never reaches here.
// Success reloads the current page, failure leaves the list unchanged.
func (c *Controller) Remove(ctx context.Context, id string) error {
	_, err := c.client.Do(ctx, http.MethodDelete, c.desc.ItemURL(id), nil)
	if err != nil {
		c.notifier.Failure(ctx, fmt.Sprintf("Failed to delete %s.", lower(c.desc.Name)))
		return err
	}
	c.notifier.Success(ctx, c.desc.Name+" deleted successfully!")
	if err := c.Load(ctx, c.CurrentURL()); err != nil {
		c.logger.Warn("reload after delete failed", "resource", c.desc.Slug, "error", err)
	}
	return nil
}

func lower(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'A' && s[0] <= 'Z' {
		return string(s[0]+'a'-'A') + s[1:]
	}
	return s
}
