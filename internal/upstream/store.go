// Package upstream implements a stand-in POS API speaking the exact wire
// contract the back office consumes: enveloped collections with pagination
// links, per-field validation failures and bearer-token auth. It backs local
// development and the end-to-end tests; production deployments point the
// front end at the real API instead.
package upstream

import "context"

// Collection names served by the API.
const (
	ColUsers      = "users"
	ColSuppliers  = "suppliers"
	ColCategories = "categories"
	ColProducts   = "products"
	ColPurchases  = "purchases"
)

// Collections lists every served collection.
var Collections = []string{ColUsers, ColSuppliers, ColCategories, ColProducts, ColPurchases}

// Record is one stored resource. Attributes stay schemaless because the
// store only orders and retrieves them; the handlers validate shapes.
type Record struct {
	ID    string
	Attrs map[string]any
}

// Store persists records per collection, preserving insertion order so
// paginated listings are stable.
type Store interface {
	List(ctx context.Context, collection string, page, perPage int) ([]Record, int, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	Create(ctx context.Context, collection string, attrs map[string]any) (Record, error)
	Update(ctx context.Context, collection, id string, attrs map[string]any) (Record, error)
	Delete(ctx context.Context, collection, id string) error
	// FindByAttr returns the first record whose attribute equals value,
	// used for email lookups at login and uniqueness checks.
	FindByAttr(ctx context.Context, collection, key, value string) (Record, bool, error)
}
