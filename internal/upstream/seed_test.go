package upstream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, Seed(ctx, store))
	require.NoError(t, Seed(ctx, store), "a second seed run is a no-op")

	_, users, err := store.List(ctx, ColUsers, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, users)

	_, purchases, err := store.List(ctx, ColPurchases, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 12, purchases, "enough purchases to paginate")

	admin, found, err := store.FindByAttr(ctx, ColUsers, "email", "admin@example.com")
	require.NoError(t, err)
	require.True(t, found)
	hash, _ := admin.Attrs["password_hash"].(string)
	assert.True(t, CheckPassword(hash, "password"))
}

func TestSeededPurchasesValidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, Seed(ctx, store))

	v := newRecordValidator(store)
	records, _, err := store.List(ctx, ColPurchases, 1, 5)
	require.NoError(t, err)
	for _, rec := range records {
		// Stored items are in the nested shape; re-flatten for validation the
		// way a client submission would arrive.
		attrs := make(map[string]any, len(rec.Attrs))
		for k, val := range rec.Attrs {
			attrs[k] = val
		}
		items, ok := rec.Attrs["items"].([]map[string]any)
		require.True(t, ok)
		flat := make([]any, 0, len(items))
		for _, item := range items {
			flat = append(flat, item["attributes"])
		}
		attrs["items"] = flat
		assert.Empty(t, v.Validate(ctx, ColPurchases, attrs, rec.ID))
	}
}
