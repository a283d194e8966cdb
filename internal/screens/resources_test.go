package screens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianpos/backoffice/internal/api"
	"github.com/meridianpos/backoffice/internal/session"
)

func TestUsersHideDeleteForOwnAccount(t *testing.T) {
	_, hooks := Users()
	require.NotNil(t, hooks.CanDelete)

	sess := &session.Session{}
	sess.SetCredentials("token", "u-1")

	assert.False(t, hooks.CanDelete(sess, api.Resource{ID: "u-1"}), "own account must not be deletable")
	assert.True(t, hooks.CanDelete(sess, api.Resource{ID: "u-2"}))
	assert.True(t, hooks.CanDelete(nil, api.Resource{ID: "u-1"}), "no session means no row to protect")
}

func TestPurchasesDescriptor(t *testing.T) {
	desc, _ := Purchases()
	assert.True(t, desc.HasItems)
	assert.Equal(t, "/purchases", desc.Path)

	supplier, ok := desc.Field("supplier_id")
	require.True(t, ok)
	assert.Equal(t, "/suppliers", supplier.OptionsFrom)

	date, ok := desc.Field("purchase_date")
	require.True(t, ok)
	assert.Equal(t, "date", string(date.Kind))
}
