package screens

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianpos/backoffice/internal/crud"
)

var skuPattern = regexp.MustCompile(`^[A-Z]{1,3}-[A-Z]{1,3}-\d{1,3}$`)

func TestGenerateSKUFormat(t *testing.T) {
	sku := GenerateSKU("Beverages", "Orange Juice")
	require.Regexp(t, skuPattern, sku)
	assert.True(t, strings.HasPrefix(sku, "BEV-ORA-"), "got %s", sku)
}

func TestGenerateSKUFallsBackToGEN(t *testing.T) {
	sku := GenerateSKU("", "Trail Mix")
	assert.True(t, strings.HasPrefix(sku, "GEN-TRA-"), "got %s", sku)
}

func TestGenerateSKUShortNames(t *testing.T) {
	sku := GenerateSKU("Ox", "Ab")
	assert.True(t, strings.HasPrefix(sku, "OX-AB-"), "got %s", sku)
}

func TestProductPrepareFormSuggestsSKU(t *testing.T) {
	desc, hooks := Products()
	require.NotNil(t, hooks.PrepareForm)

	form := crud.NewAddForm(desc)
	form.Values["name"] = "Orange Juice"
	form.Values["category_id"] = "c-1"
	options := map[string][]Option{
		"category_id": {{ID: "c-1", Label: "Beverages"}},
	}

	hooks.PrepareForm(form, options)
	assert.True(t, strings.HasPrefix(form.Value("SKU"), "BEV-ORA-"), "got %s", form.Value("SKU"))
}

func TestProductPrepareFormKeepsManualSKU(t *testing.T) {
	desc, hooks := Products()
	form := crud.NewAddForm(desc)
	form.Values["name"] = "Orange Juice"
	form.Values["SKU"] = "CUSTOM-1"

	hooks.PrepareForm(form, nil)
	assert.Equal(t, "CUSTOM-1", form.Value("SKU"), "a typed SKU is never overwritten")
}

func TestProductPrepareFormNeedsName(t *testing.T) {
	desc, hooks := Products()
	form := crud.NewAddForm(desc)

	hooks.PrepareForm(form, nil)
	assert.Empty(t, form.Value("SKU"), "no suggestion without a product name")
}
