package screens

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/meridianpos/backoffice/internal/crud"
)

// Products lists the catalogue. The SKU field carries an advisory suggestion
// derived from the category and product names; it is display logic only and
// makes no uniqueness promise.
func Products() (crud.Descriptor, Hooks) {
	desc := crud.Descriptor{
		Name:  "Product",
		Title: "Product List",
		Path:  "/products",
		Slug:  "products",
		Fields: []crud.Field{
			{Name: "name", Label: "Name", Kind: crud.KindText},
			{Name: "SKU", Label: "SKU", Kind: crud.KindText},
			{Name: "price", Label: "Price", Kind: crud.KindNumber, Step: "any"},
			{Name: "initial_stock_quantity", Label: "Initial Stock Quantity", Kind: crud.KindNumber, Step: "1"},
			{Name: "category_id", Label: "Category", Kind: crud.KindSelect, OptionsFrom: "/categories", OptionLabel: "name"},
		},
		Columns: []crud.Column{
			{Header: "Name", Attr: "name"},
			{Header: "SKU", Attr: "SKU"},
			{Header: "Price", Attr: "price", Money: true},
			{Header: "Stock", Attr: "initial_stock_quantity"},
		},
	}
	hooks := Hooks{
		PrepareForm: func(f *crud.FormState, options map[string][]Option) {
			if f.Value("SKU") != "" || f.Value("name") == "" {
				return
			}
			category := ""
			for _, opt := range options["category_id"] {
				if opt.ID == f.Value("category_id") {
					category = opt.Label
					break
				}
			}
			f.Values["SKU"] = GenerateSKU(category, f.Value("name"))
		},
	}
	return desc, hooks
}

// GenerateSKU builds the advisory SKU suggestion: a prefix from the category
// name (falling back to GEN), a prefix from the product name and a random
// numeric suffix. Not guaranteed unique.
func GenerateSKU(categoryName, productName string) string {
	category := prefix(categoryName)
	if category == "" {
		category = "GEN"
	}
	return category + "-" + prefix(productName) + "-" + strconv.Itoa(rand.Intn(1000))
}

func prefix(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 3 {
		s = s[:3]
	}
	return strings.ToUpper(s)
}
