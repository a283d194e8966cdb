package screens

import "github.com/meridianpos/backoffice/internal/crud"

// Purchases lists supplier purchases. The form edits an ordered list of line
// items; the running total is recomputed from the rows and submitted as
// total_amount alongside them.
func Purchases() (crud.Descriptor, Hooks) {
	desc := crud.Descriptor{
		Name:  "Purchase",
		Title: "Purchase List",
		Path:  "/purchases",
		Slug:  "purchases",
		Fields: []crud.Field{
			{Name: "supplier_id", Label: "Supplier", Kind: crud.KindSelect, OptionsFrom: "/suppliers", OptionLabel: "name"},
			{Name: "purchase_date", Label: "Purchase Date", Kind: crud.KindDate},
		},
		Columns: []crud.Column{
			{Header: "Supplier", Attr: "supplier_name"},
			{Header: "Purchase Date", Attr: "purchase_date", Date: true},
			{Header: "Total Amount", Attr: "total_amount", Money: true},
		},
		HasItems: true,
	}
	return desc, Hooks{}
}

// ItemProductOptions is the collection feeding the product select rendered
// in each line item row.
const ItemProductOptions = "/products"
