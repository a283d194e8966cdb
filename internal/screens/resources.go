package screens

import (
	"github.com/meridianpos/backoffice/internal/api"
	"github.com/meridianpos/backoffice/internal/crud"
	"github.com/meridianpos/backoffice/internal/session"
)

// Users lists the staff accounts. Deleting your own account is not offered;
// the row filter hides the affordance entirely rather than relying on the
// server to refuse.
func Users() (crud.Descriptor, Hooks) {
	desc := crud.Descriptor{
		Name:  "User",
		Title: "User List",
		Path:  "/users",
		Slug:  "users",
		Fields: []crud.Field{
			{Name: "name", Label: "Name", Kind: crud.KindText},
			{Name: "email", Label: "Email", Kind: crud.KindEmail},
		},
		Columns: []crud.Column{
			{Header: "Name", Attr: "name"},
			{Header: "Email", Attr: "email"},
		},
	}
	hooks := Hooks{
		CanDelete: func(sess *session.Session, res api.Resource) bool {
			return sess == nil || res.ID != sess.UserID()
		},
	}
	return desc, hooks
}

// Suppliers lists purchase suppliers.
func Suppliers() (crud.Descriptor, Hooks) {
	desc := crud.Descriptor{
		Name:  "Supplier",
		Title: "Supplier List",
		Path:  "/suppliers",
		Slug:  "suppliers",
		Fields: []crud.Field{
			{Name: "name", Label: "Name", Kind: crud.KindText},
			{Name: "contact_info", Label: "Contact Info", Kind: crud.KindText},
			{Name: "address", Label: "Address", Kind: crud.KindText},
		},
		Columns: []crud.Column{
			{Header: "Name", Attr: "name"},
			{Header: "Contact Info", Attr: "contact_info"},
			{Header: "Address", Attr: "address"},
		},
	}
	return desc, Hooks{}
}

// Categories lists product categories.
func Categories() (crud.Descriptor, Hooks) {
	desc := crud.Descriptor{
		Name:  "Category",
		Title: "Category List",
		Path:  "/categories",
		Slug:  "categories",
		Fields: []crud.Field{
			{Name: "name", Label: "Name", Kind: crud.KindText},
			{Name: "description", Label: "Description", Kind: crud.KindText},
		},
		Columns: []crud.Column{
			{Header: "Name", Attr: "name"},
			{Header: "Description", Attr: "description"},
		},
	}
	return desc, Hooks{}
}
