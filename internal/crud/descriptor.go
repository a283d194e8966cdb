// Package crud holds the reusable list-paginate-edit cycle every back-office
// screen runs: a generic controller over the POS API plus the form state that
// backs the modal dialogs. Screens configure it with a Descriptor instead of
// re-implementing the cycle per resource.
package crud

import "time"

// FieldKind selects the input control a field renders as.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindEmail  FieldKind = "email"
	KindNumber FieldKind = "number"
	KindDate   FieldKind = "date"
	KindSelect FieldKind = "select"
)

// Field describes one form field of a resource.
type Field struct {
	Name  string
	Label string
	Kind  FieldKind
	// OptionsFrom names the collection path feeding a select control, for
	// example "/categories" for a product's category field.
	OptionsFrom string
	// OptionLabel is the attribute shown for each select option.
	OptionLabel string
	// Step is the numeric input step ("1", "any"), empty for non-numbers.
	Step string
}

// Column describes one table column of the list screen.
type Column struct {
	Header string
	Attr   string
	// Money formats the cell as a two-decimal amount.
	Money bool
	// Date formats the cell as a calendar date.
	Date bool
}

// Descriptor is the declarative per-resource configuration: field set, empty
// template and endpoint path. Everything else is shared machinery.
type Descriptor struct {
	// Name is the singular display name ("Product").
	Name string
	// Title heads the list screen ("Product List").
	Title string
	// Path is the collection endpoint ("/products").
	Path string
	// Slug is the front-end route segment ("products").
	Slug string

	Fields  []Field
	Columns []Column

	// HasItems marks composite resources carrying ordered line items.
	HasItems bool
}

// DefaultURL is the unpaginated collection URL, the target of the initial
// load and of post-create reloads.
func (d Descriptor) DefaultURL() string { return d.Path }

// ItemURL addresses one record of the collection.
func (d Descriptor) ItemURL(id string) string { return d.Path + "/" + id }

// Empty returns a fresh form template: every field blank except dates, which
// default to today.
func (d Descriptor) Empty() map[string]string {
	values := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		if f.Kind == KindDate {
			values[f.Name] = time.Now().Format("2006-01-02")
			continue
		}
		values[f.Name] = ""
	}
	return values
}

// Field looks a field up by name.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
