package crud

import (
	"fmt"
	"strconv"

	"github.com/meridianpos/backoffice/internal/api"
)

// Mode distinguishes the two ways a form opens.
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// LineItem is one row of a composite resource (a purchase line). Values stay
// strings because they mirror form inputs verbatim.
type LineItem struct {
	ProductID string
	Quantity  string
	UnitPrice string
}

// FormState backs one open modal session. It is created when the modal opens,
// seeded from the empty template (add) or an existing record (edit), and
// discarded when the modal closes; nothing survives across sessions.
type FormState struct {
	Mode   Mode
	ID     string
	Values map[string]string
	Items  []LineItem
	Errors api.FieldErrors
}

// NewAddForm seeds a form from the resource's empty template.
func NewAddForm(d Descriptor) *FormState {
	f := &FormState{Mode: ModeAdd, Values: d.Empty()}
	if d.HasItems {
		f.Items = []LineItem{{}}
	}
	return f
}

// NewEditForm seeds a form from a record's current attributes. Line items are
// re-seeded in the exact order the server returned them.
func NewEditForm(d Descriptor, res api.Resource) *FormState {
	f := &FormState{Mode: ModeEdit, ID: res.ID, Values: make(map[string]string, len(d.Fields))}
	for _, field := range d.Fields {
		f.Values[field.Name] = res.Attr(field.Name)
	}
	if d.HasItems {
		f.Items = ItemsFromAttributes(res.Attributes)
	}
	return f
}

// Value returns the current input value for a field.
func (f *FormState) Value(name string) string {
	if f == nil || f.Values == nil {
		return ""
	}
	return f.Values[name]
}

// SetErrors installs validation messages without touching entered values.
func (f *FormState) SetErrors(errs api.FieldErrors) {
	f.Errors = errs
}

// FieldErrors returns the messages for one field, nil when it is clean.
func (f *FormState) FieldErrors(name string) []string {
	if f == nil || f.Errors == nil {
		return nil
	}
	return f.Errors[name]
}

// Title is the modal heading for this session.
func (f *FormState) Title(d Descriptor) string {
	if f.Mode == ModeEdit {
		return "Edit " + d.Name
	}
	return "Add New " + d.Name
}

// Attributes assembles the submit payload. Composite resources carry their
// items in order plus the computed total_amount.
func (f *FormState) Attributes(d Descriptor) map[string]any {
	attrs := make(map[string]any, len(f.Values)+2)
	for k, v := range f.Values {
		attrs[k] = v
	}
	if d.HasItems {
		items := make([]map[string]any, 0, len(f.Items))
		for _, it := range f.Items {
			items = append(items, map[string]any{
				"product_id": it.ProductID,
				"quantity":   it.Quantity,
				"unit_price": it.UnitPrice,
			})
		}
		attrs["items"] = items
		attrs["total_amount"] = ItemsTotal(f.Items)
	}
	return attrs
}

// AddItem appends a blank line item row.
func (f *FormState) AddItem() {
	f.Items = append(f.Items, LineItem{})
}

// RemoveItem drops the row at index, keeping the remaining order.
func (f *FormState) RemoveItem(index int) {
	if index < 0 || index >= len(f.Items) {
		return
	}
	f.Items = append(f.Items[:index], f.Items[index+1:]...)
}

// ItemsFromAttributes extracts ordered line items from a record's attributes.
// The server nests each item as {id, attributes} the same way it wraps top
// level resources; flat maps are accepted too.
func ItemsFromAttributes(attrs map[string]any) []LineItem {
	raw, ok := attrs["items"].([]any)
	if !ok {
		return nil
	}
	items := make([]LineItem, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if nested, ok := m["attributes"].(map[string]any); ok {
			m = nested
		}
		items = append(items, LineItem{
			ProductID: stringify(m["product_id"]),
			Quantity:  stringify(m["quantity"]),
			UnitPrice: stringify(m["unit_price"]),
		})
	}
	return items
}

// ItemsTotal computes the running total as the sum of quantity x unit price
// across all rows, formatted to two decimal places. Unparseable rows count
// as zero.
func ItemsTotal(items []LineItem) string {
	var sum float64
	for _, it := range items {
		qty, err1 := strconv.ParseFloat(it.Quantity, 64)
		price, err2 := strconv.ParseFloat(it.UnitPrice, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		sum += qty * price
	}
	return fmt.Sprintf("%.2f", sum)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
