package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Resource is one record returned by the POS API. Attribute values are left
// untyped because each screen decides how to present them.
type Resource struct {
	ID         string
	Attributes map[string]any
}

// UnmarshalJSON accepts both string and numeric ids; the server assigns them
// and the client only ever echoes them back.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Attributes map[string]any  `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Attributes = raw.Attributes
	if len(raw.ID) == 0 || bytes.Equal(raw.ID, []byte("null")) {
		r.ID = ""
		return nil
	}
	if raw.ID[0] == '"' {
		var s string
		if err := json.Unmarshal(raw.ID, &s); err != nil {
			return err
		}
		r.ID = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.ID, &n); err != nil {
		return err
	}
	r.ID = n.String()
	return nil
}

// Attr returns an attribute rendered as a string, or "" when absent.
func (r Resource) Attr(name string) string {
	v, ok := r.Attributes[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers arrive as float64; drop the artificial fraction.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// PageLink is one navigable entry of a pagination link list. A nil URL marks
// a disabled link (for example "Previous" on the first page).
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// PageMeta describes one page of a paginated collection.
type PageMeta struct {
	From        int        `json:"from"`
	To          int        `json:"to"`
	Total       int        `json:"total"`
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	PerPage     int        `json:"per_page"`
	Links       []PageLink `json:"links"`
}

// FieldErrors maps a field name to its validation messages, in server order.
type FieldErrors map[string][]string

// Envelope is the POS API response wrapper. `message` is polymorphic: a
// string on success paths and a field-to-messages map on validation failure,
// so it stays raw until a caller asks for one of the two shapes.
type Envelope struct {
	Data    json.RawMessage `json:"data"`
	Meta    *PageMeta       `json:"meta"`
	RawMsg  json.RawMessage `json:"message"`
	RawErrs json.RawMessage `json:"errors"`
}

// Resources decodes the envelope data as a resource collection.
func (e *Envelope) Resources() ([]Resource, error) {
	if e == nil || len(e.Data) == 0 {
		return nil, nil
	}
	var out []Resource
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return nil, fmt.Errorf("api: decode collection: %w", err)
	}
	return out, nil
}

// Resource decodes the envelope data as a single record.
func (e *Envelope) Resource() (Resource, error) {
	var out Resource
	if e == nil || len(e.Data) == 0 {
		return out, fmt.Errorf("api: envelope has no data")
	}
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return out, fmt.Errorf("api: decode resource: %w", err)
	}
	return out, nil
}

// Message returns the whole-operation message when the server sent one.
func (e *Envelope) Message() string {
	if e == nil || len(e.RawMsg) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.RawMsg, &s); err != nil {
		return ""
	}
	return s
}

// FieldErrors returns per-field validation messages, or nil when the message
// is not the validation shape.
func (e *Envelope) FieldErrors() FieldErrors {
	if e == nil {
		return nil
	}
	for _, raw := range [][]byte{e.RawMsg, e.RawErrs} {
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var errs FieldErrors
		if err := json.Unmarshal(raw, &errs); err == nil && len(errs) > 0 {
			return errs
		}
	}
	return nil
}
