package upstream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// fieldErrors accumulates per-field validation messages in the wire shape
// the front end renders inline.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, message string) {
	fe[field] = append(fe[field], message)
}

type recordValidator struct {
	store    Store
	validate *validator.Validate
}

func newRecordValidator(store Store) *recordValidator {
	return &recordValidator{store: store, validate: validator.New()}
}

// Validate checks a payload for one collection. excludeID skips the record
// being updated in uniqueness checks. The returned map is empty when the
// payload is acceptable.
func (v *recordValidator) Validate(ctx context.Context, collection string, attrs map[string]any, excludeID string) fieldErrors {
	errs := make(fieldErrors)
	switch collection {
	case ColUsers:
		v.required(errs, attrs, "name")
		if v.required(errs, attrs, "email") {
			email := str(attrs["email"])
			if v.validate.Var(email, "email") != nil {
				errs.add("email", "The email must be a valid email address.")
			} else if rec, found, _ := v.store.FindByAttr(ctx, ColUsers, "email", email); found && rec.ID != excludeID {
				errs.add("email", "The email has already been taken.")
			}
		}
	case ColSuppliers:
		v.required(errs, attrs, "name")
		v.required(errs, attrs, "contact_info")
		v.required(errs, attrs, "address")
	case ColCategories:
		v.required(errs, attrs, "name")
	case ColProducts:
		v.required(errs, attrs, "name")
		v.required(errs, attrs, "SKU")
		v.number(errs, attrs, "price", 0)
		v.number(errs, attrs, "initial_stock_quantity", 0)
		if v.required(errs, attrs, "category_id") {
			v.exists(ctx, errs, ColCategories, attrs, "category_id")
		}
	case ColPurchases:
		if v.required(errs, attrs, "supplier_id") {
			v.exists(ctx, errs, ColSuppliers, attrs, "supplier_id")
		}
		if v.required(errs, attrs, "purchase_date") {
			if _, err := time.Parse("2006-01-02", str(attrs["purchase_date"])); err != nil {
				errs.add("purchase_date", "The purchase_date is not a valid date.")
			}
		}
		v.number(errs, attrs, "total_amount", 0)
		v.validateItems(ctx, errs, attrs)
	}
	return errs
}

func (v *recordValidator) validateItems(ctx context.Context, errs fieldErrors, attrs map[string]any) {
	items, ok := attrs["items"].([]any)
	if !ok || len(items) == 0 {
		errs.add("items", "The items field is required.")
		return
	}
	for i, entry := range items {
		item, ok := entry.(map[string]any)
		if !ok {
			errs.add(fmt.Sprintf("items.%d", i), "The item is invalid.")
			continue
		}
		prefix := fmt.Sprintf("items.%d.", i)
		if str(item["product_id"]) == "" {
			errs.add(prefix+"product_id", "The product_id field is required.")
		} else if _, err := v.store.Get(ctx, ColProducts, str(item["product_id"])); err != nil {
			errs.add(prefix+"product_id", "The selected product_id is invalid.")
		}
		if qty, err := strconv.ParseFloat(str(item["quantity"]), 64); err != nil {
			errs.add(prefix+"quantity", "The quantity must be a number.")
		} else if qty < 1 {
			errs.add(prefix+"quantity", "The quantity must be at least 1.")
		}
		if price, err := strconv.ParseFloat(str(item["unit_price"]), 64); err != nil {
			errs.add(prefix+"unit_price", "The unit_price must be a number.")
		} else if price < 0 {
			errs.add(prefix+"unit_price", "The unit_price must be at least 0.")
		}
	}
}

// required reports whether the field carries a non-empty value, recording
// the standard message when it does not.
func (v *recordValidator) required(errs fieldErrors, attrs map[string]any, field string) bool {
	if str(attrs[field]) == "" {
		errs.add(field, fmt.Sprintf("The %s field is required.", field))
		return false
	}
	return true
}

func (v *recordValidator) number(errs fieldErrors, attrs map[string]any, field string, min float64) {
	if !v.required(errs, attrs, field) {
		return
	}
	n, err := strconv.ParseFloat(str(attrs[field]), 64)
	if err != nil {
		errs.add(field, fmt.Sprintf("The %s must be a number.", field))
		return
	}
	if n < min {
		errs.add(field, fmt.Sprintf("The %s must be at least %g.", field, min))
	}
}

func (v *recordValidator) exists(ctx context.Context, errs fieldErrors, collection string, attrs map[string]any, field string) {
	if _, err := v.store.Get(ctx, collection, str(attrs[field])); err != nil {
		errs.add(field, fmt.Sprintf("The selected %s is invalid.", field))
	}
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
