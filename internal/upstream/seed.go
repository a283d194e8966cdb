package upstream

import (
	"context"
	"fmt"
)

// Seed loads a small demo data set: an admin login, a handful of suppliers,
// categories and products, and enough purchases to paginate. It is a no-op
// when a user already exists, so restarts against Postgres stay clean.
func Seed(ctx context.Context, store Store) error {
	_, total, err := store.List(ctx, ColUsers, 1, 1)
	if err != nil {
		return fmt.Errorf("upstream: seed check: %w", err)
	}
	if total > 0 {
		return nil
	}

	hash, err := HashPassword("password")
	if err != nil {
		return err
	}
	if _, err := store.Create(ctx, ColUsers, map[string]any{
		"name":          "Admin",
		"email":         "admin@example.com",
		"password_hash": hash,
	}); err != nil {
		return err
	}

	suppliers := []map[string]any{
		{"name": "Acme Wholesale", "contact_info": "acme@example.com", "address": "1 Industrial Way"},
		{"name": "Blue Ridge Foods", "contact_info": "+1 555 0101", "address": "22 Market St"},
		{"name": "Cedar Supply Co", "contact_info": "sales@cedar.example.com", "address": "9 Dock Rd"},
	}
	supplierIDs := make([]string, 0, len(suppliers))
	for _, attrs := range suppliers {
		rec, err := store.Create(ctx, ColSuppliers, attrs)
		if err != nil {
			return err
		}
		supplierIDs = append(supplierIDs, rec.ID)
	}

	categories := []map[string]any{
		{"name": "Beverages", "description": "Drinks and juices"},
		{"name": "Snacks", "description": "Packaged snacks"},
		{"name": "Household", "description": "Cleaning and paper goods"},
	}
	categoryIDs := make([]string, 0, len(categories))
	for _, attrs := range categories {
		rec, err := store.Create(ctx, ColCategories, attrs)
		if err != nil {
			return err
		}
		categoryIDs = append(categoryIDs, rec.ID)
	}

	products := []map[string]any{
		{"name": "Orange Juice 1L", "SKU": "BEV-ORA-104", "price": "3.50", "initial_stock_quantity": "40"},
		{"name": "Sparkling Water", "SKU": "BEV-SPA-221", "price": "1.25", "initial_stock_quantity": "120"},
		{"name": "Potato Chips", "SKU": "SNA-POT-318", "price": "2.10", "initial_stock_quantity": "80"},
		{"name": "Trail Mix", "SKU": "SNA-TRA-472", "price": "4.75", "initial_stock_quantity": "35"},
		{"name": "Paper Towels", "SKU": "HOU-PAP-056", "price": "5.99", "initial_stock_quantity": "60"},
	}
	productIDs := make([]string, 0, len(products))
	for i, attrs := range products {
		attrs["category_id"] = categoryIDs[i%len(categoryIDs)]
		rec, err := store.Create(ctx, ColProducts, attrs)
		if err != nil {
			return err
		}
		productIDs = append(productIDs, rec.ID)
	}

	for i := 0; i < 12; i++ {
		attrs := map[string]any{
			"supplier_id":   supplierIDs[i%len(supplierIDs)],
			"purchase_date": fmt.Sprintf("2026-08-%02d", i+1),
			"items": []any{
				map[string]any{
					"product_id": productIDs[i%len(productIDs)],
					"quantity":   "10",
					"unit_price": "2.00",
				},
			},
			"total_amount": "20.00",
		}
		assignItemIDs(attrs)
		if _, err := store.Create(ctx, ColPurchases, attrs); err != nil {
			return err
		}
	}
	return nil
}
