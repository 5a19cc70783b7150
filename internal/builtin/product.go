package builtin

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"context"
	"fmt"
	"strings"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/business"
	"github.com/rizome-dev/kasir/pkg/core"
	"github.com/sahilm/fuzzy"
)

// FindProduct resolves a user-supplied id or name. It tries an exact id,
// then a case-insensitive name, then a name containing the query, then a
// fuzzy match.
func FindProduct(products []business.Product, query string) (business.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return business.Product{}, fmt.Errorf("%w: empty name", core.ErrProductNotFound)
	}

	for _, p := range products {
		if p.ID == query {
			return p, nil
		}
	}
	for _, p := range products {
		if strings.EqualFold(p.Name, query) {
			return p, nil
		}
	}

	lower := strings.ToLower(query)
	best := -1
	for i, p := range products {
		if strings.Contains(strings.ToLower(p.Name), lower) {
			// Prefer the shortest name, it is the closest to the query
			if best < 0 || len(p.Name) < len(products[best].Name) {
				best = i
			}
		}
	}
	if best >= 0 {
		return products[best], nil
	}

	names := make([]string, len(products))
	for i, p := range products {
		names[i] = strings.ToLower(p.Name)
	}
	if matches := fuzzy.Find(lower, names); len(matches) > 0 {
		return products[matches[0].Index], nil
	}

	return business.Product{}, fmt.Errorf("%w: %s", core.ErrProductNotFound, query)
}

func updatePriceHandler(deps Deps) actpkg.Handler {
	return func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
		price, _ := params.Float("newPrice")
		if price <= 0 {
			return &actpkg.Result{
				Success: false,
				Message: "Price must be greater than zero",
				Error:   fmt.Sprintf("invalid price: %v", params["newPrice"]),
			}, nil
		}

		product, result, err := lookupProduct(ctx, deps, params.String("productId"))
		if result != nil || err != nil {
			return result, err
		}

		if err := deps.Gateway.UpdateProduct(ctx, product.ID, business.ProductUpdate{Price: &price}); err != nil {
			return nil, fmt.Errorf("failed to update price of %s: %w", product.ID, err)
		}

		return &actpkg.Result{
			Success: true,
			Message: fmt.Sprintf("Price of %s changed from %s to %s", product.Name, formatRupiah(product.Price), formatRupiah(price)),
			Data: map[string]interface{}{
				"productId": product.ID,
				"name":      product.Name,
				"oldPrice":  product.Price,
				"newPrice":  price,
			},
		}, nil
	}
}

func updateStockHandler(deps Deps) actpkg.Handler {
	return func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
		stock, _ := params.Int("newStock")
		if stock < 0 {
			return &actpkg.Result{
				Success: false,
				Message: "Stock cannot be negative",
				Error:   fmt.Sprintf("invalid stock: %v", params["newStock"]),
			}, nil
		}

		product, result, err := lookupProduct(ctx, deps, params.String("productId"))
		if result != nil || err != nil {
			return result, err
		}

		if err := deps.Gateway.UpdateProduct(ctx, product.ID, business.ProductUpdate{Stock: &stock}); err != nil {
			return nil, fmt.Errorf("failed to update stock of %s: %w", product.ID, err)
		}

		return &actpkg.Result{
			Success: true,
			Message: fmt.Sprintf("Stock of %s changed from %d to %d", product.Name, product.Stock, stock),
			Data: map[string]interface{}{
				"productId": product.ID,
				"name":      product.Name,
				"oldStock":  product.Stock,
				"newStock":  stock,
			},
		}, nil
	}
}

// lookupProduct returns either the product, a user-facing failure result
// when nothing matches, or a gateway error
func lookupProduct(ctx context.Context, deps Deps, query string) (business.Product, *actpkg.Result, error) {
	products, err := deps.Gateway.Products(ctx)
	if err != nil {
		return business.Product{}, nil, fmt.Errorf("failed to load products: %w", err)
	}

	product, err := FindProduct(products, query)
	if err != nil {
		return business.Product{}, &actpkg.Result{
			Success: false,
			Message: "Product not found",
			Error:   err.Error(),
		}, nil
	}
	return product, nil, nil
}
