package store

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
	"time"

	"github.com/rizome-dev/kasir/pkg/business"
)

// DemoSnapshot returns a small warung with a few weeks of sales ending at now
func DemoSnapshot(now time.Time) *business.Snapshot {
	products := []business.Product{
		{ID: "p-indomie", Name: "Indomie Goreng", Category: "Makanan", Price: 3000, Stock: 120},
		{ID: "p-aqua", Name: "Aqua 600ml", Category: "Minuman", Price: 4000, Stock: 48},
		{ID: "p-tehbotol", Name: "Teh Botol Sosro", Category: "Minuman", Price: 5000, Stock: 36},
		{ID: "p-gula", Name: "Gula Pasir 1kg", Category: "Sembako", Price: 17000, Stock: 20},
		{ID: "p-kopi", Name: "Kopi Kapal Api", Category: "Minuman", Price: 1500, Stock: 200},
	}
	for i := range products {
		products[i].UpdatedAt = now
	}

	employees := []business.Employee{
		{ID: "e-owner", Name: "Budi", Role: "owner", Active: true},
		{ID: "e-kasir", Name: "Sari", Role: "cashier", Active: true},
	}

	// One sale per day for 45 days, so every report period and the
	// purge action have something to work on
	var transactions []business.Transaction
	for day := 0; day < 45; day++ {
		p := products[day%len(products)]
		qty := 1 + day%3
		item := business.TransactionItem{ProductID: p.ID, Name: p.Name, Quantity: qty, Price: p.Price}
		transactions = append(transactions, business.Transaction{
			ID:         fmt.Sprintf("t-%03d", day),
			Items:      []business.TransactionItem{item},
			Total:      item.Subtotal(),
			EmployeeID: employees[day%len(employees)].ID,
			CreatedAt:  now.Add(-time.Duration(day) * 24 * time.Hour),
		})
	}

	return &business.Snapshot{
		Products:     products,
		Transactions: transactions,
		Employees:    employees,
		TakenAt:      now,
	}
}

// Seed writes every record of snap through gw
func Seed(ctx context.Context, gw business.Gateway, snap *business.Snapshot) error {
	for _, p := range snap.Products {
		if err := gw.AddProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, e := range snap.Employees {
		if err := gw.AddEmployee(ctx, e); err != nil {
			return err
		}
	}
	for _, t := range snap.Transactions {
		if err := gw.AddTransaction(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
