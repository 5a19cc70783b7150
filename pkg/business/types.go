package business

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
	"time"
)

// Product is an item sold at the register
type Product struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Category  string    `json:"category" yaml:"category"`
	Price     float64   `json:"price" yaml:"price"`
	Stock     int       `json:"stock" yaml:"stock"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// TransactionItem is one line of a sale
type TransactionItem struct {
	ProductID string  `json:"product_id" yaml:"product_id"`
	Name      string  `json:"name" yaml:"name"`
	Quantity  int     `json:"quantity" yaml:"quantity"`
	Price     float64 `json:"price" yaml:"price"`
}

// Subtotal returns quantity times unit price
func (i TransactionItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}

// Transaction is a completed sale
type Transaction struct {
	ID         string            `json:"id" yaml:"id"`
	Items      []TransactionItem `json:"items" yaml:"items"`
	Total      float64           `json:"total" yaml:"total"`
	EmployeeID string            `json:"employee_id" yaml:"employee_id"`
	CreatedAt  time.Time         `json:"created_at" yaml:"created_at"`
}

// Employee is a staff member allowed to operate the register
type Employee struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Role   string `json:"role" yaml:"role"`
	Active bool   `json:"active" yaml:"active"`
}

// Snapshot is a point-in-time copy of business state
type Snapshot struct {
	Products     []Product     `json:"products" yaml:"products"`
	Transactions []Transaction `json:"transactions" yaml:"transactions"`
	Employees    []Employee    `json:"employees" yaml:"employees"`
	TakenAt      time.Time     `json:"taken_at" yaml:"taken_at"`
}

// ProductUpdate carries the fields to change; nil fields are left alone
type ProductUpdate struct {
	Name  *string
	Price *float64
	Stock *int
}

// Gateway is the read/write interface over live business state.
// Writes are eventually consistent; callers must not rely on reading
// back their own writes.
type Gateway interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Products(ctx context.Context) ([]Product, error)
	Transactions(ctx context.Context) ([]Transaction, error)
	Employees(ctx context.Context) ([]Employee, error)

	AddProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, id string, update ProductUpdate) error
	DeleteProduct(ctx context.Context, id string) error

	AddTransaction(ctx context.Context, t Transaction) error
	DeleteTransactions(ctx context.Context, ids []string) (int, error)

	AddEmployee(ctx context.Context, e Employee) error
}
