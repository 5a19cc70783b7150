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
	"sync"
	"time"

	"github.com/rizome-dev/kasir/pkg/business"
	"github.com/rizome-dev/kasir/pkg/core"
)

// Memory is an in-process business gateway
type Memory struct {
	mu           sync.RWMutex
	products     []business.Product
	transactions []business.Transaction
	employees    []business.Employee
	now          func() time.Time
}

// NewMemory creates a gateway pre-filled with snap; snap may be nil
func NewMemory(snap *business.Snapshot) *Memory {
	m := &Memory{now: time.Now}
	if snap != nil {
		m.products = append(m.products, snap.Products...)
		m.transactions = append(m.transactions, snap.Transactions...)
		m.employees = append(m.employees, snap.Employees...)
	}
	return m
}

// Snapshot returns a copy of all business state
func (m *Memory) Snapshot(ctx context.Context) (*business.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &business.Snapshot{
		Products:     append([]business.Product(nil), m.products...),
		Transactions: copyTransactions(m.transactions),
		Employees:    append([]business.Employee(nil), m.employees...),
		TakenAt:      m.now(),
	}, nil
}

// Products returns all products
func (m *Memory) Products(ctx context.Context) ([]business.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]business.Product(nil), m.products...), nil
}

// Transactions returns all transactions
func (m *Memory) Transactions(ctx context.Context) ([]business.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyTransactions(m.transactions), nil
}

// Employees returns all employees
func (m *Memory) Employees(ctx context.Context) ([]business.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]business.Employee(nil), m.employees...), nil
}

// AddProduct inserts a product
func (m *Memory) AddProduct(ctx context.Context, p business.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.products {
		if existing.ID == p.ID {
			return fmt.Errorf("product already exists: %s", p.ID)
		}
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = m.now()
	}
	m.products = append(m.products, p)
	return nil
}

// UpdateProduct changes the non-nil fields of update
func (m *Memory) UpdateProduct(ctx context.Context, id string, update business.ProductUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.products {
		if m.products[i].ID != id {
			continue
		}
		applyUpdate(&m.products[i], update)
		m.products[i].UpdatedAt = m.now()
		return nil
	}
	return fmt.Errorf("%w: %s", core.ErrProductNotFound, id)
}

// DeleteProduct removes a product
func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", core.ErrProductNotFound, id)
}

// AddTransaction records a sale
func (m *Memory) AddTransaction(ctx context.Context, t business.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.now()
	}
	m.transactions = append(m.transactions, copyTransactions([]business.Transaction{t})...)
	return nil
}

// DeleteTransactions removes the transactions with the given IDs
func (m *Memory) DeleteTransactions(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := m.transactions[:0]
	removed := 0
	for _, t := range m.transactions {
		if drop[t.ID] {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	m.transactions = kept
	return removed, nil
}

// AddEmployee inserts an employee
func (m *Memory) AddEmployee(ctx context.Context, e business.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.employees {
		if existing.ID == e.ID {
			return fmt.Errorf("employee already exists: %s", e.ID)
		}
	}
	m.employees = append(m.employees, e)
	return nil
}

func applyUpdate(p *business.Product, update business.ProductUpdate) {
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Stock != nil {
		p.Stock = *update.Stock
	}
}

func copyTransactions(in []business.Transaction) []business.Transaction {
	out := make([]business.Transaction, len(in))
	for i, t := range in {
		t.Items = append([]business.TransactionItem(nil), t.Items...)
		out[i] = t
	}
	return out
}

var _ business.Gateway = (*Memory)(nil)
