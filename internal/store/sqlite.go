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
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/utils"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/business"
	"github.com/rizome-dev/kasir/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT,
	price REAL NOT NULL DEFAULT 0,
	stock INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT
);
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	items TEXT NOT NULL,
	total REAL NOT NULL DEFAULT 0,
	employee_id TEXT,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS employees (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT,
	active INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS executions (
	id TEXT PRIMARY KEY,
	action_id TEXT NOT NULL,
	action_name TEXT,
	parameters TEXT,
	status TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT,
	result TEXT,
	user_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_executions_action ON executions(action_id);
CREATE INDEX IF NOT EXISTS idx_executions_user ON executions(user_id);
`

// SQLite persists business state and execution history in one database
type SQLite struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// OpenSQLite opens (or creates) the database at path
func OpenSQLite(path string) (*SQLite, error) {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

// Path returns the database path
func (s *SQLite) Path() string {
	return s.path
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Reset deletes all business records. Execution history is kept.
func (s *SQLite) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"products", "transactions", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Snapshot returns all business state
func (s *SQLite) Snapshot(ctx context.Context) (*business.Snapshot, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := s.Employees(ctx)
	if err != nil {
		return nil, err
	}
	return &business.Snapshot{
		Products:     products,
		Transactions: transactions,
		Employees:    employees,
		TakenAt:      time.Now(),
	}, nil
}

// Products returns all products ordered by name
func (s *SQLite) Products(ctx context.Context) ([]business.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, category, price, stock, updated_at FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []business.Product
	for rows.Next() {
		var p business.Product
		var category, updated sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &category, &p.Price, &p.Stock, &updated); err != nil {
			return nil, err
		}
		p.Category = category.String
		p.UpdatedAt = parseTime(updated.String)
		products = append(products, p)
	}
	return products, rows.Err()
}

// Transactions returns all transactions, oldest first
func (s *SQLite) Transactions(ctx context.Context) ([]business.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, items, total, employee_id, created_at FROM transactions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []business.Transaction
	for rows.Next() {
		var t business.Transaction
		var items, created string
		var employee sql.NullString
		if err := rows.Scan(&t.ID, &items, &t.Total, &employee, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(items), &t.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of %s: %w", t.ID, err)
		}
		t.EmployeeID = employee.String
		t.CreatedAt = parseTime(created)
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// Employees returns all employees
func (s *SQLite) Employees(ctx context.Context) ([]business.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, role, active FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []business.Employee
	for rows.Next() {
		var e business.Employee
		var role sql.NullString
		var active int
		if err := rows.Scan(&e.ID, &e.Name, &role, &active); err != nil {
			return nil, err
		}
		e.Role = role.String
		e.Active = active == 1
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// AddProduct inserts a product
func (s *SQLite) AddProduct(ctx context.Context, p business.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, category, price, stock, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.Price, p.Stock, formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add product %s: %w", p.ID, err)
	}
	return nil
}

// UpdateProduct changes the non-nil fields of update
func (s *SQLite) UpdateProduct(ctx context.Context, id string, update business.ProductUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := []string{"updated_at = ?"}
	args := []interface{}{formatTime(time.Now())}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *update.Price)
	}
	if update.Stock != nil {
		sets = append(sets, "stock = ?")
		args = append(args, *update.Stock)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE products SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrProductNotFound, id)
	}
	return nil
}

// DeleteProduct removes a product
func (s *SQLite) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrProductNotFound, id)
	}
	return nil
}

// AddTransaction records a sale
func (s *SQLite) AddTransaction(ctx context.Context, t business.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	items, err := json.Marshal(t.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, items, total, employee_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, string(items), t.Total, t.EmployeeID, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to add transaction %s: %w", t.ID, err)
	}
	return nil
}

// DeleteTransactions removes the transactions with the given IDs
func (s *SQLite) DeleteTransactions(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	removed := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("failed to delete transaction %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}

// AddEmployee inserts an employee
func (s *SQLite) AddEmployee(ctx context.Context, e business.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, name, role, active) VALUES (?, ?, ?, ?)`,
		e.ID, e.Name, e.Role, boolToInt(e.Active))
	if err != nil {
		return fmt.Errorf("failed to add employee %s: %w", e.ID, err)
	}
	return nil
}

// Save upserts an execution record
func (s *SQLite) Save(ctx context.Context, exec *actpkg.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := json.Marshal(exec.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	var end, result sql.NullString
	if exec.EndTime != nil {
		end = sql.NullString{String: formatTime(*exec.EndTime), Valid: true}
	}
	if exec.Result != nil {
		b, err := json.Marshal(storedResult{Result: exec.Result, DurationMS: exec.Result.DurationMS()})
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		result = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO executions
		(id, action_id, action_name, parameters, status, start_time, end_time, result, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			parameters = excluded.parameters,
			end_time = excluded.end_time,
			result = excluded.result`,
		exec.ID, exec.ActionID, exec.ActionName, string(params), string(exec.Status),
		formatTime(exec.StartTime), end, result, exec.UserID)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", exec.ID, err)
	}
	return nil
}

// ExecutionFilter narrows an execution query
type ExecutionFilter struct {
	ActionID string
	UserID   string
	Limit    int
}

// Executions returns persisted execution records, newest first
func (s *SQLite) Executions(ctx context.Context, filter ExecutionFilter) ([]*actpkg.Execution, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT id, action_id, action_name, parameters, status, start_time, end_time, result, user_id FROM executions")

	var where []string
	var args []interface{}
	if filter.ActionID != "" {
		where = append(where, "action_id = ?")
		args = append(args, filter.ActionID)
	}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(where) > 0 {
		builder.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	builder.WriteString(" ORDER BY start_time DESC")
	if filter.Limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var out []*actpkg.Execution
	for rows.Next() {
		exec := &actpkg.Execution{}
		var name, params, user, end, result sql.NullString
		var status, start string
		if err := rows.Scan(&exec.ID, &exec.ActionID, &name, &params, &status, &start, &end, &result, &user); err != nil {
			return nil, err
		}
		exec.ActionName = name.String
		exec.Status = actpkg.Status(status)
		exec.StartTime = parseTime(start)
		exec.UserID = user.String
		if params.Valid && params.String != "" {
			if err := json.Unmarshal([]byte(params.String), &exec.Parameters); err != nil {
				return nil, fmt.Errorf("failed to decode parameters of %s: %w", exec.ID, err)
			}
		}
		if end.Valid {
			t := parseTime(end.String)
			exec.EndTime = &t
		}
		if result.Valid {
			var stored storedResult
			if err := json.Unmarshal([]byte(result.String), &stored); err != nil {
				return nil, fmt.Errorf("failed to decode result of %s: %w", exec.ID, err)
			}
			if stored.Result != nil {
				stored.Result.Duration = time.Duration(stored.DurationMS) * time.Millisecond
			}
			exec.Result = stored.Result
		}
		out = append(out, exec)
	}
	return out, rows.Err()
}

// storedResult adds the engine-measured duration, which Result keeps out of JSON
type storedResult struct {
	*actpkg.Result
	DurationMS int64 `json:"duration_ms"`
}

// timeLayout has a fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var (
	_ business.Gateway   = (*SQLite)(nil)
	_ action.HistorySink = (*SQLite)(nil)
)
