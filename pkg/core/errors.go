package core

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

import "errors"

var (
	// Action errors
	ErrActionNotFound    = errors.New("action not found")
	ErrInvalidParameters = errors.New("invalid action parameters")
	ErrNoResult          = errors.New("handler returned no result")
	ErrHandlerPanic      = errors.New("handler panicked")

	// Confirmation errors
	ErrNoPendingAction      = errors.New("no pending action")
	ErrPendingExpired       = errors.New("pending action expired")
	ErrConfirmationRequired = errors.New("action requires confirmation")

	// Business state errors
	ErrProductNotFound = errors.New("product not found")

	// Storage errors
	ErrBackupFailed   = errors.New("backup failed")
	ErrCacheFailed    = errors.New("cache operation failed")
	ErrCatalogInvalid = errors.New("invalid phrase catalog")
)
