package cli

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
	"fmt"
	"time"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/assistant"
	"github.com/rizome-dev/kasir/internal/backup"
	"github.com/rizome-dev/kasir/internal/builtin"
	"github.com/rizome-dev/kasir/internal/cache"
	"github.com/rizome-dev/kasir/internal/catalog"
	"github.com/rizome-dev/kasir/internal/config"
	"github.com/rizome-dev/kasir/internal/intent"
	"github.com/rizome-dev/kasir/internal/logging"
	"github.com/rizome-dev/kasir/internal/store"
	"github.com/rizome-dev/kasir/internal/utils"
	"github.com/rizome-dev/kasir/pkg/business"
	"go.uber.org/zap"
)

// app is the fully wired pipeline a command works with
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	gateway   business.Gateway
	db        *store.SQLite
	registry  *action.Registry
	detector  *intent.Detector
	notifier  *action.Notifier
	history   *action.History
	engine    *action.Engine
	gate      *action.Gate
	assistant *assistant.Assistant
}

type appOptions struct {
	// demo uses an in-memory store filled with demo data instead of SQLite
	demo bool
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	var sink action.HistorySink
	if opts.demo {
		a.gateway = store.NewMemory(store.DemoSnapshot(time.Now()))
	} else {
		fresh := !utils.FileExists(cfg.Database)
		db, err := store.OpenSQLite(cfg.Database)
		if err != nil {
			return nil, err
		}
		if fresh {
			logger.Info("created database", zap.String("path", cfg.Database))
		}
		utils.RegisterCloser("sqlite", db)
		a.db = db
		a.gateway = db
		sink = db
	}

	a.registry = action.NewRegistry()
	builtin.Register(a.registry, builtin.Deps{
		Gateway: a.gateway,
		Backup:  backup.NewWriter(cfg.BackupDir),
		Cache:   cache.NewFileCache(cfg.CacheDir, cache.DefaultTTL),
	})

	added, err := catalog.NewLoader(cfg.CatalogDir, a.registry, logger).LoadAll()
	if err != nil {
		return nil, err
	}
	if added > 0 {
		logger.Debug("catalog phrases loaded", zap.Int("phrases", added))
	}

	a.detector = intent.NewDetector(a.registry, intent.Options{Threshold: cfg.IntentThreshold})
	a.notifier = action.NewNotifier(logger)
	a.history = action.NewHistory(sink, logger)
	a.engine = action.NewEngine(a.registry, a.history, a.notifier, action.EngineOptions{
		Serialize: cfg.Serialize,
		Logger:    logger,
	})
	a.gate = action.NewGate(a.engine, a.notifier, action.GateOptions{
		TTL:    cfg.GateTTL,
		Logger: logger,
	})
	a.assistant = assistant.New(a.registry, a.detector, a.gate, a.engine, logger)

	utils.RegisterCleanup("logger", func() error {
		// Sync fails on stderr for most terminals, which is harmless
		_ = logger.Sync()
		return nil
	})
	return a, nil
}

// requireDB returns the SQLite store or explains why there is none
func (a *app) requireDB() (*store.SQLite, error) {
	if a.db == nil {
		return nil, fmt.Errorf("this command needs the database, run it without --demo")
	}
	return a.db, nil
}
