// Command itemctl manages items directly against the configured database.
// It reads the same environment as the API server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/ghuser/itemregistry/pkg/app"
	"github.com/ghuser/itemregistry/pkg/cache"
	"github.com/ghuser/itemregistry/pkg/config"
	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/events"
	"github.com/ghuser/itemregistry/pkg/logger"
	appsvcs "github.com/ghuser/itemregistry/services/item/application/services"
	itemEvents "github.com/ghuser/itemregistry/services/item/domain/events"
)

func main() {
	c := &cli{out: os.Stdout}
	c.open = c.openFromConfig
	if err := newRootCmd(c).Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openFromConfig loads config from the environment, applies flag overrides
// and wires the item services the same way the API server does. Writes go
// through the forwarder queue, which the API server relays, and keep the
// Redis read model in step when CACHE_ENABLED is set.
func (c *cli) openFromConfig(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.driver != "" {
		cfg.DatabaseDriver = c.driver
	}
	if c.dsn != "" {
		cfg.DefinitionDatabaseURL = c.dsn
	}

	log := logger.Discard()
	if c.verbose {
		log = logger.NewWithWriter(os.Stderr, "debug", "text")
	}

	db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DefinitionDatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DatabaseDriver, err)
	}

	a := &app.Application{Config: cfg, Db: db, Logger: log}
	closers := []func(){db.Close}
	closeAll := func() {
		for _, f := range closers {
			f()
		}
	}
	if db.Driver() == database.DriverPostgres {
		bus, err := events.NewEventBusWithForwarder(db, cfg, log)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("event bus: %w", err)
		}
		closers = append([]func(){func() { _ = bus.Close() }}, closers...)
		if err := bus.InitializeTopics(itemEvents.Topics...); err != nil {
			closeAll()
			return nil, fmt.Errorf("event bus: %w", err)
		}
		a.EventBus = bus
	}

	rc, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("%w (set CACHE_ENABLED=false to run without the item cache)", err)
	}
	if rc != nil {
		a.Redis = rc
		closers = append([]func(){func() { _ = rc.Close() }}, closers...)
	}

	return &env{
		db:    db,
		svc:   appsvcs.New(a).Item,
		close: closeAll,
	}, nil
}
