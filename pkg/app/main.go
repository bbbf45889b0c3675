package app

import (
	"github.com/ghuser/itemregistry/pkg/cache"
	"github.com/ghuser/itemregistry/pkg/config"
	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/events"
	"github.com/ghuser/itemregistry/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to every service's Routes function during server initialization.
//
// EventBus and Redis are optional: both are nil when running on SQLite or
// with CACHE_ENABLED=false, and services must tolerate that.
//
// Logging: app.Logger is backed by a trace-aware handler, so use slog's context
// methods and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "item created", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
type Application struct {
	Config   *config.Config
	Db       *database.Database
	Logger   logger.Logger
	EventBus *events.EventBus
	Redis    *cache.RedisClient
}
