package services

import (
	"github.com/ghuser/itemregistry/pkg/app"
	"github.com/ghuser/itemregistry/pkg/cache"
	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/services/item/domain/repositories"
	"github.com/ghuser/itemregistry/services/item/infrastructure/persistence/postgres"
	"github.com/ghuser/itemregistry/services/item/infrastructure/persistence/sqlite"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Item *ItemService
}

// New wires all item application services with infrastructure from the Application container.
// The repository follows the configured driver; the item cache is enabled only
// when a Redis client is present.
func New(a *app.Application) *Services {
	var repo repositories.ItemRepository
	switch a.Db.Driver() {
	case database.DriverSQLite:
		repo = sqlite.NewItemRepository(a.Db)
	default:
		repo = postgres.NewItemRepository(a.Db, a.EventBus)
	}

	var itemCache *cache.ItemCache
	if a.Redis != nil {
		itemCache = cache.NewItemCache(a.Redis)
	}

	opts := []Option{}
	if a.Config != nil {
		opts = append(opts, WithPageSizes(a.Config.DefaultPageSize, a.Config.MaxPageSize))
	}

	return &Services{
		Item: NewItemService(repo, itemCache, a.Logger, opts...),
	}
}
