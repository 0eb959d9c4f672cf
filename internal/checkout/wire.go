package checkout

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/internal/cart"
	"github.com/nexus-market/nexus-backend/internal/catalog"
	"github.com/nexus-market/nexus-backend/internal/orders"
	"github.com/nexus-market/nexus-backend/internal/pricing"
	"github.com/nexus-market/nexus-backend/internal/stock"
	"github.com/nexus-market/nexus-backend/pkg/db"
	"github.com/nexus-market/nexus-backend/pkg/metrics"
)

// GormRepos are the concrete repositories the checkout transaction touches.
type GormRepos struct {
	Orders *orders.Repository
	Keys   *stock.Repository
	Offers *catalog.Repository
	Cart   *cart.Repository
}

// NewGormService wires the checkout service over the gorm-backed repositories.
func NewGormService(client *db.Client, cartSvc cart.Service, engine *pricing.Engine, processor Processor, m *metrics.StorefrontMetrics, repos GormRepos) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repos.Orders == nil || repos.Keys == nil || repos.Offers == nil || repos.Cart == nil {
		return nil, fmt.Errorf("repositories required")
	}
	return NewService(ServiceParams{
		Tx:        client,
		Cart:      cartSvc,
		Engine:    engine,
		Processor: processor,
		Metrics:   m,
		OrdersWithTx: func(tx *gorm.DB) ordersRepository {
			return repos.Orders.WithTx(tx)
		},
		KeysWithTx: func(tx *gorm.DB) keysRepository {
			return repos.Keys.WithTx(tx)
		},
		OffersWithTx: func(tx *gorm.DB) offersRepository {
			return repos.Offers.WithTx(tx)
		},
		CartWithTx: func(tx *gorm.DB) cartStore {
			return repos.Cart.WithTx(tx)
		},
	})
}
