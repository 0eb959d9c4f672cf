package stock

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/internal/catalog"
	"github.com/nexus-market/nexus-backend/pkg/db"
)

// NewGormService wires the stock service over the gorm-backed repositories.
func NewGormService(client *db.Client, keys *Repository, offers *catalog.Repository) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if keys == nil || offers == nil {
		return nil, fmt.Errorf("repositories required")
	}
	return NewService(ServiceParams{
		Tx:     client,
		Keys:   keys,
		Offers: offers,
		KeysWithTx: func(tx *gorm.DB) keysRepository {
			return keys.WithTx(tx)
		},
		OffersWithTx: func(tx *gorm.DB) offersRepository {
			return offers.WithTx(tx)
		},
	})
}
