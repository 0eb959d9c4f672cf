package stock

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type keysRepository interface {
	CreateKeys(ctx context.Context, keys []models.LicenseKey) error
	CountByStatus(ctx context.Context, offerID uuid.UUID) (map[enums.KeyStatus]int64, error)
}

type offersRepository interface {
	FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	IncrementOfferStock(ctx context.Context, offerID uuid.UUID, qty int) error
}

// Service handles back-office key inventory operations.
type Service interface {
	ImportKeys(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, offerID uuid.UUID, rawKeys string) (*ImportResult, error)
	Overview(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, offerID uuid.UUID) (*Overview, error)
}

// ImportResult reports how many keys a bulk import added.
type ImportResult struct {
	OfferID  uuid.UUID
	Imported int
}

// Overview is an offer's key inventory breakdown.
type Overview struct {
	OfferID   uuid.UUID
	Available int64
	Sold      int64
}

// ServiceParams wires the stock service dependencies. KeysWithTx and
// OffersWithTx rebind the repositories to an open transaction.
type ServiceParams struct {
	Tx           txRunner
	Keys         keysRepository
	Offers       offersRepository
	KeysWithTx   func(tx *gorm.DB) keysRepository
	OffersWithTx func(tx *gorm.DB) offersRepository
}

type service struct {
	tx           txRunner
	keys         keysRepository
	offers       offersRepository
	keysWithTx   func(tx *gorm.DB) keysRepository
	offersWithTx func(tx *gorm.DB) offersRepository
}

// NewService builds the stock service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Keys == nil {
		return nil, fmt.Errorf("keys repository required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if params.KeysWithTx == nil || params.OffersWithTx == nil {
		return nil, fmt.Errorf("tx binders required")
	}
	return &service{
		tx:           params.Tx,
		keys:         params.Keys,
		offers:       params.Offers,
		keysWithTx:   params.KeysWithTx,
		offersWithTx: params.OffersWithTx,
	}, nil
}

// ParseKeyLines splits a raw newline-separated paste into clean key strings.
func ParseKeyLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	keys := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

// ImportKeys base64-encodes and inserts every pasted key and bumps the
// offer's advertised stock in the same transaction: a failure leaves nothing
// partially committed.
func (s *service) ImportKeys(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, offerID uuid.UUID, rawKeys string) (*ImportResult, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if offerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}

	plainKeys := ParseKeyLines(rawKeys)
	if len(plainKeys) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no keys to import")
	}

	offer, err := s.findOwnedOffer(ctx, s.offers, actorID, actorRole, offerID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.LicenseKey, len(plainKeys))
	for i, plain := range plainKeys {
		rows[i] = models.LicenseKey{
			OfferID:    offer.ID,
			Ciphertext: base64.StdEncoding.EncodeToString([]byte(plain)),
			Status:     enums.KeyStatusAvailable,
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.keysWithTx(tx).CreateKeys(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert keys")
		}
		if err := s.offersWithTx(tx).IncrementOfferStock(ctx, offer.ID, len(rows)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump offer stock")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{OfferID: offer.ID, Imported: len(rows)}, nil
}

func (s *service) Overview(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, offerID uuid.UUID) (*Overview, error) {
	if offerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}

	offer, err := s.findOwnedOffer(ctx, s.offers, actorID, actorRole, offerID)
	if err != nil {
		return nil, err
	}

	counts, err := s.keys.CountByStatus(ctx, offer.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count keys")
	}

	return &Overview{
		OfferID:   offer.ID,
		Available: counts[enums.KeyStatusAvailable],
		Sold:      counts[enums.KeyStatusSold],
	}, nil
}

func (s *service) findOwnedOffer(ctx context.Context, offers offersRepository, actorID uuid.UUID, actorRole enums.UserRole, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := offers.FindOfferByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup offer")
	}
	if actorRole != enums.UserRoleAdmin && offer.VendorID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "offer does not belong to you")
	}
	return offer, nil
}
