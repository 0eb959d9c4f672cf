package disclosure

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

type ordersRepository interface {
	FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

type keysRepository interface {
	FindByOrderItemIDs(ctx context.Context, itemIDs []uuid.UUID) ([]models.LicenseKey, error)
}

// ItemView is the disclosure state of one purchased item as shown to the buyer.
type ItemView struct {
	OrderItemID uuid.UUID
	Status      enums.DisclosureStatus
	Plaintext   *string
}

// Service exposes the disclosure protocol over a buyer's orders. Machines
// are kept per (buyer, order) so the pending acknowledgment survives across
// requests within a session, mirroring a single-writer client session.
type Service interface {
	Items(ctx context.Context, buyerID, orderID uuid.UUID) ([]ItemView, error)
	RequestReveal(ctx context.Context, buyerID, orderID, itemID uuid.UUID) error
	CancelReveal(ctx context.Context, buyerID, orderID, itemID uuid.UUID) error
	ConfirmReveal(ctx context.Context, buyerID, orderID, itemID uuid.UUID, acceptedWarning bool) (ItemView, error)
}

// ServiceParams wires the disclosure service dependencies.
type ServiceParams struct {
	Orders      ordersRepository
	Keys        keysRepository
	Reveals     RevealStore
	Celebrator  Celebrator
	Placeholder string
}

type service struct {
	orders      ordersRepository
	keys        keysRepository
	reveals     RevealStore
	celebrator  Celebrator
	placeholder string

	mu       sync.Mutex
	machines map[machineKey]*Machine
}

type machineKey struct {
	buyerID uuid.UUID
	orderID uuid.UUID
}

// NewService builds the disclosure service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Keys == nil {
		return nil, fmt.Errorf("keys repository required")
	}
	if params.Reveals == nil {
		return nil, fmt.Errorf("reveal store required")
	}
	return &service{
		orders:      params.Orders,
		keys:        params.Keys,
		reveals:     params.Reveals,
		celebrator:  params.Celebrator,
		placeholder: params.Placeholder,
		machines:    make(map[machineKey]*Machine),
	}, nil
}

func (s *service) Items(ctx context.Context, buyerID, orderID uuid.UUID) ([]ItemView, error) {
	machine, items, err := s.machineFor(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, s.viewOf(machine, item.OrderItemID))
	}
	return views, nil
}

func (s *service) RequestReveal(ctx context.Context, buyerID, orderID, itemID uuid.UUID) error {
	machine, _, err := s.machineFor(ctx, buyerID, orderID)
	if err != nil {
		return err
	}
	return machine.RequestReveal(itemID)
}

func (s *service) CancelReveal(ctx context.Context, buyerID, orderID, itemID uuid.UUID) error {
	machine, _, err := s.machineFor(ctx, buyerID, orderID)
	if err != nil {
		return err
	}
	return machine.Cancel(itemID)
}

func (s *service) ConfirmReveal(ctx context.Context, buyerID, orderID, itemID uuid.UUID, acceptedWarning bool) (ItemView, error) {
	machine, _, err := s.machineFor(ctx, buyerID, orderID)
	if err != nil {
		return ItemView{}, err
	}
	if _, err := machine.Confirm(ctx, itemID, acceptedWarning); err != nil {
		return ItemView{}, err
	}
	return s.viewOf(machine, itemID), nil
}

func (s *service) viewOf(machine *Machine, itemID uuid.UUID) ItemView {
	view := ItemView{OrderItemID: itemID, Status: enums.DisclosureHidden}
	if status, ok := machine.StatusOf(itemID); ok {
		view.Status = status
	}
	if plaintext, ok := machine.Plaintext(itemID); ok {
		view.Plaintext = &plaintext
	}
	return view
}

// machineFor returns the session machine for the buyer/order pair, loading
// the order, its items, and the allocated keys on first use. The machine's
// fulfillment stage snapshot is refreshed when the order has since advanced.
func (s *service) machineFor(ctx context.Context, buyerID, orderID uuid.UUID) (*Machine, []Item, error) {
	if buyerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer identity missing")
	}
	if orderID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.orders.FindForBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been paid")
	}

	rows, err := s.orders.ListItems(ctx, orderID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	itemIDs := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		itemIDs[i] = row.ID
	}

	keys, err := s.keys.FindByOrderItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load license keys")
	}
	ciphertextByItem := make(map[uuid.UUID]string, len(keys))
	for _, key := range keys {
		if key.OrderItemID != nil {
			ciphertextByItem[*key.OrderItemID] = key.Ciphertext
		}
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{
			OrderItemID: row.ID,
			OrderID:     orderID,
			Ciphertext:  ciphertextByItem[row.ID],
			Stage:       order.FulfillmentStage,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := machineKey{buyerID: buyerID, orderID: orderID}
	machine, ok := s.machines[key]
	if !ok {
		machine, err = NewMachine(MachineParams{
			Store:       s.reveals,
			Celebrator:  s.celebrator,
			Placeholder: s.placeholder,
		})
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build disclosure machine")
		}
		if err := machine.Hydrate(ctx, buyerID, items); err != nil {
			return nil, nil, err
		}
		s.machines[key] = machine
	} else {
		machine.RefreshStages(order.FulfillmentStage)
	}

	return machine, items, nil
}
