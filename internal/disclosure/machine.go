package disclosure

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

// DefaultDecodePlaceholder is shown in place of a key whose ciphertext
// cannot be decoded. The disclosure still legally occurred.
const DefaultDecodePlaceholder = "Erreur de décodage"

// Item is a purchased line item whose key the machine governs.
type Item struct {
	OrderItemID uuid.UUID
	OrderID     uuid.UUID
	Ciphertext  string
	Stage       enums.FulfillmentStage
}

// RevealStore is the durable one-way disclosure memory.
type RevealStore interface {
	ListRevealedItemIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error)
	SaveReveal(ctx context.Context, reveal *models.KeyReveal) error
}

// Celebrator receives the one-time side effect fired on a fresh reveal.
type Celebrator interface {
	Celebrate(ctx context.Context, buyerID, orderItemID uuid.UUID)
}

type entry struct {
	orderID    uuid.UUID
	ciphertext string
	stage      enums.FulfillmentStage
	status     enums.DisclosureStatus
	plaintext  string
}

// Machine governs key disclosure for one buyer's purchased items.
//
// States per item: hidden → pending_confirmation → revealed. Revealed is
// terminal; only pending → hidden (cancel) is reversible. The acknowledgment
// gate and the durable reveal memory encode the "no refund after reveal"
// business rule.
type Machine struct {
	mu      sync.Mutex
	buyerID uuid.UUID

	store       RevealStore
	celebrator  Celebrator
	placeholder string

	entries map[uuid.UUID]*entry
}

// MachineParams wires the machine's collaborators.
type MachineParams struct {
	Store       RevealStore
	Celebrator  Celebrator
	Placeholder string
}

// NewMachine builds a disclosure machine. The celebrator is optional.
func NewMachine(params MachineParams) (*Machine, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("reveal store required")
	}
	placeholder := params.Placeholder
	if placeholder == "" {
		placeholder = DefaultDecodePlaceholder
	}
	return &Machine{
		store:       params.Store,
		celebrator:  params.Celebrator,
		placeholder: placeholder,
		entries:     make(map[uuid.UUID]*entry),
	}, nil
}

// Hydrate loads the durable reveal memory for the buyer and seeds the
// machine with the provided items. Items already revealed in a previous
// session are restored directly to revealed with their plaintext re-decoded;
// restoring never fires the celebration.
func (m *Machine) Hydrate(ctx context.Context, buyerID uuid.UUID, items []Item) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer identity missing")
	}

	revealed, err := m.store.ListRevealedItemIDs(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reveal memory")
	}
	revealedSet := make(map[uuid.UUID]struct{}, len(revealed))
	for _, id := range revealed {
		revealedSet[id] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.buyerID = buyerID
	m.entries = make(map[uuid.UUID]*entry, len(items))
	for _, item := range items {
		e := &entry{
			orderID:    item.OrderID,
			ciphertext: item.Ciphertext,
			stage:      item.Stage,
			status:     enums.DisclosureHidden,
		}
		if _, ok := revealedSet[item.OrderItemID]; ok {
			e.status = enums.DisclosureRevealed
			e.plaintext = m.decode(item.Ciphertext)
		}
		m.entries[item.OrderItemID] = e
	}
	return nil
}

// RequestReveal moves an item from hidden to pending_confirmation. The
// owning order must have reached the ready fulfillment stage. Requesting an
// already pending or already revealed item is an error-free no-op.
func (m *Machine) RequestReveal(itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[itemID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "purchased item not found")
	}

	switch e.status {
	case enums.DisclosureRevealed, enums.DisclosurePendingConfirmation:
		return nil
	}

	if e.stage != enums.FulfillmentStageReady {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not ready for key reveal")
	}

	e.status = enums.DisclosurePendingConfirmation
	return nil
}

// Cancel returns a pending item to hidden, discarding the acknowledgment.
// It never touches a revealed item.
func (m *Machine) Cancel(itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[itemID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "purchased item not found")
	}
	if e.status == enums.DisclosurePendingConfirmation {
		e.status = enums.DisclosureHidden
	}
	return nil
}

// Confirm performs the irreversible reveal: it requires the item to be
// pending and the warning explicitly accepted, decodes the ciphertext,
// persists the reveal, and fires the celebration at most once. Confirming an
// already revealed item returns its plaintext without side effects.
func (m *Machine) Confirm(ctx context.Context, itemID uuid.UUID, acceptedWarning bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[itemID]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "purchased item not found")
	}

	if e.status == enums.DisclosureRevealed {
		return e.plaintext, nil
	}
	if e.status != enums.DisclosurePendingConfirmation {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "reveal has not been requested")
	}
	if !acceptedWarning {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "the non-refund warning must be accepted")
	}

	reveal := &models.KeyReveal{
		OrderItemID: itemID,
		OrderID:     e.orderID,
		BuyerID:     m.buyerID,
		RevealedAt:  time.Now().UTC(),
	}
	if err := m.store.SaveReveal(ctx, reveal); err != nil {
		// Nothing committed: the item stays pending and may be confirmed again.
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist reveal")
	}

	e.plaintext = m.decode(e.ciphertext)
	e.status = enums.DisclosureRevealed

	if m.celebrator != nil {
		m.celebrator.Celebrate(ctx, m.buyerID, itemID)
	}
	return e.plaintext, nil
}

// RefreshStages updates the fulfillment stage snapshot for every item,
// typically after the cron pipeline advanced the owning order.
func (m *Machine) RefreshStages(stage enums.FulfillmentStage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		e.stage = stage
	}
}

// Plaintext returns the decoded key for a revealed item.
func (m *Machine) Plaintext(itemID uuid.UUID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[itemID]
	if !ok || e.status != enums.DisclosureRevealed {
		return "", false
	}
	return e.plaintext, true
}

// StatusOf reports the disclosure status for an item.
func (m *Machine) StatusOf(itemID uuid.UUID) (enums.DisclosureStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[itemID]
	if !ok {
		return "", false
	}
	return e.status, true
}

// decode tolerates sloppy padding the way browser atob does: trailing '='
// are stripped and the raw alphabet is used. A malformed ciphertext yields
// the placeholder rather than an error; the disclosure already occurred.
func (m *Machine) decode(ciphertext string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(ciphertext), "=")
	raw, err := base64.RawStdEncoding.DecodeString(trimmed)
	if err != nil {
		return m.placeholder
	}
	return string(raw)
}
