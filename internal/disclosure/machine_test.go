package disclosure

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
)

type stubRevealStore struct {
	revealed map[uuid.UUID]bool
	saveErr  error
	saves    int
}

func newStubRevealStore() *stubRevealStore {
	return &stubRevealStore{revealed: make(map[uuid.UUID]bool)}
}

func (s *stubRevealStore) ListRevealedItemIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(s.revealed))
	for id := range s.revealed {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *stubRevealStore) SaveReveal(ctx context.Context, reveal *models.KeyReveal) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.revealed[reveal.OrderItemID] = true
	return nil
}

type stubCelebrator struct {
	calls int
}

func (s *stubCelebrator) Celebrate(ctx context.Context, buyerID, orderItemID uuid.UUID) {
	s.calls++
}

func encode(plaintext string) string {
	return base64.StdEncoding.EncodeToString([]byte(plaintext))
}

func newHydratedMachine(t *testing.T, store RevealStore, celebrator Celebrator, items ...Item) (*Machine, uuid.UUID) {
	t.Helper()
	machine, err := NewMachine(MachineParams{Store: store, Celebrator: celebrator})
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	buyerID := uuid.New()
	if err := machine.Hydrate(context.Background(), buyerID, items); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	return machine, buyerID
}

func readyItem(plaintext string) Item {
	return Item{
		OrderItemID: uuid.New(),
		OrderID:     uuid.New(),
		Ciphertext:  encode(plaintext),
		Stage:       enums.FulfillmentStageReady,
	}
}

func TestConfirmRequiresAcceptedWarning(t *testing.T) {
	store := newStubRevealStore()
	celebrator := &stubCelebrator{}
	item := readyItem("ABCD-EFGH-IJKL")
	machine, _ := newHydratedMachine(t, store, celebrator, item)

	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request reveal: %v", err)
	}

	_, err := machine.Confirm(context.Background(), item.OrderItemID, false)
	if err == nil {
		t.Fatal("expected rejection when warning not accepted")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// No state change, no decode, no persistence.
	if status, _ := machine.StatusOf(item.OrderItemID); status != enums.DisclosurePendingConfirmation {
		t.Fatalf("expected item to stay pending, got %s", status)
	}
	if store.saves != 0 {
		t.Fatalf("expected no persisted reveal, got %d", store.saves)
	}
	if celebrator.calls != 0 {
		t.Fatalf("expected no celebration, got %d", celebrator.calls)
	}
}

func TestConfirmRevealsAndCelebratesOnce(t *testing.T) {
	store := newStubRevealStore()
	celebrator := &stubCelebrator{}
	item := readyItem("ABCD-EFGH-IJKL")
	machine, _ := newHydratedMachine(t, store, celebrator, item)

	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	plaintext, err := machine.Confirm(context.Background(), item.OrderItemID, true)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if plaintext != "ABCD-EFGH-IJKL" {
		t.Fatalf("expected decoded key, got %q", plaintext)
	}
	if status, _ := machine.StatusOf(item.OrderItemID); status != enums.DisclosureRevealed {
		t.Fatalf("expected revealed, got %s", status)
	}

	// Double confirm: same plaintext, no duplicate decode side effects.
	again, err := machine.Confirm(context.Background(), item.OrderItemID, true)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if again != plaintext {
		t.Fatalf("expected identical plaintext, got %q", again)
	}
	if store.saves != 1 {
		t.Fatalf("expected one persisted reveal, got %d", store.saves)
	}
	if celebrator.calls != 1 {
		t.Fatalf("expected one celebration, got %d", celebrator.calls)
	}
}

func TestRequestRevealRequiresReadyStage(t *testing.T) {
	store := newStubRevealStore()
	item := Item{
		OrderItemID: uuid.New(),
		OrderID:     uuid.New(),
		Ciphertext:  encode("NOT-YET"),
		Stage:       enums.FulfillmentStageSecuring,
	}
	machine, _ := newHydratedMachine(t, store, nil, item)

	err := machine.RequestReveal(item.OrderItemID)
	if err == nil {
		t.Fatal("expected rejection before the order is ready")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if status, _ := machine.StatusOf(item.OrderItemID); status != enums.DisclosureHidden {
		t.Fatalf("expected item to stay hidden, got %s", status)
	}

	// Once the pipeline reaches ready the same request succeeds.
	machine.RefreshStages(enums.FulfillmentStageReady)
	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request after ready: %v", err)
	}
}

func TestCancelReturnsPendingToHidden(t *testing.T) {
	store := newStubRevealStore()
	item := readyItem("CANCEL-ME")
	machine, _ := newHydratedMachine(t, store, nil, item)

	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	if err := machine.Cancel(item.OrderItemID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if status, _ := machine.StatusOf(item.OrderItemID); status != enums.DisclosureHidden {
		t.Fatalf("expected hidden after cancel, got %s", status)
	}

	// Confirm without a fresh request must be rejected.
	if _, err := machine.Confirm(context.Background(), item.OrderItemID, true); err == nil {
		t.Fatal("expected state conflict confirming a hidden item")
	}
}

func TestRevealedIsTerminal(t *testing.T) {
	store := newStubRevealStore()
	item := readyItem("TERMINAL")
	machine, _ := newHydratedMachine(t, store, nil, item)

	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	if _, err := machine.Confirm(context.Background(), item.OrderItemID, true); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := machine.Cancel(item.OrderItemID); err != nil {
		t.Fatalf("cancel on revealed: %v", err)
	}
	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request on revealed: %v", err)
	}
	if status, _ := machine.StatusOf(item.OrderItemID); status != enums.DisclosureRevealed {
		t.Fatalf("expected revealed to stay terminal, got %s", status)
	}
}

func TestHydrateRestoresRevealedWithoutCelebration(t *testing.T) {
	store := newStubRevealStore()
	celebrator := &stubCelebrator{}
	item := readyItem("ROUND-TRIP-KEY")
	machine, buyerID := newHydratedMachine(t, store, celebrator, item)

	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	plaintext, err := machine.Confirm(context.Background(), item.OrderItemID, true)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Simulate a revisit: a fresh machine hydrated from the same store.
	restored, err := NewMachine(MachineParams{Store: store, Celebrator: celebrator})
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if err := restored.Hydrate(context.Background(), buyerID, []Item{item}); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	if status, _ := restored.StatusOf(item.OrderItemID); status != enums.DisclosureRevealed {
		t.Fatalf("expected restored revealed, got %s", status)
	}
	if got, ok := restored.Plaintext(item.OrderItemID); !ok || got != plaintext {
		t.Fatalf("expected restored plaintext %q, got %q", plaintext, got)
	}
	if celebrator.calls != 1 {
		t.Fatalf("restore must not fire celebration, got %d calls", celebrator.calls)
	}
}

func TestConfirmDecodesWellFormedSampleCiphertext(t *testing.T) {
	store := newStubRevealStore()
	item := Item{
		OrderItemID: uuid.New(),
		OrderID:     uuid.New(),
		Ciphertext:  "WFhYWC1ZWVlZLVaWVaWi1ORVhVUw==",
		Stage:       enums.FulfillmentStageReady,
	}
	machine, _ := newHydratedMachine(t, store, nil, item)

	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	plaintext, err := machine.Confirm(context.Background(), item.OrderItemID, true)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if plaintext == DefaultDecodePlaceholder {
		t.Fatal("expected a real decode, got the placeholder")
	}
	if !strings.HasPrefix(plaintext, "XXXX-YYYY-") {
		t.Fatalf("unexpected plaintext %q", plaintext)
	}
}

func TestConfirmMalformedCiphertextYieldsPlaceholder(t *testing.T) {
	store := newStubRevealStore()
	item := Item{
		OrderItemID: uuid.New(),
		OrderID:     uuid.New(),
		Ciphertext:  "%%%not-base64%%%",
		Stage:       enums.FulfillmentStageReady,
	}
	machine, _ := newHydratedMachine(t, store, nil, item)

	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	plaintext, err := machine.Confirm(context.Background(), item.OrderItemID, true)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if plaintext != DefaultDecodePlaceholder {
		t.Fatalf("expected placeholder, got %q", plaintext)
	}
	// The disclosure still happened: state and memory are intact.
	if status, _ := machine.StatusOf(item.OrderItemID); status != enums.DisclosureRevealed {
		t.Fatalf("expected revealed, got %s", status)
	}
	if !store.revealed[item.OrderItemID] {
		t.Fatal("expected reveal to be persisted")
	}
}

func TestConfirmKeepsPendingWhenPersistenceFails(t *testing.T) {
	store := newStubRevealStore()
	store.saveErr = context.DeadlineExceeded
	celebrator := &stubCelebrator{}
	item := readyItem("RETRY-ME")
	machine, _ := newHydratedMachine(t, store, celebrator, item)

	if err := machine.RequestReveal(item.OrderItemID); err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	if _, err := machine.Confirm(context.Background(), item.OrderItemID, true); err == nil {
		t.Fatal("expected dependency error")
	}
	if status, _ := machine.StatusOf(item.OrderItemID); status != enums.DisclosurePendingConfirmation {
		t.Fatalf("expected item to stay pending, got %s", status)
	}
	if celebrator.calls != 0 {
		t.Fatalf("expected no celebration after failed persist, got %d", celebrator.calls)
	}

	// The user clicks again once the store recovers.
	store.saveErr = nil
	if _, err := machine.Confirm(context.Background(), item.OrderItemID, true); err != nil {
		t.Fatalf("retry confirm: %v", err)
	}
	if celebrator.calls != 1 {
		t.Fatalf("expected one celebration, got %d", celebrator.calls)
	}
}

func TestIndependentItemsRevealIndependently(t *testing.T) {
	store := newStubRevealStore()
	first := readyItem("FIRST-KEY")
	second := readyItem("SECOND-KEY")
	machine, _ := newHydratedMachine(t, store, nil, first, second)

	if err := machine.RequestReveal(first.OrderItemID); err != nil {
		t.Fatalf("request first: %v", err)
	}
	if _, err := machine.Confirm(context.Background(), first.OrderItemID, true); err != nil {
		t.Fatalf("confirm first: %v", err)
	}

	if status, _ := machine.StatusOf(second.OrderItemID); status != enums.DisclosureHidden {
		t.Fatalf("expected second item untouched, got %s", status)
	}
	if _, ok := machine.Plaintext(second.OrderItemID); ok {
		t.Fatal("expected no plaintext for hidden item")
	}
}
