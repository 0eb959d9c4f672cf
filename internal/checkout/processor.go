package checkout

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/config"
)

// ChargeInput is the payment request handed to the processor.
type ChargeInput struct {
	BuyerID  uuid.UUID
	MethodID string
	Amount   int
	Email    string
}

// Processor executes the payment leg of a checkout.
type Processor interface {
	Charge(ctx context.Context, input ChargeInput) error
}

// SimulatedProcessor stands in for the real PSP integration: it sleeps for a
// configured delay and fails a configured fraction of charges. Useful for
// demos and load tests; swapped out per environment.
type SimulatedProcessor struct {
	delay       time.Duration
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedProcessor builds a processor from the payments config.
func NewSimulatedProcessor(cfg config.PaymentsConfig) *SimulatedProcessor {
	return &SimulatedProcessor{
		delay:       cfg.SimulatedDelay,
		failureRate: cfg.FailureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Charge waits out the simulated processing delay, honoring ctx cancellation.
func (p *SimulatedProcessor) Charge(ctx context.Context, input ChargeInput) error {
	if input.Amount < 0 {
		return fmt.Errorf("charge amount cannot be negative")
	}

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if p.failureRate > 0 {
		p.mu.Lock()
		roll := p.rng.Float64()
		p.mu.Unlock()
		if roll < p.failureRate {
			return fmt.Errorf("payment declined by processor")
		}
	}
	return nil
}
