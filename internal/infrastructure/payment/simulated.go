package payment

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/application/placement"
	"github.com/google/uuid"
)

// SimulatedGateway approves charges with a configurable probability. It
// stands in for the real processor in demos and local development.
type SimulatedGateway struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
}

func NewSimulatedGateway(successRate float64) *SimulatedGateway {
	return &SimulatedGateway{
		random:      rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: successRate,
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req placement.ChargeRequest) (placement.ChargeResult, error) {
	_ = ctx
	if req.AmountMinor <= 0 {
		return declineResult("amount must be greater than zero"), nil
	}

	g.mu.Lock()
	approved := g.random.Float64() <= g.successRate
	g.mu.Unlock()

	if !approved {
		return declineResult("card declined (simulated)"), nil
	}
	return placement.ChargeResult{
		Approved:      true,
		TransactionID: uuid.NewString(),
	}, nil
}
