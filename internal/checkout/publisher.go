package checkout

import (
	"context"

	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
)

const EventCheckoutCompleted = "checkout.completed"

// Publisher hands the receipt of a completed checkout to downstream
// consumers.
type Publisher interface {
	Publish(ctx context.Context, receipt domain.Receipt) error
}

// Nop discards receipts.
type Nop struct{}

func (Nop) Publish(context.Context, domain.Receipt) error {
	return nil
}
