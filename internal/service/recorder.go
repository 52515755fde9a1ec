// internal/service/recorder.go
package service

import (
	"context"

	"ledgerpay/internal/domain"
	"ledgerpay/internal/event"
	"ledgerpay/internal/repository"
)

// LedgerRecorder subscribes to balance-mutation events and persists the
// matching ledger entry through the publisher's open atomic unit. Keeping
// the recorder behind the bus separates what changed a balance from how the
// change is recorded, without giving up atomicity.
type LedgerRecorder struct {
	transactionRepo repository.TransactionRepository
}

// NewLedgerRecorder creates a new LedgerRecorder.
func NewLedgerRecorder(transactionRepo repository.TransactionRepository) *LedgerRecorder {
	return &LedgerRecorder{transactionRepo: transactionRepo}
}

// Register subscribes the recorder to both mutation topics on bus.
func (r *LedgerRecorder) Register(bus *event.Bus) {
	bus.Subscribe(event.TopicAccountCredited, r.record)
	bus.Subscribe(event.TopicAccountDebited, r.record)
}

func (r *LedgerRecorder) record(ctx context.Context, q repository.DBExecutor, e event.Event) error {
	var entry *domain.Transaction
	switch ev := e.(type) {
	case event.CreditRecorded:
		entry = ev.Entry
	case event.DebitRecorded:
		entry = ev.Entry
	default:
		return nil
	}
	return r.transactionRepo.Create(ctx, q, entry)
}
