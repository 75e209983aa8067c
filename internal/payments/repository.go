package payments

import "context"

// Repository persists payment records. Records are write-once: there is no
// update or delete.
type Repository interface {
	// Insert stores rec, failing with ErrDuplicatePayment if its ID is taken.
	Insert(ctx context.Context, rec Record) error
	// Get returns the record for id or ErrPaymentNotFound.
	Get(ctx context.Context, id string) (Record, error)
}
