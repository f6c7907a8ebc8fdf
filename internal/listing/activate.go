package listing

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// ApplyActivation marks l as paid and stamps its visibility window.
// Calling it on an already-paid listing is a no-op, so retries never
// extend the expiry a second time. Returns whether l changed.
func ApplyActivation(l *Listing, now time.Time, durationDays int) bool {
	if l.IsPaid {
		return false
	}
	expiry := now.AddDate(0, 0, durationDays)
	l.IsPaid = true
	l.ExpiryDate = &expiry
	return true
}

// Activate persists the activation inside the caller's transaction.
// The new state comes from ApplyActivation; the is_paid = FALSE guard
// makes the update a compare-and-swap: under two concurrent
// confirmations only one write lands, the other sees zero rows
// affected.
func Activate(ctx context.Context, tx pgx.Tx, listingID string, durationDays int, now time.Time) (bool, error) {
	l := Listing{ID: listingID}
	ApplyActivation(&l, now, durationDays)

	ct, err := tx.Exec(ctx,
		`UPDATE listings
		 SET is_paid = TRUE, expiry_date = $2, updated_at = NOW()
		 WHERE id = $1 AND is_paid = FALSE`,
		listingID, *l.ExpiryDate,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
