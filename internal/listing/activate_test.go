package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyActivation(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	l := &Listing{ID: "l1", IsPaid: false}
	changed := ApplyActivation(l, now, 30)

	require.True(t, changed)
	assert.True(t, l.IsPaid)
	require.NotNil(t, l.ExpiryDate)
	assert.Equal(t, now.AddDate(0, 0, 30), *l.ExpiryDate)
}

func TestApplyActivationIsIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	l := &Listing{ID: "l1"}
	ApplyActivation(l, now, 30)
	firstExpiry := *l.ExpiryDate

	// A later retry must not extend the window again.
	changed := ApplyActivation(l, now.AddDate(0, 0, 10), 30)

	assert.False(t, changed)
	assert.Equal(t, firstExpiry, *l.ExpiryDate)
}

func TestApplyActivationZeroDuration(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	l := &Listing{ID: "l1"}
	changed := ApplyActivation(l, now, 0)

	require.True(t, changed)
	assert.Equal(t, now, *l.ExpiryDate)
}
