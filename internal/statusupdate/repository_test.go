package statusupdate

import (
	"testing"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidateCursorScope(t *testing.T) {
	row := &domain.LedgerStatusUpdate{ID: "update-1", LedgerID: "ledger-2"}

	t.Run("cursor in queried ledgers", func(t *testing.T) {
		err := validateCursorScope(row, []string{"ledger-1", "ledger-2"})
		assert.NoError(t, err)
	})

	t.Run("cursor from foreign ledger", func(t *testing.T) {
		err := validateCursorScope(row, []string{"ledger-1"})

		apiErr, ok := err.(*errors.APIError)
		assert.True(t, ok)
		assert.Equal(t, 422, apiErr.Status)
		assert.Equal(t, "Unknown cursor", apiErr.Message)
	})
}
