// internal/repository/postgres/errors_test.go
package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolationExtractsStructuredFields(t *testing.T) {
	pqErr := &pq.Error{
		Code:       "23505",
		Table:      "accounts",
		Constraint: "accounts_owner_id_key",
		Column:     "owner_id",
	}

	v, ok := violation(fmt.Errorf("insert: %w", pqErr))

	require.True(t, ok)
	assert.True(t, v.IsUnique())
	assert.Equal(t, "accounts", v.Table)
	assert.Equal(t, "accounts_owner_id_key", v.Constraint)
}

func TestViolationForeignKey(t *testing.T) {
	v, ok := violation(&pq.Error{Code: "23503", Table: "transactions", Constraint: "transactions_account_id_fkey"})

	require.True(t, ok)
	assert.True(t, v.IsForeignKey())
	assert.False(t, v.IsUnique())
}

func TestViolationCheckConstraint(t *testing.T) {
	v, ok := violation(&pq.Error{Code: "23514", Table: "accounts", Constraint: "accounts_balance_check"})

	require.True(t, ok)
	assert.True(t, v.IsCheck())
}

func TestViolationIgnoresOtherErrors(t *testing.T) {
	_, ok := violation(errors.New("connection refused"))
	assert.False(t, ok)

	// Unrelated SQLSTATE classes are not constraint violations.
	_, ok = violation(&pq.Error{Code: "57014"})
	assert.False(t, ok)
}
