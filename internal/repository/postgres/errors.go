// internal/repository/postgres/errors.go
package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL error class codes relevant to this store.
const (
	codeUniqueViolation     = pq.ErrorCode("23505")
	codeForeignKeyViolation = pq.ErrorCode("23503")
	codeCheckViolation      = pq.ErrorCode("23514")
)

// ConstraintViolation is a structured description of a violated database
// constraint. Repositories translate it to a domain sentinel once, at the
// store boundary, instead of parsing driver message text.
type ConstraintViolation struct {
	Code       pq.ErrorCode
	Table      string
	Constraint string
	Column     string
}

// IsUnique reports whether the violation is a unique-constraint failure.
func (v *ConstraintViolation) IsUnique() bool { return v.Code == codeUniqueViolation }

// IsForeignKey reports whether the violation is a referential failure.
func (v *ConstraintViolation) IsForeignKey() bool { return v.Code == codeForeignKeyViolation }

// IsCheck reports whether the violation is a CHECK-constraint failure.
func (v *ConstraintViolation) IsCheck() bool { return v.Code == codeCheckViolation }

// violation extracts a ConstraintViolation from a driver error, if the error
// represents one.
func violation(err error) (*ConstraintViolation, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil, false
	}
	switch pqErr.Code {
	case codeUniqueViolation, codeForeignKeyViolation, codeCheckViolation:
		return &ConstraintViolation{
			Code:       pqErr.Code,
			Table:      pqErr.Table,
			Constraint: pqErr.Constraint,
			Column:     pqErr.Column,
		}, true
	default:
		return nil, false
	}
}
