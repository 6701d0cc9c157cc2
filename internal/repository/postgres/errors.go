package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-checkin/internal/repository"
)

const uniqueViolation = pq.ErrorCode("23505")

// translateError maps driver errors onto repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

// appointmentInsertError separates a reused booking number from other
// failures. The appointment row carries no per-patient constraint, so any
// unique violation there means the counter handed out a number twice.
func appointmentInsertError(err error) error {
	err = translateError(err)
	if errors.Is(err, repository.ErrDuplicate) {
		return repository.ErrNumberTaken
	}
	return err
}
