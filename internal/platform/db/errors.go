package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/duamedical/medserve/internal/shared"
)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeNotNull         = "23502"
	codeInvalidText     = "22P02"
	codeQueryCanceled   = "57014"
)

// Translate maps pgx errors onto the shared error kinds. entity names the
// record for NotFound messages, e.g. "Customer".
func Translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation) ||
		errors.Is(err, shared.ErrDuplicate) || errors.Is(err, shared.ErrUpstream) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if entity == "" {
			entity = "Record"
		}
		return shared.NotFound(entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w (%s)", shared.Duplicate(duplicateSubject(entity)), pgErr.ConstraintName)
		case codeCheckViolation, codeNotNull, codeInvalidText:
			field := pgErr.ColumnName
			if field == "" {
				field = pgErr.ConstraintName
			}
			return shared.NewValidationError(field, pgErr.Message)
		case codeQueryCanceled:
			return shared.Upstream("query canceled", err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return shared.Upstream("store", err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return shared.Upstream("store", err)
	}
	return err
}

func duplicateSubject(entity string) string {
	switch entity {
	case "Customer":
		return "Serial number"
	case "Quotation":
		return "Quotation number"
	case "Invoice":
		return "Invoice number"
	case "Delivery challan":
		return "Challan number"
	case "Agent":
		return "Agent email"
	case "":
		return "Record"
	}
	return entity
}
