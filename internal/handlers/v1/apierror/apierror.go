// Package apierror maps ledger errors onto HTTP responses and parses the
// identifiers shared by every v1 route.
package apierror

import (
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/operator"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// FromService converts an error returned by the service layer. msg is used
// for the 500 case; known ledger errors carry their own message.
func FromService(err error, msg string) error {
	switch {
	case errors.Is(err, ledger.ErrUnknownEntity), errors.Is(err, storage.ErrNotFound):
		return huma.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrCrossBudgetReference),
		errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, money.ErrArithmeticOverflow):
		return huma.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, operator.ErrStopped):
		return huma.NewError(http.StatusServiceUnavailable, "server is shutting down", err)
	default:
		return huma.NewError(http.StatusInternalServerError, msg, err)
	}
}

// ParseID parses a UUID supplied by the caller. Malformed IDs are a 400.
func ParseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.FromString(value)
	if err != nil {
		return uuid.Nil, huma.NewError(http.StatusBadRequest, "invalid "+name, err)
	}
	return id, nil
}

// ParseOptionalID treats an empty value as absent.
func ParseOptionalID(name, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := ParseID(name, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseMonth parses a YYYY-MM month.
func ParseMonth(value string) (month.Month, error) {
	m, err := month.Parse(value)
	if err != nil {
		return 0, huma.NewError(http.StatusBadRequest, "invalid month", err)
	}
	return m, nil
}

// ParseMonthRange parses an inclusive from..to range. An empty to means the
// single month from.
func ParseMonthRange(from, to string) (month.Month, month.Month, error) {
	first, err := ParseMonth(from)
	if err != nil {
		return 0, 0, err
	}
	if to == "" {
		return first, first, nil
	}
	last, err := ParseMonth(to)
	if err != nil {
		return 0, 0, err
	}
	return first, last, nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(name, value string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, huma.NewError(http.StatusBadRequest, "invalid "+name, err)
	}
	return d, nil
}

// OptionalString renders an optional ID, empty when absent.
func OptionalString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
