package models

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData      = errors.New("insufficient data")
	ErrIndeterminateTrend    = errors.New("indeterminate trend")
	ErrIndeterminateSignal   = errors.New("indeterminate signal")
	ErrQuantityBelowMinimum  = errors.New("quantity below minimum")
	ErrNotionalBelowMinimum  = errors.New("notional below minimum")
	ErrExchangeRequestFailed = errors.New("exchange request failed")

	ErrInstrumentMetadataMissing = fmt.Errorf("%w: instrument metadata missing", ErrExchangeRequestFailed)
	ErrBracketFailed             = fmt.Errorf("%w: protective bracket not placed after entry", ErrExchangeRequestFailed)
	ErrEntryPriceUnavailable     = errors.New("entry price unavailable")
)

// ErrorKind names an error for metrics and notifications.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrIndeterminateTrend):
		return "indeterminate_trend"
	case errors.Is(err, ErrIndeterminateSignal):
		return "indeterminate_signal"
	case errors.Is(err, ErrQuantityBelowMinimum):
		return "quantity_below_minimum"
	case errors.Is(err, ErrNotionalBelowMinimum):
		return "notional_below_minimum"
	case errors.Is(err, ErrBracketFailed):
		return "bracket_failed"
	case errors.Is(err, ErrInstrumentMetadataMissing):
		return "instrument_metadata_missing"
	case errors.Is(err, ErrExchangeRequestFailed):
		return "exchange_request_failed"
	case errors.Is(err, ErrEntryPriceUnavailable):
		return "entry_price_unavailable"
	}
	return "internal"
}

// Skippable reports whether the error only means "no decision this cycle".
func Skippable(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrIndeterminateTrend) ||
		errors.Is(err, ErrIndeterminateSignal)
}
