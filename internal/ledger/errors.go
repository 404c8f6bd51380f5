package ledger

import (
	"errors"

	"paper-trading-go/internal/market"
)

// Error kinds surfaced by the engine. Callers match them with errors.Is;
// none are used for routine control flow.
var (
	// ErrInsufficientFunds rejects a BUY whose cost exceeds the cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientHoldings rejects a SELL of more units than are held.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrQuoteUnavailable means the symbol has no current price. During a
	// valuation pass it is absorbed locally; on a direct market order it is
	// surfaced because there is no price to fill at.
	ErrQuoteUnavailable = market.ErrQuoteUnavailable

	// ErrInvalidOrderState rejects an illegal limit order transition,
	// e.g. cancelling an already executed order.
	ErrInvalidOrderState = errors.New("invalid order state")

	// ErrNotFound means the portfolio, order or trade does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the record belongs to a different user.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidArgument rejects malformed input (non-positive quantity,
	// unknown trade side, non-positive amounts).
	ErrInvalidArgument = errors.New("invalid argument")
)
