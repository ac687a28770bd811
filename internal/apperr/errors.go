// Package apperr defines the error kinds shared by the ledger, POS,
// tracking and relay packages. The HTTP layer maps a Kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidArgument     Kind = "invalid_argument"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindStockInsufficient   Kind = "stock_insufficient"
	KindInsufficientPayment Kind = "insufficient_payment"
	KindUpstream            Kind = "upstream_error"
	KindUnauthorized        Kind = "unauthorized"
	KindInternal            Kind = "internal"
)

// Error is a classified failure. Detail carries the structured part of
// the error (shortfalls, required total, upstream reason) and is encoded
// as-is into the response body.
type Error struct {
	Kind    Kind
	Message string
	Detail  any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Shortfall is one line that cannot be covered by on-hand stock.
type Shortfall struct {
	SKU       string `json:"sku"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

// PaymentDetail is attached to InsufficientPayment errors.
type PaymentDetail struct {
	Total int64 `json:"total"`
}

// Upstream failure reasons.
const (
	ReasonTimeout    = "timeout"
	ReasonConnection = "connection"
	ReasonStatus     = "status"
	ReasonDecode     = "decode"
)

// UpstreamDetail describes a failed call to a supplier endpoint.
type UpstreamDetail struct {
	Reason    string `json:"reason"`
	Status    int    `json:"status,omitempty"`
	Body      string `json:"body,omitempty"`
	Retryable bool   `json:"retryable"`
}

func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func StockInsufficient(shortfalls []Shortfall) *Error {
	return &Error{Kind: KindStockInsufficient, Message: "stock insufficient", Detail: shortfalls}
}

func InsufficientPayment(total int64) *Error {
	return &Error{Kind: KindInsufficientPayment, Message: "amount tendered is below total", Detail: PaymentDetail{Total: total}}
}

func Upstream(reason string, status int, body string, err error) *Error {
	return &Error{
		Kind:    KindUpstream,
		Message: "supplier call failed: " + reason,
		Detail: UpstreamDetail{
			Reason:    reason,
			Status:    status,
			Body:      body,
			Retryable: reason == ReasonTimeout || reason == ReasonConnection || status >= 500,
		},
		Err: err,
	}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }
