package valuation

import (
	"errors"
	"fmt"
)

// Stage identifies the step of a run that failed.
type Stage string

const (
	StageConfig      Stage = "config"
	StageFetch       Stage = "fetch"
	StageParse       Stage = "parse"
	StageValuation   Stage = "valuation"
	StageRebalancing Stage = "rebalancing"
	StageRendering   Stage = "rendering"
)

var (
	ErrMissingRate                 = errors.New("missing exchange rate")
	ErrUnknownSecurity             = errors.New("unknown security")
	ErrUnknownCurrency             = errors.New("unknown currency")
	ErrInvalidCurrency             = errors.New("invalid currency code")
	ErrStartBeforeFirstTransaction = errors.New("analysis start date is before the first transaction date")
	ErrAmbiguousGroup              = errors.New("security belongs to more than one weight group")
	ErrTransactionBeforePrice      = errors.New("transaction is dated before the first available price")
	ErrNoPrices                    = errors.New("no prices")
	ErrNoAnchor                    = errors.New("no weight group with a positive target")
)

// Error is an unrecoverable error annotated with the stage and the offending key
// (a security, a currency pair, a file, ...).
type Error struct {
	Stage Stage
	Key   string
	Err   error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError returns an *Error for stage and key.
func NewError(stage Stage, key string, err error) error {
	return &Error{Stage: stage, Key: key, Err: err}
}

// StageOf returns the stage of the first *Error in err's chain.
func StageOf(err error) (Stage, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage, true
	}
	return "", false
}
