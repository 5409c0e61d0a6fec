// Package errcode collects the error values shared across the miner.  Callers
// classify failures with errors.Is and errors.As rather than by message.
package errcode

import (
	"errors"
	"fmt"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
)

var (
	// ErrNilGormDB is returned by data access objects called without a
	// database handle.
	ErrNilGormDB = errors.New("nil gorm db")

	// ErrStaleChallenge is returned when the pool keeps serving the same
	// challenge after the bounded number of refetches.
	ErrStaleChallenge = errors.New("pool challenge has not advanced")

	// ErrTooManyDevices is returned when the configured device id does not
	// fit the device count the pool assigned to this member.
	ErrTooManyDevices = errors.New("device id exceeds the number of devices registered with the pool")

	// ErrInsufficientBalance is returned when the fee payer cannot cover
	// transaction fees.  Retrying never helps.
	ErrInsufficientBalance = errors.New("insufficient balance to pay transaction fees")

	// ErrNeedsReset marks the recoverable program condition where the epoch
	// must be reset before a mine instruction is accepted.
	ErrNeedsReset = errors.New("program needs reset")

	// ErrMaxRetries is returned when a transaction was broadcast the maximum
	// number of times without confirmation.
	ErrMaxRetries = errors.New("max retries exceeded")

	// ErrInvalidSolution is returned when a solution does not meet the
	// difficulty of the challenge it was computed against.
	ErrInvalidSolution = errors.New("solution does not meet the minimum difficulty")

	// ErrWorkerPanic is returned by a search in which a worker panicked.
	ErrWorkerPanic = errors.New("search worker panicked")
)

// ProgramError is an error returned by an on-chain program while executing
// one of the instructions of a transaction.
type ProgramError struct {
	// Instruction is the index of the failing instruction.
	Instruction int

	// Code is the custom error code, valid when Custom is set.
	Code   uint32
	Custom bool

	// Raw holds the error as reported by the RPC node.
	Raw string
}

func (e *ProgramError) Error() string {
	if e.Custom {
		return fmt.Sprintf("instruction %d failed with custom program error 0x%x", e.Instruction, e.Code)
	}
	return fmt.Sprintf("transaction failed: %s", e.Raw)
}

// Is reports ErrNeedsReset for the custom code the mining program uses to
// request an epoch reset.
func (e *ProgramError) Is(target error) bool {
	return target == ErrNeedsReset && e.Custom && e.Code == constdef.NeedsResetCode
}

// IsFatal reports whether err ends the current mining run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNeedsReset) || errors.Is(err, ErrStaleChallenge) {
		return false
	}
	var perr *ProgramError
	if errors.As(err, &perr) {
		return true
	}
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrMaxRetries) ||
		errors.Is(err, ErrTooManyDevices) ||
		errors.Is(err, ErrWorkerPanic)
}
