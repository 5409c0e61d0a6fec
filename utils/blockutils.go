package utils

import (
	"time"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
)

// NeedsReset reports whether the epoch that started at lastResetAt is about
// to end at unix time now, so that a reset must be bundled with the next mine
// instruction.
func NeedsReset(lastResetAt, now int64) bool {
	return now >= lastResetAt+constdef.EpochDuration-constdef.ResetBuffer
}

// Cutoff returns how long a search may run for a challenge issued at
// lastHashAt, leaving buffer seconds to deliver the solution.  It never
// returns a negative duration.
func Cutoff(lastHashAt, now, buffer int64) time.Duration {
	left := lastHashAt + constdef.EpochDuration - buffer - now
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Second
}

// LamportsToSol formats a lamport amount.
func LamportsToSol(lamports uint64) float64 {
	return float64(lamports) / 1e9
}

// AmountToUI formats a token amount with the given number of decimals.
func AmountToUI(amount uint64, decimals int) float64 {
	f := float64(amount)
	for i := 0; i < decimals; i++ {
		f /= 10
	}
	return f
}
