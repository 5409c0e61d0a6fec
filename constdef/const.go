package constdef

import "time"

const (
	// EpochDuration is the length of a reward epoch in seconds.
	EpochDuration int64 = 60

	// ResetBuffer is subtracted from the epoch end when deciding whether a
	// reset instruction must be bundled with a mine transaction.
	ResetBuffer int64 = 5

	// BusCount is the number of reward bus accounts.
	BusCount = 8

	// NeedsResetCode is the custom program error returned when the epoch
	// must be reset before mining can proceed.
	NeedsResetCode uint32 = 0

	// TokenDecimals is the number of decimals of the mined token.
	TokenDecimals = 11
)

const (
	// MinSolBalance is the lowest fee payer balance, in lamports, that a
	// transaction may be attempted with.
	MinSolBalance uint64 = 5_000_000 // 0.005 SOL

	// Compute unit limits for mine transactions.
	MineComputeUnits  uint32 = 750_000
	ResetComputeUnits uint32 = 100_000

	// DefaultMaxAttempts bounds the number of broadcast attempts per
	// transaction.
	DefaultMaxAttempts = 150

	// DefaultRefreshEvery is the number of broadcast attempts between fee
	// and blockhash refreshes.
	DefaultRefreshEvery = 10

	DefaultSendInterval    = 2 * time.Second
	DefaultConfirmInterval = time.Second
	DefaultConfirmChecks   = 4
)

const (
	// CheckInterval is the number of nonces hashed between elapsed time
	// checks in each search worker.
	CheckInterval uint64 = 100

	// ChallengePollInterval is the delay between proof account polls.
	ChallengePollInterval = time.Second

	// PoolStaleDelay is the delay between pool challenge fetches while the
	// challenge has not advanced.
	PoolStaleDelay = time.Second

	// DefaultMaxStaleRetries bounds pool challenge refetches.
	DefaultMaxStaleRetries = 12

	// PoolEventRetries bounds the latest event lookups.
	PoolEventRetries = 10

	BlockhashPollInterval = 5 * time.Second
	ConfigPollInterval    = 5 * time.Second
)
