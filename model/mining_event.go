package model

import "time"

// MiningEvent is the outcome of a pool submission reported by the pool.
type MiningEvent struct {
	Signature        string
	Block            uint64
	Timestamp        time.Time
	Difficulty       uint32
	MemberDifficulty uint32
	NetReward        uint64
	MemberReward     uint64
}

// SubmitResult describes a confirmed or failed solo transaction.
type SubmitResult struct {
	Signature   string
	Attempts    int
	PriorityFee uint64
	Tip         uint64
	Err         error
}
