package pooljson

// AddressResult models the GET /address response.
type AddressResult struct {
	Address string `json:"address"`
}

// ChallengeResult models the GET /challenge/{pubkey} response.  The pool
// spells the timestamp field lash_hash_at.
type ChallengeResult struct {
	Challenge       [32]byte `json:"challenge"`
	MinDifficulty   uint64   `json:"min_difficulty"`
	LashHashAt      int64    `json:"lash_hash_at"`
	NumTotalMembers uint64   `json:"num_total_members"`
	NumDevices      uint8    `json:"num_devices"`
}

// MemberResult models a member record.
type MemberResult struct {
	ID           int64  `json:"id"`
	Authority    string `json:"authority"`
	Miner        string `json:"miner,omitempty"`
	TotalBalance int64  `json:"total_balance"`
	IsApproved   bool   `json:"is_approved"`
	IsKyc        bool   `json:"is_kyc"`
	IsSynced     bool   `json:"is_synced"`
}

// BalanceUpdateResult models the POST /commit response.
type BalanceUpdateResult struct {
	Balance   uint64 `json:"balance"`
	Signature string `json:"signature,omitempty"`
}

// EventResult models the GET /event/latest/{authority} response.
type EventResult struct {
	Signature        string `json:"signature"`
	Block            uint64 `json:"block"`
	Timestamp        int64  `json:"timestamp"`
	Difficulty       uint32 `json:"difficulty"`
	MemberDifficulty uint32 `json:"member_difficulty"`
	NetReward        uint64 `json:"net_reward"`
	MemberReward     uint64 `json:"member_reward"`

	// CommitRequest, when set, is a base64 transaction the pool asks the
	// member to co-sign and return through /commit.
	CommitRequest string `json:"commit_request,omitempty"`
}

// ErrorResult is the body of a non-success response, when the pool sends
// one.
type ErrorResult struct {
	Error string `json:"error"`
}
