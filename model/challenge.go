package model

import "github.com/regolith-labs/ore-cli-sub000/drill"

// Challenge is one unit of work.  A challenge is superseded only by one with
// a later LastHashAt.
type Challenge struct {
	Challenge     [drill.ChallengeSize]byte
	MinDifficulty uint32
	LastHashAt    int64

	// Pooled challenges carry the partition of the nonce space this member
	// owns.
	Pooled      bool
	MemberIndex uint64
	NumMembers  uint64
	NumDevices  uint8
}

// Accepts reports whether sol meets the difficulty of c.
func (c *Challenge) Accepts(sol drill.Solution) bool {
	return drill.Verify(c.Challenge, sol, c.MinDifficulty)
}
