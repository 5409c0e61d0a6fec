package poolclient

import (
	"context"
	"fmt"
	"time"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/model"
)

// ChallengeSource yields member challenges from the pool.
type ChallengeSource struct {
	api         *API
	authority   string
	memberIndex uint64

	maxStaleRetries int
	staleDelay      time.Duration
}

// NewChallengeSource creates a pooled challenge source for authority.
// maxStaleRetries is clamped to [10, 24].
func NewChallengeSource(api *API, authority string, memberIndex uint64, maxStaleRetries int) *ChallengeSource {
	if maxStaleRetries < 10 {
		maxStaleRetries = 10
	}
	if maxStaleRetries > 24 {
		maxStaleRetries = 24
	}
	return &ChallengeSource{
		api:             api,
		authority:       authority,
		memberIndex:     memberIndex,
		maxStaleRetries: maxStaleRetries,
		staleDelay:      constdef.PoolStaleDelay,
	}
}

// NextChallenge fetches the member challenge, refetching while it still
// carries lastHashAt.  After maxStaleRetries refetches it returns
// errcode.ErrStaleChallenge.
func (s *ChallengeSource) NextChallenge(ctx context.Context, lastHashAt int64) (*model.Challenge, error) {
	for i := 0; ; i++ {
		res, err := s.api.Challenge(ctx, s.authority)
		if err != nil {
			return nil, fmt.Errorf("fetch pool challenge: %w", err)
		}
		if res.LashHashAt != lastHashAt {
			if res.NumTotalMembers == 0 {
				return nil, fmt.Errorf("pool reported no members")
			}
			log.Debugf("Pool challenge %x at %v, %d members, %d devices",
				res.Challenge[:4], res.LashHashAt, res.NumTotalMembers, res.NumDevices)
			return &model.Challenge{
				Challenge:     res.Challenge,
				MinDifficulty: uint32(res.MinDifficulty),
				LastHashAt:    res.LashHashAt,
				Pooled:        true,
				MemberIndex:   s.memberIndex % res.NumTotalMembers,
				NumMembers:    res.NumTotalMembers,
				NumDevices:    res.NumDevices,
			}, nil
		}
		if i >= s.maxStaleRetries {
			return nil, errcode.ErrStaleChallenge
		}
		log.Tracef("Pool challenge unchanged since %v, retrying", lastHashAt)
		select {
		case <-time.After(s.staleDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
