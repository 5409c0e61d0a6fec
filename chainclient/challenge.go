package chainclient

import (
	"context"
	"time"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/model"
	"github.com/regolith-labs/ore-cli-sub000/utils"
)

// ProofSource yields solo challenges read from the proof account.
type ProofSource struct {
	client       *Client
	pollInterval time.Duration
	wake         chan struct{}
}

// NewProofSource creates a solo challenge source.  Proof change
// notifications from client cut the poll wait short.
func NewProofSource(client *Client) *ProofSource {
	s := &ProofSource{
		client:       client,
		pollInterval: constdef.ChallengePollInterval,
		wake:         make(chan struct{}, 1),
	}
	client.Subscribe(func(n *Notification) {
		if n.Type != NTProofChanged {
			return
		}
		select {
		case s.wake <- struct{}{}:
		default:
		}
	})
	return s
}

// NextChallenge waits until the proof has been updated after afterTs and
// returns its challenge.  It only gives up when ctx is done.
func (s *ProofSource) NextChallenge(ctx context.Context, afterTs int64) (*model.Challenge, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		case <-s.wake:
			if !timer.Stop() {
				<-timer.C
			}
		}

		proof, err := s.client.GetProof(ctx, s.client.Authority())
		if err != nil {
			log.Debugf("Unable to fetch proof: %v", err)
		} else if proof.LastHashAt > afterTs {
			cfg, err := s.client.Config(ctx)
			if err != nil {
				log.Debugf("Unable to fetch config: %v", err)
			} else {
				log.Debugf("New challenge %x at %v", proof.Challenge[:4], proof.LastHashAt)
				return &model.Challenge{
					Challenge:     proof.Challenge,
					MinDifficulty: uint32(cfg.MinDifficulty),
					LastHashAt:    proof.LastHashAt,
				}, nil
			}
		} else {
			log.Tracef("Proof of %v unchanged since %v", utils.ShortKey(s.client.Authority().String()), afterTs)
		}
		timer.Reset(s.pollInterval)
	}
}
