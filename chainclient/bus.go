package chainclient

import (
	"context"
	"math/rand"

	"github.com/gagliardetto/solana-go"

	"github.com/regolith-labs/ore-cli-sub000/program"
)

// BusSelector picks the reward bus a mine transaction credits against.
type BusSelector struct {
	client *Client
	rand   *rand.Rand
}

// NewBusSelector creates a selector reading buses through client.
func NewBusSelector(client *Client, rnd *rand.Rand) *BusSelector {
	return &BusSelector{client: client, rand: rnd}
}

// Select returns the bus with the most rewards left.  When the buses cannot
// be fetched it picks one at random instead of waiting.
func (s *BusSelector) Select(ctx context.Context) solana.PublicKey {
	addrs := program.BusAddresses()
	buses, err := s.client.GetBuses(ctx)
	if err != nil {
		idx := s.rand.Intn(len(addrs))
		log.Debugf("Unable to fetch buses, choosing bus %d at random: %v", idx, err)
		return addrs[idx]
	}

	best := 0
	for i, bus := range buses {
		if bus.Rewards > buses[best].Rewards {
			best = i
		}
	}
	log.Debugf("Selected bus %d with %d rewards", best, buses[best].Rewards)
	return addrs[best]
}
