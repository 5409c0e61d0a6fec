package chainclient

import (
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/mock/gomock"

	"github.com/regolith-labs/ore-cli-sub000/program"
)

func busAccount(id, rewards uint64) *rpc.Account {
	data := make([]byte, 8+32)
	binary.LittleEndian.PutUint64(data[8:], id)
	binary.LittleEndian.PutUint64(data[16:], rewards)
	return &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)}
}

func TestBusSelector_Select(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewMockRPC(ctrl)
	c := NewClient(m, solana.NewWallet().PublicKey(), "")
	s := NewBusSelector(c, rand.New(rand.NewSource(1)))
	addrs := program.BusAddresses()

	t.Run("test_1", func(t *testing.T) {
		accounts := make([]*rpc.Account, 8)
		for i := range accounts {
			accounts[i] = busAccount(uint64(i), uint64(100+i))
		}
		accounts[5] = busAccount(5, 10_000)
		m.EXPECT().GetMultipleAccounts(gomock.Any(), gomock.Any()).
			Return(&rpc.GetMultipleAccountsResult{Value: accounts}, nil)

		if got := s.Select(context.Background()); !got.Equals(addrs[5]) {
			t.Errorf("selected %v, want bus 5", got)
		}
	})

	t.Run("test_2", func(t *testing.T) {
		m.EXPECT().GetMultipleAccounts(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("timeout"))

		got := s.Select(context.Background())
		found := false
		for _, a := range addrs {
			if a.Equals(got) {
				found = true
			}
		}
		if !found {
			t.Errorf("fallback selected unknown bus %v", got)
		}
	})
}
