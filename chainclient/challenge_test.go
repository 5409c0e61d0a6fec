package chainclient

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/mock/gomock"

	"github.com/regolith-labs/ore-cli-sub000/program"
)

func proofAccount(authority solana.PublicKey, challenge byte, lastHashAt int64) *rpc.GetAccountInfoResult {
	data := make([]byte, 8+32+8+32+32+8+8+32+8+8)
	copy(data[8:], authority.Bytes())
	data[48] = challenge
	binary.LittleEndian.PutUint64(data[112:], uint64(lastHashAt))
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)}}
}

func configAccount(minDifficulty uint64) *rpc.GetAccountInfoResult {
	data := make([]byte, 8+32)
	binary.LittleEndian.PutUint64(data[24:], minDifficulty)
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)}}
}

func TestProofSource_NextChallenge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authority := solana.NewWallet().PublicKey()
	m := NewMockRPC(ctrl)
	proofAddr := program.ProofAddress(authority)

	gomock.InOrder(
		m.EXPECT().GetAccountInfo(gomock.Any(), proofAddr).Return(nil, errors.New("timeout")),
		m.EXPECT().GetAccountInfo(gomock.Any(), proofAddr).Return(proofAccount(authority, 1, 100), nil),
		m.EXPECT().GetAccountInfo(gomock.Any(), proofAddr).Return(proofAccount(authority, 2, 160), nil),
	)
	m.EXPECT().GetAccountInfo(gomock.Any(), program.ConfigAddress()).Return(configAccount(18), nil)

	c := NewClient(m, authority, "")
	s := NewProofSource(c)
	s.pollInterval = time.Millisecond

	ch, err := s.NextChallenge(context.Background(), 100)
	if err != nil {
		t.Fatal(err.Error())
	}
	if ch.LastHashAt != 160 || ch.Challenge[0] != 2 || ch.MinDifficulty != 18 || ch.Pooled {
		t.Errorf("unexpected challenge %+v", ch)
	}
}

func TestProofSource_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authority := solana.NewWallet().PublicKey()
	m := NewMockRPC(ctrl)
	m.EXPECT().GetAccountInfo(gomock.Any(), gomock.Any()).Return(proofAccount(authority, 1, 100), nil).AnyTimes()

	s := NewProofSource(NewClient(m, authority, ""))
	s.pollInterval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.NextChallenge(ctx, 100); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v", err)
	}
}

func TestProofSource_WakesOnNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authority := solana.NewWallet().PublicKey()
	m := NewMockRPC(ctrl)
	gomock.InOrder(
		m.EXPECT().GetAccountInfo(gomock.Any(), program.ProofAddress(authority)).Return(proofAccount(authority, 1, 100), nil),
		m.EXPECT().GetAccountInfo(gomock.Any(), program.ProofAddress(authority)).Return(proofAccount(authority, 3, 200), nil),
	)
	m.EXPECT().GetAccountInfo(gomock.Any(), program.ConfigAddress()).Return(configAccount(10), nil)

	c := NewClient(m, authority, "")
	s := NewProofSource(c)
	s.pollInterval = time.Hour

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.onAccountNotification(42, nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := s.NextChallenge(ctx, 100)
	if err != nil {
		t.Fatal(err.Error())
	}
	if ch.LastHashAt != 200 {
		t.Errorf("unexpected challenge %+v", ch)
	}
}
