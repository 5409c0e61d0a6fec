package txmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/mock/gomock"

	"github.com/regolith-labs/ore-cli-sub000/chainclient"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/program"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SendInterval = 3 * time.Millisecond
	cfg.ConfirmInterval = 2 * time.Millisecond
	cfg.ConfirmChecks = 3
	return cfg
}

func testInstructions(signer solana.PublicKey) []solana.Instruction {
	b := program.NewBuilder(solana.PublicKey{})
	return []solana.Instruction{b.Auth(program.ProofAddress(signer))}
}

func blockhashResult(b byte) *rpc.GetLatestBlockhashResult {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: solana.Hash{b}, LastValidBlockHeight: 1000},
	}
}

func statusResult(status *rpc.SignatureStatusesResult) *rpc.GetSignatureStatusesResult {
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{status}}
}

var confirmedStatus = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}

// scriptedStatuses answers status polls from script, then repeats last.
func scriptedStatuses(script ...*rpc.SignatureStatusesResult) func(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	var mtx sync.Mutex
	i := 0
	return func(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
		mtx.Lock()
		defer mtx.Unlock()
		s := script[len(script)-1]
		if i < len(script) {
			s = script[i]
		}
		i++
		return statusResult(s), nil
	}
}

func TestSubmitter_InsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := solana.NewWallet().PrivateKey
	m := chainclient.NewMockRPC(ctrl)
	cfg := testConfig()
	m.EXPECT().GetBalance(gomock.Any(), signer.PublicKey(), gomock.Any()).
		Return(&rpc.GetBalanceResult{Value: cfg.MinBalance}, nil)

	s := NewSubmitter(chainclient.NewClient(m, signer.PublicKey(), ""), nil, signer, StaticFee(0), cfg)
	_, err := s.Submit(context.Background(), testInstructions(signer.PublicKey()), 200_000)
	if !errors.Is(err, errcode.ErrInsufficientBalance) {
		t.Errorf("got %v", err)
	}
	if !errcode.IsFatal(err) {
		t.Error("insufficient balance not fatal")
	}
}

func TestSubmitter_Confirmed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := solana.NewWallet().PrivateKey
	m := chainclient.NewMockRPC(ctrl)
	m.EXPECT().GetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Return(&rpc.GetBalanceResult{Value: 1e9}, nil)
	m.EXPECT().GetLatestBlockhash(gomock.Any(), gomock.Any()).Return(blockhashResult(1), nil)

	var mtx sync.Mutex
	sent := make(map[solana.Signature]int)
	m.EXPECT().SendTransactionWithOpts(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
			if !opts.SkipPreflight {
				t.Error("preflight not skipped")
			}
			mtx.Lock()
			sent[tx.Signatures[0]]++
			mtx.Unlock()
			return tx.Signatures[0], nil
		}).MinTimes(1)
	m.EXPECT().GetSignatureStatuses(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(scriptedStatuses(nil, nil, nil, nil, confirmedStatus)).MinTimes(1)

	s := NewSubmitter(chainclient.NewClient(m, signer.PublicKey(), ""), nil, signer, StaticFee(5000), testConfig())
	res, err := s.Submit(context.Background(), testInstructions(signer.PublicKey()), 200_000)
	if err != nil {
		t.Fatal(err.Error())
	}

	// Rebroadcasts reuse the same signed transaction.
	mtx.Lock()
	defer mtx.Unlock()
	if len(sent) != 1 {
		t.Errorf("%d distinct signatures broadcast, want 1", len(sent))
	}
	for sig, n := range sent {
		if sig.String() != res.Signature {
			t.Errorf("result signature %v, broadcast %v", res.Signature, sig)
		}
		if n != res.Attempts {
			t.Errorf("attempts %d, sends %d", res.Attempts, n)
		}
	}
	if res.PriorityFee != 5000 {
		t.Errorf("priority fee %d", res.PriorityFee)
	}
}

func TestSubmitter_NeedsResetRestartsAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := solana.NewWallet().PrivateKey
	m := chainclient.NewMockRPC(ctrl)
	m.EXPECT().GetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Return(&rpc.GetBalanceResult{Value: 1e9}, nil)
	gomock.InOrder(
		m.EXPECT().GetLatestBlockhash(gomock.Any(), gomock.Any()).Return(blockhashResult(1), nil),
		m.EXPECT().GetLatestBlockhash(gomock.Any(), gomock.Any()).Return(blockhashResult(2), nil),
	)
	m.EXPECT().SendTransactionWithOpts(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(solana.Signature{}, nil).AnyTimes()

	needsReset := &rpc.SignatureStatusesResult{
		Err: map[string]interface{}{
			"InstructionError": []interface{}{float64(3), map[string]interface{}{"Custom": float64(0)}},
		},
	}
	m.EXPECT().GetSignatureStatuses(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(scriptedStatuses(nil, needsReset, confirmedStatus)).MinTimes(3)

	s := NewSubmitter(chainclient.NewClient(m, signer.PublicKey(), ""), nil, signer, StaticFee(0), testConfig())
	var signedAttempts []int
	s.onState = func(st State, attempts int) {
		if st == StateSigned {
			signedAttempts = append(signedAttempts, attempts)
		}
	}

	if _, err := s.Submit(context.Background(), testInstructions(signer.PublicKey()), 200_000); err != nil {
		t.Fatalf("needs reset aborted the submission: %v", err)
	}
	if len(signedAttempts) != 2 {
		t.Fatalf("signed %d times, want 2", len(signedAttempts))
	}
	if signedAttempts[1] != 0 {
		t.Errorf("attempts after reset = %d, want 0", signedAttempts[1])
	}
}

func TestSubmitter_FatalProgramError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := solana.NewWallet().PrivateKey
	m := chainclient.NewMockRPC(ctrl)
	m.EXPECT().GetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Return(&rpc.GetBalanceResult{Value: 1e9}, nil)
	m.EXPECT().GetLatestBlockhash(gomock.Any(), gomock.Any()).Return(blockhashResult(1), nil)
	m.EXPECT().SendTransactionWithOpts(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(solana.Signature{}, nil).AnyTimes()
	m.EXPECT().GetSignatureStatuses(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(statusResult(&rpc.SignatureStatusesResult{
			Err: map[string]interface{}{
				"InstructionError": []interface{}{float64(3), map[string]interface{}{"Custom": float64(6)}},
			},
		}), nil)

	s := NewSubmitter(chainclient.NewClient(m, signer.PublicKey(), ""), nil, signer, StaticFee(0), testConfig())
	res, err := s.Submit(context.Background(), testInstructions(signer.PublicKey()), 200_000)

	var perr *errcode.ProgramError
	if !errors.As(err, &perr) || perr.Code != 6 || perr.Instruction != 3 {
		t.Fatalf("got %v", err)
	}
	if res == nil || res.Err == nil {
		t.Error("failed result not reported")
	}
}

func TestSubmitter_MaxRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := solana.NewWallet().PrivateKey
	m := chainclient.NewMockRPC(ctrl)
	m.EXPECT().GetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Return(&rpc.GetBalanceResult{Value: 1e9}, nil)
	m.EXPECT().GetLatestBlockhash(gomock.Any(), gomock.Any()).Return(blockhashResult(1), nil).MinTimes(1)
	m.EXPECT().SendTransactionWithOpts(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(solana.Signature{}, errors.New("node is behind")).AnyTimes()
	m.EXPECT().GetSignatureStatuses(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(statusResult(nil), nil).AnyTimes()

	cfg := testConfig()
	cfg.MaxAttempts = 6
	cfg.RefreshEvery = 4

	s := NewSubmitter(chainclient.NewClient(m, signer.PublicKey(), ""), nil, signer, StaticFee(0), cfg)
	res, err := s.Submit(context.Background(), testInstructions(signer.PublicKey()), 200_000)
	if !errors.Is(err, errcode.ErrMaxRetries) {
		t.Fatalf("got %v", err)
	}
	if res.Attempts <= cfg.MaxAttempts {
		t.Errorf("gave up after %d sends", res.Attempts)
	}
}

func TestSubmitter_RefreshCadence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := solana.NewWallet().PrivateKey
	m := chainclient.NewMockRPC(ctrl)

	var mtx sync.Mutex
	var sends, refreshes int
	sinceRefresh, maxSinceRefresh := 0, 0
	m.EXPECT().GetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Return(&rpc.GetBalanceResult{Value: 1e9}, nil)
	m.EXPECT().GetLatestBlockhash(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
			mtx.Lock()
			defer mtx.Unlock()
			refreshes++
			sinceRefresh = 0
			return blockhashResult(byte(refreshes)), nil
		}).AnyTimes()
	m.EXPECT().SendTransactionWithOpts(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *solana.Transaction, rpc.TransactionOpts) (solana.Signature, error) {
			mtx.Lock()
			defer mtx.Unlock()
			sends++
			sinceRefresh++
			if sinceRefresh > maxSinceRefresh {
				maxSinceRefresh = sinceRefresh
			}
			return solana.Signature{}, nil
		}).AnyTimes()
	m.EXPECT().GetSignatureStatuses(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(statusResult(nil), nil).AnyTimes()

	// Confirm cycles span far more sends than the refresh cadence.
	cfg := testConfig()
	cfg.SendInterval = time.Millisecond
	cfg.ConfirmInterval = 5 * time.Millisecond
	cfg.ConfirmChecks = 20
	cfg.RefreshEvery = 10
	cfg.MaxAttempts = 150

	s := NewSubmitter(chainclient.NewClient(m, signer.PublicKey(), ""), nil, signer, StaticFee(0), cfg)
	res, err := s.Submit(context.Background(), testInstructions(signer.PublicKey()), 200_000)
	if !errors.Is(err, errcode.ErrMaxRetries) {
		t.Fatalf("got %v", err)
	}

	mtx.Lock()
	defer mtx.Unlock()
	if sends > cfg.MaxAttempts+1 {
		t.Errorf("%d sends, ceiling %d", sends, cfg.MaxAttempts)
	}
	if res.Attempts != sends {
		t.Errorf("reported %d attempts, sent %d", res.Attempts, sends)
	}
	if maxSinceRefresh > cfg.RefreshEvery {
		t.Errorf("%d sends on one blockhash, refresh every %d", maxSinceRefresh, cfg.RefreshEvery)
	}
	if want := sends / cfg.RefreshEvery; refreshes < want {
		t.Errorf("refreshed %d times over %d sends, want at least %d", refreshes, sends, want)
	}
}

func TestSubmitter_TipUsesTipSender(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := solana.NewWallet().PrivateKey
	m := chainclient.NewMockRPC(ctrl)
	tipRPC := chainclient.NewMockRPC(ctrl)

	m.EXPECT().GetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Return(&rpc.GetBalanceResult{Value: 1e9}, nil)
	m.EXPECT().GetLatestBlockhash(gomock.Any(), gomock.Any()).Return(blockhashResult(1), nil)
	m.EXPECT().GetSignatureStatuses(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(statusResult(confirmedStatus), nil)
	tipRPC.EXPECT().SendTransactionWithOpts(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
			found := false
			for _, key := range tx.Message.AccountKeys {
				for _, tip := range TipAccounts {
					if key.Equals(tip) {
						found = true
					}
				}
			}
			if !found {
				t.Error("tip transfer missing")
			}
			return tx.Signatures[0], nil
		}).MinTimes(1)

	cfg := testConfig()
	cfg.Tip = 10_000
	s := NewSubmitter(chainclient.NewClient(m, signer.PublicKey(), ""), tipRPC, signer, StaticFee(0), cfg)
	if _, err := s.Submit(context.Background(), testInstructions(signer.PublicKey()), 200_000); err != nil {
		t.Fatal(err.Error())
	}
}
