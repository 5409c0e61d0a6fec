package txmgr

import (
	"context"
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// FeeEstimator returns the priority fee, in microlamports per compute unit,
// to attach to a transaction writing accounts.
type FeeEstimator interface {
	Estimate(ctx context.Context, accounts []solana.PublicKey) (uint64, error)
}

// StaticFee always returns the configured fee.
type StaticFee uint64

func (f StaticFee) Estimate(ctx context.Context, accounts []solana.PublicKey) (uint64, error) {
	return uint64(f), nil
}

type priorityFeeOptions struct {
	Recommended bool `json:"recommended"`
}

type priorityFeeRequest struct {
	AccountKeys []string           `json:"accountKeys"`
	Options     priorityFeeOptions `json:"options"`
}

type priorityFeeResult struct {
	PriorityFeeEstimate float64 `json:"priorityFeeEstimate"`
}

// DynamicFee queries a getPriorityFeeEstimate endpoint and caps the answer.
// Estimation failures fall back to the static fee.
type DynamicFee struct {
	client   jsonrpc.RPCClient
	fallback uint64
	cap      uint64
}

// NewDynamicFee creates an estimator for url.  A zero feeCap disables the cap.
func NewDynamicFee(url string, httpClient *http.Client, fallback, feeCap uint64) *DynamicFee {
	opts := &jsonrpc.RPCClientOpts{}
	if httpClient != nil {
		opts.HTTPClient = httpClient
	}
	return &DynamicFee{
		client:   jsonrpc.NewClientWithOpts(url, opts),
		fallback: fallback,
		cap:      feeCap,
	}
}

func (f *DynamicFee) Estimate(ctx context.Context, accounts []solana.PublicKey) (uint64, error) {
	fee, err := f.query(ctx, accounts)
	if err != nil {
		log.Warnf("Unable to estimate priority fee, using %d: %v", f.fallback, err)
		return f.fallback, nil
	}
	if f.cap > 0 && fee > f.cap {
		log.Debugf("Priority fee estimate %d capped to %d", fee, f.cap)
		fee = f.cap
	}
	return fee, nil
}

func (f *DynamicFee) query(ctx context.Context, accounts []solana.PublicKey) (uint64, error) {
	keys := make([]string, 0, len(accounts))
	for _, a := range accounts {
		keys = append(keys, a.String())
	}
	params := []interface{}{priorityFeeRequest{
		AccountKeys: keys,
		Options:     priorityFeeOptions{Recommended: true},
	}}

	var res priorityFeeResult
	if err := f.client.CallForInto(ctx, &res, "getPriorityFeeEstimate", params); err != nil {
		return 0, err
	}
	if res.PriorityFeeEstimate < 0 {
		return 0, errors.New("negative priority fee estimate")
	}
	return uint64(res.PriorityFeeEstimate), nil
}
