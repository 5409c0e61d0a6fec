package chainclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/program"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various events.
type NotificationCallback func(*Notification)

const (
	// NTProofChanged indicates the watched proof account was written.
	NTProofChanged NotificationType = iota

	// NTNotifierDisconnected indicates the account subscription was lost
	// and the client fell back to polling only.
	NTNotifierDisconnected
)

var notificationTypeStrings = map[NotificationType]string{
	NTProofChanged:         "NTProofChanged",
	NTNotifierDisconnected: "NTNotifierDisconnected",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// Notification is sent to subscribers; Data depends on Type:
//   - NTProofChanged:         uint64 slot of the change
//   - NTNotifierDisconnected: error
type Notification struct {
	Type NotificationType
	Data interface{}
}

// Blockhash is a recent blockhash together with the last block height at
// which transactions signed with it are accepted.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// Client wraps the node RPC with typed account accessors and owns the
// background caches.
type Client struct {
	RPC
	authority solana.PublicKey

	blockhash *Cache[Blockhash]
	config    *Cache[*program.Config]
	notifier  *AccountNotifier

	notificationsLock sync.RWMutex
	notifications     []NotificationCallback
}

// NewClient creates a client for authority.  wsURL may be empty, in which
// case proof changes are only observed by polling.
func NewClient(r RPC, authority solana.PublicKey, wsURL string) *Client {
	c := &Client{
		RPC:       r,
		authority: authority,
	}
	c.blockhash = NewCache[Blockhash]("blockhash", constdef.BlockhashPollInterval, c.fetchBlockhash)
	c.config = NewCache[*program.Config]("config", constdef.ConfigPollInterval, c.GetConfig)
	if wsURL != "" {
		c.notifier = NewAccountNotifier(wsURL, program.ProofAddress(authority), c.onAccountNotification)
	}
	return c
}

// Authority returns the miner public key.
func (c *Client) Authority() solana.PublicKey {
	return c.authority
}

// Start launches the caches and the account notifier.
func (c *Client) Start(ctx context.Context) {
	c.blockhash.Start(ctx)
	c.config.Start(ctx)
	if c.notifier != nil {
		c.notifier.Start(ctx)
	}
}

// Stop stops everything started by Start.
func (c *Client) Stop() {
	if c.notifier != nil {
		c.notifier.Stop()
	}
	c.config.Stop()
	c.blockhash.Stop()
	log.Trace("Chain client done")
}

// Subscribe to notifications. Registers a callback to be executed
// when various events take place.
func (c *Client) Subscribe(callback NotificationCallback) {
	c.notificationsLock.Lock()
	c.notifications = append(c.notifications, callback)
	c.notificationsLock.Unlock()
}

func (c *Client) sendNotification(typ NotificationType, data interface{}) {
	n := Notification{Type: typ, Data: data}
	c.notificationsLock.RLock()
	for _, callback := range c.notifications {
		callback(&n)
	}
	c.notificationsLock.RUnlock()
}

func (c *Client) onAccountNotification(slot uint64, err error) {
	if err != nil {
		c.sendNotification(NTNotifierDisconnected, err)
		return
	}
	c.sendNotification(NTProofChanged, slot)
}

// BlockhashCache returns the blockhash cache.
func (c *Client) BlockhashCache() *Cache[Blockhash] {
	return c.blockhash
}

// ConfigCache returns the config cache.
func (c *Client) ConfigCache() *Cache[*program.Config] {
	return c.config
}

func (c *Client) fetchBlockhash(ctx context.Context) (Blockhash, error) {
	res, err := c.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return Blockhash{}, err
	}
	if res == nil || res.Value == nil {
		return Blockhash{}, errors.New("empty latest blockhash result")
	}
	return Blockhash{Hash: res.Value.Blockhash, LastValidBlockHeight: res.Value.LastValidBlockHeight}, nil
}

// LatestBlockhash returns the cached blockhash, or fetches one when the cache
// has not produced a value yet.
func (c *Client) LatestBlockhash(ctx context.Context) (Blockhash, error) {
	if bh, ok := c.blockhash.Get(); ok {
		return bh, nil
	}
	return c.blockhash.Refresh(ctx)
}

// FreshBlockhash always asks the node.  The cache is updated on success.
func (c *Client) FreshBlockhash(ctx context.Context) (Blockhash, error) {
	return c.blockhash.Refresh(ctx)
}

// Config returns the cached config, fetching it when the cache is empty.
func (c *Client) Config(ctx context.Context) (*program.Config, error) {
	if cfg, ok := c.config.Get(); ok {
		return cfg, nil
	}
	return c.config.Refresh(ctx)
}

func (c *Client) accountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	res, err := c.GetAccountInfo(ctx, account)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return nil, fmt.Errorf("account %v not found", account)
	}
	return res.Value.Data.GetBinary(), nil
}

// GetProof fetches the proof account of authority.
func (c *Client) GetProof(ctx context.Context, authority solana.PublicKey) (*program.Proof, error) {
	data, err := c.accountData(ctx, program.ProofAddress(authority))
	if err != nil {
		return nil, fmt.Errorf("fetch proof: %w", err)
	}
	return program.DecodeProof(data)
}

// GetConfig fetches the program config account.
func (c *Client) GetConfig(ctx context.Context) (*program.Config, error) {
	data, err := c.accountData(ctx, program.ConfigAddress())
	if err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	return program.DecodeConfig(data)
}

// GetClock fetches the clock sysvar.
func (c *Client) GetClock(ctx context.Context) (*program.Clock, error) {
	data, err := c.accountData(ctx, solana.SysVarClockPubkey)
	if err != nil {
		return nil, fmt.Errorf("fetch clock: %w", err)
	}
	return program.DecodeClock(data)
}

// GetBuses fetches all bus accounts in one request.  Missing or malformed
// accounts are reported as an error.
func (c *Client) GetBuses(ctx context.Context) ([]*program.Bus, error) {
	res, err := c.GetMultipleAccounts(ctx, program.BusAddresses()...)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Value) != constdef.BusCount {
		return nil, errors.New("unexpected bus account count")
	}
	buses := make([]*program.Bus, 0, constdef.BusCount)
	for i, acc := range res.Value {
		if acc == nil || acc.Data == nil {
			return nil, fmt.Errorf("bus %d not found", i)
		}
		bus, err := program.DecodeBus(acc.Data.GetBinary())
		if err != nil {
			return nil, err
		}
		buses = append(buses, bus)
	}
	return buses, nil
}

// Balance returns the lamport balance of account.
func (c *Client) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := c.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}
