package chainclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"

	"github.com/regolith-labs/ore-cli-sub000/utils"
)

const (
	notifierMinBackoff = time.Second
	notifierMaxBackoff = 30 * time.Second
	notifierPongWait   = 60 * time.Second
)

// AccountNotifyFunc receives the slot of each account change, or the error
// that dropped the subscription.
type AccountNotifyFunc func(slot uint64, err error)

// AccountNotifier keeps an accountSubscribe subscription open on the node
// websocket endpoint and reconnects when it drops.
type AccountNotifier struct {
	url     string
	account solana.PublicKey
	notify  AccountNotifyFunc
	dialer  *websocket.Dialer

	connMtx sync.Mutex
	conn    *websocket.Conn

	quit    chan struct{}
	wg      sync.WaitGroup
	started bool
	quitMtx sync.Mutex
}

type subscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsMessage struct {
	ID     *uint64         `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Params *struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
		} `json:"result"`
		Subscription uint64 `json:"subscription"`
	} `json:"params,omitempty"`
}

// NewAccountNotifier creates a notifier for account on the websocket
// endpoint wsURL.
func NewAccountNotifier(wsURL string, account solana.PublicKey, notify AccountNotifyFunc) *AccountNotifier {
	return &AccountNotifier{
		url:     wsURL,
		account: account,
		notify:  notify,
		dialer:  websocket.DefaultDialer,
		quit:    make(chan struct{}),
	}
}

// WebsocketURL derives the websocket endpoint from an http(s) RPC URL.
func WebsocketURL(rpcURL string) (string, error) {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported rpc url scheme " + u.Scheme)
	}
	return u.String(), nil
}

func (n *AccountNotifier) Start(ctx context.Context) {
	n.quitMtx.Lock()
	defer n.quitMtx.Unlock()
	if n.started {
		return
	}
	n.started = true

	n.wg.Add(1)
	go n.connectHandler(ctx)
}

func (n *AccountNotifier) Stop() {
	n.quitMtx.Lock()
	select {
	case <-n.quit:
	default:
		close(n.quit)
	}
	n.quitMtx.Unlock()

	n.connMtx.Lock()
	if n.conn != nil {
		n.conn.Close()
	}
	n.connMtx.Unlock()

	n.wg.Wait()
	log.Trace("Account notifier done")
}

func (n *AccountNotifier) stopping(ctx context.Context) bool {
	select {
	case <-n.quit:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// connectHandler subscribes, reads until the connection fails, then
// reconnects with exponential backoff.
func (n *AccountNotifier) connectHandler(ctx context.Context) {
	defer n.wg.Done()
	defer utils.MyRecover()

	backoff := notifierMinBackoff
	for !n.stopping(ctx) {
		subscribed, err := n.subscribeAndRead(ctx)
		if n.stopping(ctx) {
			return
		}
		if subscribed {
			backoff = notifierMinBackoff
		}
		log.Debugf("Account subscription for %v dropped: %v", n.account, err)
		n.notify(0, err)

		select {
		case <-time.After(backoff):
		case <-n.quit:
			return
		case <-ctx.Done():
			return
		}
		backoff *= 2
		if backoff > notifierMaxBackoff {
			backoff = notifierMaxBackoff
		}
	}
}

// subscribeAndRead returns when the connection fails, reporting whether the
// subscription had been confirmed.
func (n *AccountNotifier) subscribeAndRead(ctx context.Context) (bool, error) {
	conn, _, err := n.dialer.DialContext(ctx, n.url, nil)
	if err != nil {
		return false, err
	}
	// Stop may have run while dialing and found no connection to close.
	n.connMtx.Lock()
	if n.stopping(ctx) {
		n.connMtx.Unlock()
		conn.Close()
		return false, errors.New("notifier stopping")
	}
	n.conn = conn
	n.connMtx.Unlock()
	defer func() {
		n.connMtx.Lock()
		n.conn = nil
		n.connMtx.Unlock()
		conn.Close()
	}()

	req := subscribeRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "accountSubscribe",
		Params: []interface{}{
			n.account.String(),
			map[string]string{"encoding": "base64", "commitment": "confirmed"},
		},
	}
	if err := conn.WriteJSON(&req); err != nil {
		return false, err
	}

	conn.SetReadDeadline(time.Now().Add(notifierPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(notifierPongWait))
	})

	subscribed := false
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return subscribed, err
		}
		conn.SetReadDeadline(time.Now().Add(notifierPongWait))

		switch {
		case msg.Error != nil:
			return subscribed, errors.New("subscription rejected: " + msg.Error.Message)
		case msg.ID != nil:
			subscribed = true
			log.Debugf("Subscribed to account %v", n.account)
		case msg.Method == "accountNotification" && msg.Params != nil:
			n.notify(msg.Params.Result.Context.Slot, nil)
		}
	}
}
