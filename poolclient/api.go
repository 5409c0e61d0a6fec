// Package poolclient talks to a mining pool over its HTTP API: it fetches
// member challenges, submits signed solutions and reads back mining events.
package poolclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/pooljson"
)

// StatusError is returned for non-success HTTP responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Code, http.StatusText(e.Code), e.Body)
}

// IsStatus reports whether err is a StatusError with one of codes.
func IsStatus(err error, codes ...int) bool {
	var serr *StatusError
	if !errors.As(err, &serr) {
		return false
	}
	for _, c := range codes {
		if serr.Code == c {
			return true
		}
	}
	return false
}

// API is a client of the pool HTTP API.
type API struct {
	baseURL    string
	httpClient *http.Client

	// UserAgent is sent with every request when set.
	UserAgent string

	// eventRetryDelay separates latest event lookups.
	eventRetryDelay time.Duration
}

// NewAPI creates a client for the pool at baseURL.  httpClient defaults to
// http.DefaultClient.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      httpClient,
		eventRetryDelay: time.Second,
	}
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Method: method, Path: path, Code: resp.StatusCode}
		var er pooljson.ErrorResult
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			serr.Body = er.Error
		} else {
			serr.Body = strings.TrimSpace(string(data))
		}
		return serr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// PoolAddress returns the pool authority, falling back to the legacy path on
// older pools.
func (a *API) PoolAddress(ctx context.Context) (string, error) {
	var res pooljson.AddressResult
	err := a.do(ctx, http.MethodGet, "/address", nil, &res)
	if IsStatus(err, http.StatusNotFound) {
		err = a.do(ctx, http.MethodGet, "/pool-address", nil, &res)
	}
	if err != nil {
		return "", err
	}
	return res.Address, nil
}

// Register registers authority as a pool member, returning the member record.
func (a *API) Register(ctx context.Context, authority string) (*pooljson.MemberResult, error) {
	var res pooljson.MemberResult
	if err := a.do(ctx, http.MethodPost, "/register", pooljson.NewRegisterCmd(authority), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Member fetches the member record of authority.
func (a *API) Member(ctx context.Context, authority string) (*pooljson.MemberResult, error) {
	var res pooljson.MemberResult
	if err := a.do(ctx, http.MethodGet, "/member/"+authority, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Challenge fetches the current member challenge of authority.
func (a *API) Challenge(ctx context.Context, authority string) (*pooljson.ChallengeResult, error) {
	var res pooljson.ChallengeResult
	if err := a.do(ctx, http.MethodGet, "/challenge/"+authority, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Contribute posts a signed solution.
func (a *API) Contribute(ctx context.Context, cmd *pooljson.ContributeCmd) error {
	return a.do(ctx, http.MethodPost, "/contribute", cmd, nil)
}

// Commit posts a co-signed balance update, falling back to the legacy path on
// older pools.
func (a *API) Commit(ctx context.Context, cmd *pooljson.CommitCmd) (*pooljson.BalanceUpdateResult, error) {
	var res pooljson.BalanceUpdateResult
	err := a.do(ctx, http.MethodPost, "/commit", cmd, &res)
	if IsStatus(err, http.StatusNotFound) {
		err = a.do(ctx, http.MethodPost, "/update-balance", cmd, &res)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// LatestEvent fetches the latest mining event of authority.  The event is
// written by the pool some time after the submission lands, so 404 and 502
// answers are retried a bounded number of times.
func (a *API) LatestEvent(ctx context.Context, authority string) (*pooljson.EventResult, error) {
	var lastErr error
	for i := 0; i < constdef.PoolEventRetries; i++ {
		var res pooljson.EventResult
		err := a.do(ctx, http.MethodGet, "/event/latest/"+authority, nil, &res)
		if err == nil {
			return &res, nil
		}
		if !IsStatus(err, http.StatusNotFound, http.StatusBadGateway) {
			return nil, err
		}
		lastErr = err
		select {
		case <-time.After(a.eventRetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("latest event unavailable after %d tries: %w", constdef.PoolEventRetries, lastErr)
}
