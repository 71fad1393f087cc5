package tonapi

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
	"golang.org/x/time/rate"

	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

// ErrNotFound is returned for 404 responses
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx TonAPI response
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Client is a TonAPI HTTP client implementing ledger.Reader
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ledger.Reader = (*Client)(nil)

// NewClient creates a new TonAPI client. rps <= 0 disables throttling.
func NewClient(baseURL, apiKey string, rps float64) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	data, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// LatestBlock returns the masterchain head seqno
func (c *Client) LatestBlock(ctx context.Context) (uint32, error) {
	var head MasterchainHead
	if err := c.get(ctx, "/blockchain/masterchain-head", &head); err != nil {
		return 0, fmt.Errorf("masterchain head: %w", err)
	}
	return head.Seqno, nil
}

// AccountState returns balance, last transaction lt and status of an account
func (c *Client) AccountState(ctx context.Context, account ton.AccountID) (ledger.AccountState, error) {
	var acc BlockchainAccount
	err := c.get(ctx, "/blockchain/accounts/"+url.PathEscape(account.String()), &acc)
	if errors.Is(err, ErrNotFound) {
		return ledger.AccountState{Status: "nonexist"}, nil
	}
	if err != nil {
		return ledger.AccountState{}, fmt.Errorf("account %s: %w", account.String(), err)
	}
	if acc.Balance < 0 || acc.LastTransactionLt < 0 {
		return ledger.AccountState{}, fmt.Errorf("account %s: negative balance or lt", account.String())
	}
	return ledger.AccountState{
		Balance:  uint64(acc.Balance),
		LastTxLt: uint64(acc.LastTransactionLt),
		Status:   acc.Status,
	}, nil
}

// RunGetMethod executes a get-method with address arguments and decodes its stack
func (c *Client) RunGetMethod(ctx context.Context, account ton.AccountID, method string, args ...ton.AccountID) (ledger.Stack, error) {
	path := fmt.Sprintf("/blockchain/accounts/%s/methods/%s", url.PathEscape(account.String()), url.PathEscape(method))
	if len(args) > 0 {
		q := url.Values{}
		for _, a := range args {
			q.Add("args", a.String())
		}
		path += "?" + q.Encode()
	}

	var res MethodExecutionResult
	if err := c.get(ctx, path, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if !res.Success {
		return nil, fmt.Errorf("%s: exit code %d", method, res.ExitCode)
	}

	stack := make(ledger.Stack, 0, len(res.Stack))
	for i, rec := range res.Stack {
		v, err := rec.value()
		if err != nil {
			return nil, fmt.Errorf("%s: stack[%d]: %w", method, i, err)
		}
		stack = append(stack, v)
	}
	return stack, nil
}

func (r TvmStackRecord) value() (ledger.Value, error) {
	switch r.Type {
	case "null", "nan":
		return ledger.Value{Kind: ledger.KindNull}, nil
	case "num":
		n, ok := new(big.Int).SetString(r.Num, 0)
		if !ok {
			return ledger.Value{}, fmt.Errorf("bad number %q", r.Num)
		}
		return ledger.IntValue(n), nil
	case "cell":
		cell, err := decodeCell(r.Cell)
		if err != nil {
			return ledger.Value{}, err
		}
		return ledger.CellValue(cell), nil
	case "slice":
		cell, err := decodeCell(r.Slice)
		if err != nil {
			return ledger.Value{}, err
		}
		return ledger.SliceValue(cell), nil
	default:
		return ledger.Value{}, fmt.Errorf("unsupported stack entry %q", r.Type)
	}
}

func decodeCell(s string) (*boc.Cell, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	cells, err := boc.DeserializeBoc(raw)
	if err != nil {
		return nil, fmt.Errorf("deserialize boc: %w", err)
	}
	if len(cells) != 1 {
		return nil, fmt.Errorf("boc has %d roots", len(cells))
	}
	return cells[0], nil
}

// ShortAddr returns a shortened user-friendly address for display
func ShortAddr(id ton.AccountID, testnet bool, n int) string {
	addr := id.ToHuman(true, testnet)
	if len(addr) < n*2+3 {
		return addr
	}
	return addr[:n] + "..." + addr[len(addr)-n:]
}
