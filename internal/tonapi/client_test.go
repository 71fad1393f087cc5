package tonapi

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

func testAccount() ton.AccountID {
	var id ton.AccountID
	for i := range id.Address {
		id.Address[i] = 0x42
	}
	return id
}

func hexBoc(t *testing.T, c *boc.Cell) string {
	t.Helper()
	raw, err := c.ToBoc()
	require.NoError(t, err)
	return hex.EncodeToString(raw)
}

func TestLatestBlockAndAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/blockchain/masterchain-head", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"seqno": 4242, "workchain": -1}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v2/", "secret", 0)
	seqno, err := c.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(4242), seqno)
}

func TestAccountState(t *testing.T) {
	id := testAccount()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blockchain/accounts/"+id.String() {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"address":"x","balance":1500000000,"last_transaction_lt":48000001,"status":"active"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	st, err := c.AccountState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountState{Balance: 1_500_000_000, LastTxLt: 48000001, Status: "active"}, st)

	other := id
	other.Address[0] = 0
	st, err = c.AccountState(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, "nonexist", st.Status)
	assert.False(t, st.HasHistory())
}

func TestRunGetMethod(t *testing.T) {
	id := testAccount()
	arg := testAccount()
	arg.Address[1] = 7

	cell := boc.NewCell()
	require.NoError(t, cell.WriteUint(0xdead, 16))
	cellHex := hexBoc(t, cell)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blockchain/accounts/"+id.String()+"/methods/get_wallet_address", r.URL.Path)
		assert.Equal(t, []string{arg.String()}, r.URL.Query()["args"])
		fmt.Fprintf(w, `{"success":true,"exit_code":0,"stack":[
			{"type":"num","num":"0x10"},
			{"type":"num","num":"-0x1"},
			{"type":"cell","cell":"%s"},
			{"type":"slice","slice":"%s"},
			{"type":"null"}]}`, cellHex, cellHex)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	stack, err := c.RunGetMethod(context.Background(), id, "get_wallet_address", arg)
	require.NoError(t, err)
	require.Len(t, stack, 5)

	assert.Equal(t, ledger.KindInt, stack[0].Kind)
	assert.Equal(t, int64(16), stack[0].Int.Int64())
	assert.Equal(t, int64(-1), stack[1].Int.Int64())
	assert.Equal(t, ledger.KindCell, stack[2].Kind)
	v, err := stack[2].Cell.ReadUint(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdead), v)
	assert.Equal(t, ledger.KindSlice, stack[3].Kind)
	assert.Equal(t, ledger.KindNull, stack[4].Kind)
}

func TestRunGetMethodFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"exit code", http.StatusOK, `{"success":false,"exit_code":11,"stack":[]}`},
		{"server error", http.StatusInternalServerError, `boom`},
		{"bad number", http.StatusOK, `{"success":true,"stack":[{"type":"num","num":"zz"}]}`},
		{"bad cell", http.StatusOK, `{"success":true,"stack":[{"type":"cell","cell":"nothex"}]}`},
		{"tuple", http.StatusOK, `{"success":true,"stack":[{"type":"tuple"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", 0).RunGetMethod(context.Background(), testAccount(), "get_jetton_data")
			assert.Error(t, err)
		})
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"seqno": 1}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0.001)
	_, err := c.LatestBlock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.LatestBlock(ctx)
	assert.Error(t, err)
}

func TestShortAddr(t *testing.T) {
	s := ShortAddr(testAccount(), false, 4)
	assert.Len(t, s, 11)
	assert.Contains(t, s, "...")
}
