package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"addrview/pkg/config"
	"addrview/pkg/pager"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.BackendURL = server.URL
	return NewClient(cfg, zerolog.Nop())
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestFetchSummary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/web3relay", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body := decodeBody(t, r)
		assert.Equal(t, testAddr, body["addr"])
		assert.ElementsMatch(t, []interface{}{"balance", "count", "bytecode", "checksummedAddr"}, body["options"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"balance":         "2500000000000000000",
			"count":           42,
			"bytecode":        "0x6060",
			"checksummedAddr": "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		})
	})

	summary, err := client.FetchSummary(context.Background(), testAddr)
	require.NoError(t, err)

	expected, _ := new(big.Int).SetString("2500000000000000000", 10)
	assert.Equal(t, 0, expected.Cmp(summary.Balance))
	assert.Equal(t, uint64(42), summary.TransactionCount)
	assert.True(t, summary.IsContract)
	assert.Equal(t, "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", summary.DisplayAddress())
	assert.Equal(t, testAddr, summary.AddressHash)
}

func TestFetchSummary_Defaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"balance":"0x0","count":"0x10","bytecode":"0x","isContract":false}`)
	})

	summary, err := client.FetchSummary(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Balance.Sign())
	assert.Equal(t, uint64(16), summary.TransactionCount)
	assert.False(t, summary.IsContract)
	assert.Equal(t, "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", summary.ChecksummedAddress, "checksum derived locally when absent")
}

func TestFetchSummary_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "node down", http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				var se *ServerError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusBadGateway, se.StatusCode)
				assert.Equal(t, "node down", se.Message)
			},
		},
		{
			name: "malformed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"balance":`)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsServerError(err))
			},
		},
		{
			name: "bad balance",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"balance":"lots","count":1}`)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsServerError(err))
				assert.Contains(t, err.Error(), "invalid balance")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.FetchSummary(context.Background(), testAddr)
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrNetwork))
			tt.check(t, err)
		})
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := config.Default()
	cfg.BackendURL = server.URL
	server.Close()

	client := NewClient(cfg, zerolog.Nop())
	_, err := client.FetchSignedCount(context.Background(), testAddr)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.False(t, IsServerError(err))
}

func TestCancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"signed":1}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchSignedCount(ctx, testAddr)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchSignedCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signed", r.URL.Path)
		assert.Equal(t, testAddr, decodeBody(t, r)["addr"])
		_, _ = io.WriteString(w, `{"signed":"318"}`)
	})

	n, err := client.FetchSignedCount(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(318), n)
}

func TestFetchPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/addr", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, testAddr, r.PostForm.Get("addr"))
		assert.Equal(t, "5", r.PostForm.Get("draw"))
		assert.Equal(t, "20", r.PostForm.Get("start"))
		assert.Equal(t, "20", r.PostForm.Get("length"))
		assert.Equal(t, "77", r.PostForm.Get("count"))

		_, _ = io.WriteString(w, `{"draw":5,"recordsTotal":77,"recordsFiltered":77,"data":[
			["0xaaa",10,"0xfrom","0xto","1","k",1600000000]
		]}`)
	})

	req := pager.Request{Generation: 5, Query: pager.DefaultQuery(testAddr).WithPage(1), Count: 77}
	res, err := client.FetchPage(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), res.TotalRecords)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "0xaaa", res.Rows[0].Hash)
}

func TestFetchPage_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error payload", `{"error":"query timeout"}`, "query timeout"},
		{"draw mismatch", `{"draw":9,"recordsTotal":0,"recordsFiltered":0,"data":[]}`, "draw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := client.FetchPage(context.Background(), pager.Request{Generation: 1, Query: pager.DefaultQuery(testAddr)})
			require.Error(t, err)
			assert.True(t, IsServerError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFetchInternalTraces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAddr, decodeBody(t, r)["addr_trace"])
		_, _ = io.WriteString(w, `[
			{"action":{"callType":"call","from":"0x1","to":"0x2","value":"0xde0b6b3a7640000"},
			 "result":{"gasUsed":"0x5208"},"blockNumber":100,"transactionHash":"0xt1","traceAddress":[0],"type":"call"},
			{"action":{"from":"0x2","value":"0x0"},"result":{"gasUsed":"0x10","address":"0x3"},
			 "blockNumber":101,"transactionHash":"0xt2","traceAddress":[],"type":"create"},
			{"action":{"address":"0x3","refundAddress":"0x1","balance":"0x2"},
			 "blockNumber":102,"transactionHash":"0xt3","type":"suicide","error":"Reverted"}
		]`)
	})

	traces, err := client.FetchInternalTraces(context.Background(), testAddr)
	require.NoError(t, err)
	require.Len(t, traces, 3)

	assert.Equal(t, "call", traces[0].CallType)
	assert.Equal(t, uint64(21000), traces[0].GasUsed)
	assert.Equal(t, "1000000000000000000", traces[0].Value.String())
	assert.Equal(t, []int{0}, traces[0].TraceAddress)

	assert.Equal(t, "0x3", traces[1].To, "create target comes from the result")

	assert.Equal(t, "0x3", traces[2].From)
	assert.Equal(t, "0x1", traces[2].To)
	assert.Equal(t, int64(2), traces[2].Value.Int64())
	assert.Equal(t, "Reverted", traces[2].Error)
}

func TestFetchContract(t *testing.T) {
	abiJSON := `[{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"type":"uint256"}]}]`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compile", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "find", body["action"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"address":         testAddr,
			"contractName":    "Token",
			"compilerVersion": "v0.4.24",
			"optimization":    true,
			"sourceCode":      "contract Token {}",
			"abi":             abiJSON,
			"byteCode":        "0x6060",
		})
	})

	artifact, err := client.FetchContract(context.Background(), testAddr)
	require.NoError(t, err)
	assert.True(t, artifact.Found)
	assert.Equal(t, "Token", artifact.ContractName)
	assert.True(t, artifact.Optimization)
	assert.JSONEq(t, abiJSON, artifact.ABI)
}

func TestFetchContract_NotFound(t *testing.T) {
	for _, body := range []string{`null`, `{}`, `{"valid":false}`} {
		t.Run(url.QueryEscape(body), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			artifact, err := client.FetchContract(context.Background(), testAddr)
			require.NoError(t, err)
			assert.False(t, artifact.Found)
			assert.Equal(t, testAddr, artifact.Address)
		})
	}
}
