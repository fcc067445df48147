package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"addrview/pkg/config"
	"addrview/pkg/models"
	"addrview/pkg/pager"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/rs/zerolog"
)

// SummaryOptions are the fields requested from the summary service.
var SummaryOptions = []string{"balance", "count", "bytecode", "checksummedAddr"}

const maxErrorBody = 512

// Client talks to the explorer backend endpoints.
type Client struct {
	baseURL    string
	endpoints  config.Endpoints
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a client for cfg's backend.
func NewClient(cfg config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BackendURL, "/"),
		endpoints:  cfg.Endpoints,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		logger:     logger.With().Str("component", "rpc").Logger(),
	}
}

type summaryRequest struct {
	Addr    string   `json:"addr"`
	Options []string `json:"options"`
}

type summaryResponse struct {
	Balance         json.RawMessage `json:"balance"`
	Count           json.RawMessage `json:"count"`
	Bytecode        string          `json:"bytecode"`
	ChecksummedAddr string          `json:"checksummedAddr"`
	IsContract      *bool           `json:"isContract"`
}

// FetchSummary returns balance, transaction count, bytecode and checksummed
// address for addr.
func (c *Client) FetchSummary(ctx context.Context, addr string) (models.AddressSummary, error) {
	var resp summaryResponse
	if err := c.postJSON(ctx, c.endpoints.Summary, summaryRequest{Addr: addr, Options: SummaryOptions}, &resp); err != nil {
		return models.AddressSummary{}, err
	}

	balance, err := parseBig(resp.Balance)
	if err != nil {
		return models.AddressSummary{}, c.schemaError(c.endpoints.Summary, "balance", err)
	}
	count, err := parseBig(resp.Count)
	if err != nil || !count.IsUint64() {
		return models.AddressSummary{}, c.schemaError(c.endpoints.Summary, "count", fmt.Errorf("invalid count %s", resp.Count))
	}

	checksummed := resp.ChecksummedAddr
	if checksummed == "" && common.IsHexAddress(addr) {
		checksummed = common.HexToAddress(addr).Hex()
	}

	isContract := hasCode(resp.Bytecode)
	if resp.IsContract != nil {
		isContract = *resp.IsContract
	}

	return models.AddressSummary{
		AddressHash:        addr,
		ChecksummedAddress: checksummed,
		Balance:            balance,
		TransactionCount:   count.Uint64(),
		Bytecode:           resp.Bytecode,
		IsContract:         isContract,
	}, nil
}

// FetchSignedCount returns the number of blocks signed by addr.
func (c *Client) FetchSignedCount(ctx context.Context, addr string) (uint64, error) {
	var resp struct {
		Signed json.RawMessage `json:"signed"`
	}
	if err := c.postJSON(ctx, c.endpoints.Signed, map[string]string{"addr": addr}, &resp); err != nil {
		return 0, err
	}
	n, err := parseBig(resp.Signed)
	if err != nil || !n.IsUint64() {
		return 0, c.schemaError(c.endpoints.Signed, "signed", fmt.Errorf("invalid count %s", resp.Signed))
	}
	return n.Uint64(), nil
}

// FetchPage runs one server-side table query.
func (c *Client) FetchPage(ctx context.Context, req pager.Request) (pager.Result, error) {
	endpoint := c.endpoints.Transactions
	body := strings.NewReader(req.Form().Encode())
	var resp pager.Response
	err := c.do(ctx, endpoint, "application/x-www-form-urlencoded", body, func(r io.Reader) error {
		var err error
		resp, err = pager.DecodeResponse(r)
		return err
	})
	if err != nil {
		return pager.Result{}, err
	}
	if resp.Error != "" {
		return pager.Result{}, &ServerError{Endpoint: endpoint, Message: resp.Error}
	}
	if resp.Draw != 0 && resp.Draw != req.Generation {
		return pager.Result{}, c.schemaError(endpoint, "draw", fmt.Errorf("%w: got %d, sent %d", pager.ErrDrawMismatch, resp.Draw, req.Generation))
	}
	return resp.Result, nil
}

type wireTrace struct {
	Action struct {
		CallType      string `json:"callType"`
		From          string `json:"from"`
		To            string `json:"to"`
		Value         string `json:"value"`
		Address       string `json:"address"`
		RefundAddress string `json:"refundAddress"`
		Balance       string `json:"balance"`
	} `json:"action"`
	Result *struct {
		GasUsed string `json:"gasUsed"`
		Address string `json:"address"`
	} `json:"result"`
	BlockNumber     uint64 `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
	TraceAddress    []int  `json:"traceAddress"`
	Type            string `json:"type"`
	Error           string `json:"error"`
}

// FetchInternalTraces returns the internal calls attributed to addr, in the
// order the backend reports them.
func (c *Client) FetchInternalTraces(ctx context.Context, addr string) ([]models.InternalTrace, error) {
	var raw []wireTrace
	if err := c.postJSON(ctx, c.endpoints.Summary, map[string]string{"addr_trace": addr}, &raw); err != nil {
		return nil, err
	}
	traces := make([]models.InternalTrace, 0, len(raw))
	for _, w := range raw {
		t := models.InternalTrace{
			Type:            w.Type,
			CallType:        w.Action.CallType,
			From:            w.Action.From,
			To:              w.Action.To,
			Value:           parseHexBig(w.Action.Value),
			TransactionHash: w.TransactionHash,
			BlockNumber:     w.BlockNumber,
			TraceAddress:    w.TraceAddress,
			Error:           w.Error,
		}
		switch w.Type {
		case "create":
			if w.Result != nil {
				t.To = w.Result.Address
			}
		case "suicide":
			t.From = w.Action.Address
			t.To = w.Action.RefundAddress
			t.Value = parseHexBig(w.Action.Balance)
		}
		if w.Result != nil {
			t.GasUsed, _ = math.ParseUint64(w.Result.GasUsed)
		}
		traces = append(traces, t)
	}
	return traces, nil
}

type contractResponse struct {
	Valid           *bool           `json:"valid"`
	Address         string          `json:"address"`
	ContractName    string          `json:"contractName"`
	CompilerVersion string          `json:"compilerVersion"`
	Optimization    bool            `json:"optimization"`
	SourceCode      string          `json:"sourceCode"`
	ABI             json.RawMessage `json:"abi"`
	ByteCode        string          `json:"byteCode"`
}

// FetchContract looks up verified contract source for addr. The service's
// "not found" answer is a successful result with Found false.
func (c *Client) FetchContract(ctx context.Context, addr string) (models.ContractArtifact, error) {
	var resp *contractResponse
	body := map[string]string{"addr": addr, "action": "find"}
	if err := c.postJSON(ctx, c.endpoints.Contract, body, &resp); err != nil {
		return models.ContractArtifact{}, err
	}
	artifact := models.ContractArtifact{Address: addr}
	if resp == nil || (resp.Valid != nil && !*resp.Valid) {
		return artifact, nil
	}
	abiText, err := rawText(resp.ABI)
	if err != nil {
		return models.ContractArtifact{}, c.schemaError(c.endpoints.Contract, "abi", err)
	}
	if resp.SourceCode == "" && resp.ContractName == "" && abiText == "" {
		return artifact, nil
	}
	artifact.Found = true
	artifact.ContractName = resp.ContractName
	artifact.CompilerVersion = resp.CompilerVersion
	artifact.Optimization = resp.Optimization
	artifact.SourceCode = resp.SourceCode
	artifact.ABI = abiText
	artifact.Bytecode = resp.ByteCode
	if resp.Address != "" {
		artifact.Address = resp.Address
	}
	return artifact, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, endpoint, "application/json", bytes.NewReader(payload), func(r io.Reader) error {
		return json.NewDecoder(r).Decode(out)
	})
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, body io.Reader, decode func(io.Reader) error) error {
	target, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return fmt.Errorf("build url for %s: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("request failed")
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ServerError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(snippet)),
		}
	}
	if err := decode(resp.Body); err != nil {
		return &ServerError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    "invalid response body",
			Err:        err,
		}
	}
	return nil
}

func (c *Client) schemaError(endpoint, field string, err error) error {
	return &ServerError{Endpoint: endpoint, Message: "invalid " + field, Err: err}
}

// parseBig accepts a JSON number or a decimal/hex string. Absent values are
// zero.
func parseBig(raw json.RawMessage) (*big.Int, error) {
	s, err := rawText(raw)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := math.ParseBig256(s)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

func parseHexBig(s string) *big.Int {
	if n, ok := math.ParseBig256(s); ok && s != "" {
		return n
	}
	return new(big.Int)
}

func rawText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return trimmed, nil
}

func hasCode(bytecode string) bool {
	code := strings.TrimPrefix(strings.TrimPrefix(bytecode, "0x"), "0X")
	return code != ""
}
