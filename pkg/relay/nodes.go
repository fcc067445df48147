package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"addrview/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoNodes is returned when the relay has no RPC URLs to talk to.
var ErrNoNodes = errors.New("no rpc urls configured")

// DefaultCallTimeout bounds one attempt against one node.
const DefaultCallTimeout = 15 * time.Second

// SummaryReply is the summary endpoint's response body. Only requested
// options are filled in.
type SummaryReply struct {
	Balance         string  `json:"balance,omitempty"`
	Count           *uint64 `json:"count,omitempty"`
	Bytecode        string  `json:"bytecode,omitempty"`
	ChecksummedAddr string  `json:"checksummedAddr,omitempty"`
	IsContract      bool    `json:"isContract"`
}

// Nodes is an ordered list of upstream JSON-RPC nodes. Each call tries them
// in order and returns the first success.
type Nodes struct {
	urls    []string
	timeout time.Duration
	metrics *Metrics
	logger  zerolog.Logger
}

// NewNodes builds the node list. A zero timeout uses DefaultCallTimeout.
func NewNodes(urls []string, timeout time.Duration, metrics *Metrics, logger zerolog.Logger) *Nodes {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Nodes{urls: urls, timeout: timeout, metrics: metrics, logger: logger}
}

// Summary fetches the requested summary fields for addr. Empty options
// means all of them.
func (n *Nodes) Summary(ctx context.Context, addr common.Address, options []string) (SummaryReply, error) {
	want := optionSet(options)
	var reply SummaryReply
	err := n.withClient(ctx, func(ctx context.Context, client *ethclient.Client) error {
		r, err := fetchSummary(ctx, client, addr, want)
		if err != nil {
			return err
		}
		reply = r
		return nil
	})
	return reply, err
}

func fetchSummary(ctx context.Context, client *ethclient.Client, addr common.Address, want map[string]bool) (SummaryReply, error) {
	var (
		balance *big.Int
		nonce   uint64
		code    []byte
	)
	eg, fetchCtx := errgroup.WithContext(ctx)

	if want["balance"] {
		eg.Go(func() error {
			b, err := client.BalanceAt(fetchCtx, addr, nil)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			balance = b
			return nil
		})
	}
	if want["count"] {
		eg.Go(func() error {
			c, err := client.NonceAt(fetchCtx, addr, nil)
			if err != nil {
				return fmt.Errorf("count: %w", err)
			}
			nonce = c
			return nil
		})
	}
	// Code is always needed for isContract.
	eg.Go(func() error {
		c, err := client.CodeAt(fetchCtx, addr, nil)
		if err != nil {
			return fmt.Errorf("bytecode: %w", err)
		}
		code = c
		return nil
	})

	if err := eg.Wait(); err != nil {
		return SummaryReply{}, err
	}

	reply := SummaryReply{IsContract: len(code) > 0}
	if balance != nil {
		reply.Balance = balance.String()
	}
	if want["count"] {
		reply.Count = &nonce
	}
	if want["bytecode"] {
		reply.Bytecode = hexutil.Encode(code)
	}
	if want["checksummedAddr"] {
		reply.ChecksummedAddr = addr.Hex()
	}
	return reply, nil
}

type traceKey struct {
	BlockNumber     uint64 `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
	TraceAddress    []int  `json:"traceAddress"`
}

// Traces returns the traces sent from or to addr, ordered by block and
// de-duplicated. Nodes must expose trace_filter.
func (n *Nodes) Traces(ctx context.Context, addr common.Address) ([]json.RawMessage, error) {
	var from, to []json.RawMessage
	err := n.withClient(ctx, func(ctx context.Context, client *ethclient.Client) error {
		eg, fetchCtx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			var err error
			from, err = traceFilter(fetchCtx, client, "fromAddress", addr)
			return err
		})
		eg.Go(func() error {
			var err error
			to, err = traceFilter(fetchCtx, client, "toAddress", addr)
			return err
		})
		return eg.Wait()
	})
	if err != nil {
		return nil, err
	}
	return mergeTraces(from, to)
}

func traceFilter(ctx context.Context, client *ethclient.Client, field string, addr common.Address) ([]json.RawMessage, error) {
	filter := map[string]interface{}{
		"fromBlock": "earliest",
		"toBlock":   "latest",
		field:       []string{addr.Hex()},
	}
	var out []json.RawMessage
	if err := client.Client().CallContext(ctx, &out, "trace_filter", filter); err != nil {
		return nil, fmt.Errorf("trace_filter %s: %w", field, err)
	}
	return out, nil
}

func mergeTraces(lists ...[]json.RawMessage) ([]json.RawMessage, error) {
	type entry struct {
		key traceKey
		raw json.RawMessage
	}
	seen := make(map[string]bool)
	var entries []entry
	for _, list := range lists {
		for _, raw := range list {
			var k traceKey
			if err := json.Unmarshal(raw, &k); err != nil {
				return nil, fmt.Errorf("decode trace: %w", err)
			}
			id := fmt.Sprintf("%s/%v", k.TransactionHash, k.TraceAddress)
			if seen[id] {
				continue
			}
			seen[id] = true
			entries = append(entries, entry{key: k, raw: raw})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key.BlockNumber < entries[j].key.BlockNumber
	})
	out := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		out[i] = e.raw
	}
	return out, nil
}

func (n *Nodes) withClient(ctx context.Context, fn func(context.Context, *ethclient.Client) error) error {
	if len(n.urls) == 0 {
		return ErrNoNodes
	}
	var lastErr error
	for _, rpcURL := range n.urls {
		callCtx, cancel := context.WithTimeout(ctx, n.timeout)
		client, err := ethclient.DialContext(callCtx, rpcURL)
		if err != nil {
			cancel()
			n.recordFailure(rpcURL, err)
			lastErr = err
			continue
		}
		err = fn(callCtx, client)
		client.Close()
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n.recordFailure(rpcURL, err)
		lastErr = err
	}
	return fmt.Errorf("all rpc urls failed: %w", lastErr)
}

func (n *Nodes) recordFailure(rpcURL string, err error) {
	n.logger.Warn().Err(err).Str("node", rpcURL).Msg("rpc call failed, trying next node")
	if n.metrics != nil {
		n.metrics.NodeFailures.WithLabelValues(rpcURL).Inc()
	}
}

// ProbeChain asks every URL for its chain ID and flags disagreement.
func ProbeChain(ctx context.Context, urls []string) models.ChainResult {
	var (
		result   models.ChainResult
		observed *big.Int
	)
	for _, rpcURL := range urls {
		r := models.RPCResult{URL: rpcURL}
		client, err := ethclient.DialContext(ctx, rpcURL)
		if err != nil {
			r.Status = "error"
			r.Error = err.Error()
			result.RPCs = append(result.RPCs, r)
			continue
		}
		id, err := client.ChainID(ctx)
		client.Close()
		if err != nil {
			r.Status = "error"
			r.Error = fmt.Sprintf("Failed to get ChainID: %v", err)
			result.RPCs = append(result.RPCs, r)
			continue
		}
		r.Status = "ok"
		r.ChainID = id.Int64()
		if observed == nil {
			observed = id
			result.ObservedChainID = id.Int64()
		} else if observed.Cmp(id) != 0 {
			r.Error = fmt.Sprintf("ChainID mismatch with previous RPC (%s)", observed)
			result.Inconsistent = true
		}
		result.RPCs = append(result.RPCs, r)
	}
	return result
}

func optionSet(options []string) map[string]bool {
	all := []string{"balance", "count", "bytecode", "checksummedAddr"}
	if len(options) == 0 {
		options = all
	}
	set := make(map[string]bool, len(options))
	for _, o := range options {
		set[o] = true
	}
	return set
}
