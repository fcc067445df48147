package models

import (
	"math/big"
	"time"
)

// AddressSummary is the aggregate state of one address. It is replaced as a
// whole when a new summary arrives; only SignedBlockCount is owned by the
// signed-count fetch.
type AddressSummary struct {
	AddressHash        string
	ChecksummedAddress string
	Balance            *big.Int // wei
	TransactionCount   uint64
	Bytecode           string
	IsContract         bool
	SignedBlockCount   uint64
}

// EmptySummary returns the pre-fetch defaults for an address.
func EmptySummary(hash string) AddressSummary {
	return AddressSummary{
		AddressHash: hash,
		Balance:     new(big.Int),
	}
}

// WithSigned returns a copy of s carrying the given signed-block count.
func (s AddressSummary) WithSigned(signed uint64) AddressSummary {
	s.SignedBlockCount = signed
	return s
}

// DisplayAddress prefers the checksummed form once it is known.
func (s AddressSummary) DisplayAddress() string {
	if s.ChecksummedAddress != "" {
		return s.ChecksummedAddress
	}
	return s.AddressHash
}

// TransactionRow is one row of a paged-transactions response. Cells keeps
// the raw column values in wire order for rendering.
type TransactionRow struct {
	Hash        string
	BlockNumber uint64
	From        string
	To          string
	Value       string
	Key         string
	Timestamp   time.Time
	Cells       []string
}

// InternalTrace is a sub-call made by contract code during a transaction.
type InternalTrace struct {
	Type            string // "call", "create", "suicide", "reward"
	CallType        string // "call", "delegatecall", "staticcall", "callcode"
	From            string
	To              string
	Value           *big.Int
	GasUsed         uint64
	TransactionHash string
	BlockNumber     uint64
	TraceAddress    []int
	Error           string
}

// ContractArtifact is the result of a contract-lookup request. Found is false
// for the service's normal "not found" answer.
type ContractArtifact struct {
	Address         string
	Found           bool
	ContractName    string
	CompilerVersion string
	Optimization    bool
	SourceCode      string
	ABI             string
	Bytecode        string
}

// ChainResult holds check results for the relay's chain.
type ChainResult struct {
	ObservedChainID int64       `json:"observed_chain_id,omitempty"`
	RPCs            []RPCResult `json:"rpcs"`
	Inconsistent    bool        `json:"inconsistent"`
}

// RPCResult holds check results for a specific RPC URL.
type RPCResult struct {
	URL     string `json:"url"`
	Status  string `json:"status"` // "ok" or "error"
	ChainID int64  `json:"chain_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CheckReport holds the results of the configuration check.
type CheckReport struct {
	ConfigPath      string       `json:"config_path"`
	ValidStructure  bool         `json:"valid_structure"`
	StructureErrors []string     `json:"structure_errors,omitempty"`
	AddressCount    int          `json:"address_count"`
	BackendURL      string       `json:"backend_url"`
	Relay           *ChainResult `json:"relay,omitempty"`
}
