package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EtherscanSource queries a paginated Etherscan-v2-style token-transfer
// endpoint: at most Offset rows per page, page numbers starting at 1.
type EtherscanSource struct {
	BaseURL      string
	APIKey       string
	ContractAddr string
	Offset       int
	HTTPClient   *http.Client
}

// NewEtherscanSource constructs an EtherscanSource. contractAddr is
// validated as a well-formed hex address; an invalid address is rejected
// at construction rather than surfacing as a silent empty page.
func NewEtherscanSource(baseURL, apiKey, contractAddr string, offset int) (*EtherscanSource, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("etherscan source: invalid contract address %q", contractAddr)
	}
	return &EtherscanSource{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		ContractAddr: contractAddr,
		Offset:       offset,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *EtherscanSource) Paginated() bool { return true }

type etherscanResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Result  []TransferRow `json:"result"`
}

// FetchPage fetches one page of up to Offset rows at startBlock onward.
// headBlock is left 0: the Etherscan token-transfer endpoint does not
// report chain head, so the caller falls back to the empty-page SAFE_LAG
// rule using the last observed block instead.
func (s *EtherscanSource) FetchPage(ctx context.Context, startBlock int64, page int) ([]TransferRow, int64, error) {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "tokentx")
	q.Set("contractaddress", s.ContractAddr)
	q.Set("startblock", strconv.FormatInt(startBlock, 10))
	q.Set("page", strconv.Itoa(page))
	q.Set("offset", strconv.Itoa(s.Offset))
	q.Set("sort", "asc")
	q.Set("apikey", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("etherscan source: build request: %w", err)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("etherscan source: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("etherscan source: unexpected status %d", resp.StatusCode)
	}

	var out etherscanResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("etherscan source: decode response: %w", err)
	}

	// "No transactions found" is the documented empty-result sentinel, not
	// an error; every other non-"1" status is treated as upstream failure.
	if out.Status != "1" {
		if out.Message == "No transactions found" {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("etherscan source: %s", out.Message)
	}

	return out.Result, 0, nil
}

type proxyBlockNumberResponse struct {
	Result string `json:"result"`
}

// ChainHead fetches the current chain head via the Etherscan proxy module's
// eth_blockNumber action, the same call the original collector makes to
// compute sync lag (collector.py's _get_chain_head).
func (s *EtherscanSource) ChainHead(ctx context.Context) (int64, error) {
	q := url.Values{}
	q.Set("module", "proxy")
	q.Set("action", "eth_blockNumber")
	q.Set("apikey", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("etherscan source: build head request: %w", err)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("etherscan source: head request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("etherscan source: unexpected head status %d", resp.StatusCode)
	}

	var out proxyBlockNumberResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("etherscan source: decode head response: %w", err)
	}

	head, err := hexutil.DecodeUint64(out.Result)
	if err != nil {
		return 0, fmt.Errorf("etherscan source: invalid head block %q: %w", out.Result, err)
	}
	return int64(head), nil
}
