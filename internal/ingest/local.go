package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// LocalSource queries a local full-array backend: one request returns every
// row from startblock onward, with no page cursor of its own.
type LocalSource struct {
	BaseURL        string
	Token          string
	AddressFilter  string
	HTTPClient     *http.Client
}

// NewLocalSource constructs a LocalSource with sane HTTP defaults.
func NewLocalSource(baseURL, token, addressFilter string) *LocalSource {
	return &LocalSource{
		BaseURL:       baseURL,
		Token:         token,
		AddressFilter: addressFilter,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *LocalSource) Paginated() bool { return false }

type localResponse struct {
	Result []TransferRow `json:"result"`
}

// FetchPage ignores page and returns the full array from startBlock onward;
// callers must treat any non-empty result as the complete page and stop.
func (s *LocalSource) FetchPage(ctx context.Context, startBlock int64, page int) ([]TransferRow, int64, error) {
	if page > 1 {
		return nil, 0, nil
	}

	q := url.Values{}
	q.Set("startblock", strconv.FormatInt(startBlock, 10))
	if s.AddressFilter != "" {
		q.Set("address", s.AddressFilter)
	}
	if s.Token != "" {
		q.Set("token", s.Token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("local source: build request: %w", err)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("local source: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("local source: unexpected status %d", resp.StatusCode)
	}

	var out localResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("local source: decode response: %w", err)
	}

	return fillMissingFromCalldata(out.Result), 0, nil
}
