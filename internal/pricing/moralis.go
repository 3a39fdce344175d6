package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultMoralisURL = "https://deep-index.moralis.io/api/v2.2"

// MoralisClient talks to the Moralis EVM API for token prices and
// date-to-block resolution.
type MoralisClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewMoralisClient creates a Moralis API client. An empty baseURL selects
// the public endpoint.
func NewMoralisClient(baseURL, apiKey string) *MoralisClient {
	if baseURL == "" {
		baseURL = defaultMoralisURL
	}
	return &MoralisClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TokenPrice returns the USD unit price for an ERC20 contract.
func (c *MoralisClient) TokenPrice(ctx context.Context, contractAddress string) (float64, error) {
	endpoint := fmt.Sprintf("%s/erc20/%s/price?chain=eth", c.baseURL, contractAddress)

	var out struct {
		USDPrice float64 `json:"usdPrice"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return 0, fmt.Errorf("token price %s: %w", contractAddress, err)
	}
	return out.USDPrice, nil
}

// BlockForDate returns the block number nearest to the given time.
func (c *MoralisClient) BlockForDate(ctx context.Context, date time.Time) (uint64, error) {
	endpoint := fmt.Sprintf("%s/dateToBlock?chain=eth&date=%s",
		c.baseURL, url.QueryEscape(date.UTC().Format(time.RFC3339)))

	var out struct {
		Block uint64 `json:"block"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return 0, fmt.Errorf("block for date %s: %w", date.UTC().Format(time.RFC3339), err)
	}
	return out.Block, nil
}

func (c *MoralisClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
