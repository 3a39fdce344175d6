package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultRaribleURL = "https://ethereum-api.rarible.org/v0.1"

// Sale is one matched sell order for a collection.
type Sale struct {
	BlockNumber uint64
	PriceUSD    *float64
}

// RaribleClient queries marketplace sales activity per collection.
type RaribleClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRaribleClient creates a Rarible activity client. An empty baseURL
// selects the public endpoint.
func NewRaribleClient(baseURL string) *RaribleClient {
	if baseURL == "" {
		baseURL = defaultRaribleURL
	}
	return &RaribleClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type activitySearchRequest struct {
	Type     string   `json:"@type"`
	Contract string   `json:"contract"`
	Types    []string `json:"types"`
}

type activityItem struct {
	BlockNumber uint64   `json:"blockNumber"`
	PriceUSD    *float64 `json:"priceUsd"`
}

// CollectionSales returns the most recent matched sales for a collection,
// newest first.
func (c *RaribleClient) CollectionSales(ctx context.Context, contractAddress string) ([]Sale, error) {
	endpoint := c.baseURL + "/order/activities/search?size=500&sort=LATEST_FIRST"

	payload, err := json.Marshal(activitySearchRequest{
		Type:     "by_collection",
		Contract: contractAddress,
		Types:    []string{"MATCH"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal activity request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("activity search %s: %w", contractAddress, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("activity search %s: unexpected status %d", contractAddress, resp.StatusCode)
	}

	var out struct {
		Items []activityItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode activity response: %w", err)
	}

	sales := make([]Sale, 0, len(out.Items))
	for _, item := range out.Items {
		sales = append(sales, Sale{BlockNumber: item.BlockNumber, PriceUSD: item.PriceUSD})
	}
	return sales, nil
}
