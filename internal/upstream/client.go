package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"reportanalysis/internal/domain"
)

const (
	SalesPath     = "/api/pos/saless"
	InventoryPath = "/api/inventory"

	maxBodyBytes = 32 << 20
)

// HTTPError is returned for non-2xx upstream responses.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.StatusCode)
}

type jsonClient struct {
	baseURL string
	http    *http.Client
}

func newJSONClient(baseURL string, client *http.Client) jsonClient {
	if client == nil {
		client = &http.Client{}
	}
	return jsonClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

func (c jsonClient) getJSON(ctx context.Context, path string, dst any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

type POSClient struct {
	jsonClient
}

func NewPOSClient(baseURL string, client *http.Client) *POSClient {
	return &POSClient{jsonClient: newJSONClient(baseURL, client)}
}

func (c *POSClient) ListSales(ctx context.Context) ([]domain.SaleTransaction, error) {
	var sales []domain.SaleTransaction
	if err := c.getJSON(ctx, SalesPath, &sales); err != nil {
		return nil, err
	}
	for i := range sales {
		if sales[i].Items == nil {
			sales[i].Items = []domain.SaleLineItem{}
		}
	}
	return sales, nil
}

type InventoryClient struct {
	jsonClient
}

func NewInventoryClient(baseURL string, client *http.Client) *InventoryClient {
	return &InventoryClient{jsonClient: newJSONClient(baseURL, client)}
}

func (c *InventoryClient) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	if err := c.getJSON(ctx, InventoryPath, &items); err != nil {
		return nil, err
	}
	return items, nil
}
