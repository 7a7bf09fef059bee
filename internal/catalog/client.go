package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FeedItem is one entry of the external catalog. Only Title, Price and
// Description are imported.
type FeedItem struct {
	Title       string          `json:"title"`
	Price       float64         `json:"price"`
	Description string          `json:"description"`
	CategoryID  int             `json:"categoryId"`
	Images      json.RawMessage `json:"images"`
}

var (
	ErrFeedUnavailable = errors.New("catalog feed unavailable")
	ErrFeedBadStatus   = errors.New("catalog feed bad status")
	ErrFeedDecode      = errors.New("catalog feed decode")
)

// FeedClient fetches the external item list. It sets no timeout and does not retry.
type FeedClient struct {
	URL    string
	Client *http.Client
}

func NewFeedClient(url string) *FeedClient {
	return &FeedClient{
		URL:    strings.TrimSpace(url),
		Client: &http.Client{},
	}
}

func (c *FeedClient) Fetch(ctx context.Context) ([]FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrFeedBadStatus, resp.StatusCode)
	}

	var items []FeedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedDecode, err)
	}
	return items, nil
}
