// Package catalogfeed pulls a shop catalog from a remote HTTP feed.
package catalogfeed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/errgroup"

	"fsanano/economy/internal/model"
)

const cacheTTL = 5 * time.Minute

type Config struct {
	APIURL   string
	ClientID string
	APIKey   string
}

type cachedCatalog struct {
	items  []model.Item
	expiry time.Time
}

type Client struct {
	client *http.Client
	config Config

	cacheMu sync.RWMutex
	cache   *cachedCatalog
}

func NewClient(cfg Config) *Client {
	return &Client{
		client: &http.Client{
			Transport: &AuthTransport{
				ClientID: cfg.ClientID,
				APIKey:   cfg.APIKey,
				Base:     http.DefaultTransport,
			},
			Timeout: 10 * time.Second,
		},
		config: cfg,
	}
}

// AuthTransport adds Basic Auth headers
type AuthTransport struct {
	ClientID string
	APIKey   string
	Base     http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	auth := t.ClientID + ":" + t.APIKey
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	return t.Base.RoundTrip(req)
}

// Catalog returns the feed items merged with their stock levels. Items
// without a stock entry are unlimited. Results are cached for five minutes.
func (c *Client) Catalog(ctx context.Context) ([]model.Item, error) {
	c.cacheMu.RLock()
	if c.cache != nil && time.Now().Before(c.cache.expiry) {
		items := c.cache.items
		c.cacheMu.RUnlock()
		return cloneItems(items), nil
	}
	c.cacheMu.RUnlock()

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	// Double check logic
	if c.cache != nil && time.Now().Before(c.cache.expiry) {
		return cloneItems(c.cache.items), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	var rawItems []RawItem
	var rawStock []RawStock

	g.Go(func() error {
		if err := c.get(gctx, "/items", &rawItems); err != nil {
			return fmt.Errorf("failed to fetch items: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := c.get(gctx, "/stock", &rawStock); err != nil {
			return fmt.Errorf("failed to fetch stock: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := merge(rawItems, rawStock)
	c.cache = &cachedCatalog{items: items, expiry: time.Now().Add(cacheTTL)}

	return cloneItems(items), nil
}

// merge keeps the order of the items list. Quantities listed more than once
// for the same name are summed.
func merge(rawItems []RawItem, rawStock []RawStock) []model.Item {
	stock := make(map[string]int64, len(rawStock))
	for _, s := range rawStock {
		stock[s.Name] += s.Quantity
	}

	items := make([]model.Item, 0, len(rawItems))
	for _, raw := range rawItems {
		item := model.Item{
			Name:        raw.Name,
			Description: raw.Description,
			Price:       raw.Price,
		}
		if q, ok := stock[raw.Name]; ok {
			item.Stock = &q
		}
		items = append(items, item)
	}
	return items
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}

	if resp.Header.Get("Content-Encoding") == "br" {
		resp.Body = &readCloserWrapper{Reader: brotli.NewReader(resp.Body), Closer: resp.Body}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr ErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			return &apiErr
		}
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func cloneItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Stock != nil {
			v := *out[i].Stock
			out[i].Stock = &v
		}
	}
	return out
}

type readCloserWrapper struct {
	io.Reader
	io.Closer
}

func (r *readCloserWrapper) Read(p []byte) (n int, err error) {
	return r.Reader.Read(p)
}

func (r *readCloserWrapper) Close() error {
	return r.Closer.Close()
}
