// Package gametitle resolves Steam app ids to human-readable game names.
//
// Resolution order: persistent cache, the public Steam store API, then the
// SteamDB app page as an HTML fallback. Resolution is best effort; an
// unresolved id leaves the title hint absent rather than failing the item.
package gametitle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultStoreBaseURL   = "https://store.steampowered.com"
	defaultSteamDBBaseURL = "https://steamdb.info"
)

// Resolver maps Steam app ids to game names.
type Resolver interface {
	Resolve(ctx context.Context, appID int) (string, bool)
}

// Client resolves titles against the Steam store API with a SteamDB fallback
// and a persistent JSON cache.
type Client struct {
	storeBaseURL   string
	steamDBBaseURL string
	httpClient     *http.Client
	cachePath      string

	mu     sync.Mutex
	cache  map[string]string
	loaded bool
}

var _ Resolver = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithStoreBaseURL overrides the Steam store endpoint.
func WithStoreBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.storeBaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithSteamDBBaseURL overrides the SteamDB endpoint.
func WithSteamDBBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.steamDBBaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// New creates a title resolver. cachePath may be empty to disable the
// persistent cache.
func New(cachePath string, opts ...Option) *Client {
	client := &Client{
		storeBaseURL:   defaultStoreBaseURL,
		steamDBBaseURL: defaultSteamDBBaseURL,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		cachePath:      cachePath,
		cache:          make(map[string]string),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Resolve returns the game name for an app id. The second return is false when
// no source could name the game.
func (c *Client) Resolve(ctx context.Context, appID int) (string, bool) {
	if appID <= 0 {
		return "", false
	}
	key := strconv.Itoa(appID)

	if name, ok := c.cachedName(key); ok {
		return name, true
	}

	name, err := c.fromStoreAPI(ctx, appID)
	if err != nil || name == "" {
		name, _ = c.fromSteamDB(ctx, appID)
	}
	if name == "" {
		return "", false
	}
	c.storeName(key, name)
	return name, true
}

// appdetails payload: {"<appid>": {"success": bool, "data": {"name": string}}}
type storeEntry struct {
	Success bool `json:"success"`
	Data    struct {
		Name string `json:"name"`
	} `json:"data"`
}

func (c *Client) fromStoreAPI(ctx context.Context, appID int) (string, error) {
	endpoint, err := url.Parse(c.storeBaseURL + "/api/appdetails")
	if err != nil {
		return "", fmt.Errorf("parse store url: %w", err)
	}
	params := url.Values{}
	params.Set("appids", strconv.Itoa(appID))
	params.Set("cc", "us")
	params.Set("l", "en")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("store api returned %d", resp.StatusCode)
	}

	var payload map[string]storeEntry
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode store response: %w", err)
	}
	entry, ok := payload[strconv.Itoa(appID)]
	if !ok || !entry.Success {
		return "", nil
	}
	return strings.TrimSpace(entry.Data.Name), nil
}

func (c *Client) fromSteamDB(ctx context.Context, appID int) (string, error) {
	pageURL := fmt.Sprintf("%s/app/%d/", c.steamDBBaseURL, appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("steamdb returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse steamdb page: %w", err)
	}

	candidates := []string{
		doc.Find("title").First().Text(),
		doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
		doc.Find(`meta[name="twitter:title"]`).AttrOr("content", ""),
		doc.Find("h1").First().Text(),
	}
	for _, candidate := range candidates {
		if cleaned := cleanPageTitle(candidate); cleaned != "" {
			return cleaned, nil
		}
	}
	return "", nil
}

// cleanPageTitle strips SteamDB page chrome from a scraped title candidate.
func cleanPageTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if idx := strings.Index(text, "·"); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	for _, marker := range []string{"- SteamDB", "AppID:", "on SteamDB"} {
		if idx := strings.Index(text, marker); idx > 0 {
			text = strings.TrimSpace(text[:idx])
		}
	}
	return text
}

func (c *Client) cachedName(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadCacheLocked()
	name, ok := c.cache[key]
	return name, ok && name != ""
}

func (c *Client) storeName(key, name string) {
	if c.cachePath == "" {
		c.mu.Lock()
		c.cache[key] = name
		c.mu.Unlock()
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache[key] == name {
		return
	}
	c.cache[key] = name
	c.saveCacheLocked()
}

func (c *Client) loadCacheLocked() {
	if c.loaded || c.cachePath == "" {
		c.loaded = true
		return
	}
	c.loaded = true
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return
	}
	var stored map[string]string
	if err := json.Unmarshal(data, &stored); err != nil {
		return
	}
	for key, value := range stored {
		if value != "" {
			c.cache[key] = value
		}
	}
}

func (c *Client) saveCacheLocked() {
	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return
	}
	tmpPath := c.cachePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmpPath, c.cachePath)
}
