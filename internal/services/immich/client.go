// Package immich uploads capture files to an Immich server.
//
// Uploads POST the asset as multipart form data with the account API key and a
// SHA-1 checksum header, letting the server short-circuit duplicates. Failures
// are classified as transient (network, 429, 5xx) or permanent (4xx) so the
// pipeline knows which ones merit a retry.
package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gamesync/internal/fingerprint"
	"gamesync/internal/media"
	"gamesync/internal/services"
)

// HTTPDoer describes the HTTP client used by the Immich service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Uploader defines the upload operation the pipeline depends on.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// UploadRequest describes one asset to send.
type UploadRequest struct {
	Path       string
	Device     media.DeviceInfo
	CapturedAt time.Time
	Favorite   bool
	Visibility string
}

// UploadResult is the server's answer to an upload.
type UploadResult struct {
	AssetID   string
	Duplicate bool
}

// Client talks to an Immich server.
type Client struct {
	baseURL    string
	apiKey     string
	favorite   bool
	visibility string
	httpClient HTTPDoer
}

var _ Uploader = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs an Immich client.
func New(baseURL, apiKey string, timeoutSeconds int, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("immich server url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("immich api key required")
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		visibility: "timeline",
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SetDefaults applies account-level upload preferences.
func (c *Client) SetDefaults(favorite bool, visibility string) {
	c.favorite = favorite
	if visibility = strings.TrimSpace(visibility); visibility != "" {
		c.visibility = visibility
	}
}

// Ping verifies the server is reachable and the API key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/server/ping", nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "immich", "ping", "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "immich", "ping", "server unresponsive", err)
		}
		return services.Wrap(services.ErrUploadTransient, "immich", "ping", "server unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "immich", "ping", "api key rejected", nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return services.Wrap(services.ErrUploadTransient, "immich", "ping", fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}
	return nil
}

// assetResponse models the subset of the Immich upload reply the pipeline
// cares about.
type assetResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Upload sends one asset. The returned result reports whether the server
// already held identical content.
func (c *Client) Upload(ctx context.Context, uploadReq UploadRequest) (*UploadResult, error) {
	info, err := os.Stat(uploadReq.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrUploadPermanent, "immich", "upload", "stat asset", err)
	}

	checksum, err := fingerprint.SHA1File(uploadReq.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrUploadPermanent, "immich", "upload", "checksum asset", err)
	}

	capturedAt := uploadReq.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = info.ModTime()
	}
	visibility := uploadReq.Visibility
	if visibility == "" {
		visibility = c.visibility
	}

	body, contentType, err := c.buildBody(uploadReq, info.ModTime(), capturedAt, visibility)
	if err != nil {
		return nil, services.Wrap(services.ErrUploadPermanent, "immich", "upload", "build request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/assets", body)
	if err != nil {
		return nil, services.Wrap(services.ErrUploadPermanent, "immich", "upload", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-immich-checksum", checksum)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "immich", "upload", "request exceeded timeout", err)
		}
		return nil, services.Wrap(services.ErrUploadTransient, "immich", "upload", "execute request", err)
	}
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if classified := classifyStatus(resp.StatusCode); classified != nil {
		detail := fmt.Sprintf("server returned %d", resp.StatusCode)
		if trimmed := strings.TrimSpace(string(payload)); trimmed != "" {
			detail = fmt.Sprintf("server returned %d: %s", resp.StatusCode, firstLine(trimmed))
		}
		return nil, services.Wrap(classified, "immich", "upload", detail, nil)
	}
	if readErr != nil {
		return nil, services.Wrap(services.ErrUploadTransient, "immich", "upload", "read response", readErr)
	}

	var asset assetResponse
	if err := json.Unmarshal(payload, &asset); err != nil {
		return nil, services.Wrap(services.ErrUploadTransient, "immich", "upload", "decode response", err)
	}
	if asset.Error != "" {
		return nil, services.Wrap(services.ErrUploadPermanent, "immich", "upload", "server error: "+asset.Error, nil)
	}
	return &UploadResult{
		AssetID:   asset.ID,
		Duplicate: strings.EqualFold(asset.Status, "duplicate"),
	}, nil
}

func (c *Client) buildBody(uploadReq UploadRequest, modifiedAt, capturedAt time.Time, visibility string) (io.Reader, string, error) {
	f, err := os.Open(uploadReq.Path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	basename := filepath.Base(uploadReq.Path)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"deviceAssetId":  basename,
		"deviceId":       uploadReq.Device.ID(),
		"fileCreatedAt":  capturedAt.Format(time.RFC3339),
		"fileModifiedAt": modifiedAt.Format(time.RFC3339),
		"filename":       basename,
		"isFavorite":     strconv.FormatBool(uploadReq.Favorite || c.favorite),
		"visibility":     visibility,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	part, err := writer.CreateFormFile("assetData", basename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

// classifyStatus maps an HTTP status to an error sentinel, or nil for success.
// 429 and 5xx are worth a retry; other 4xx are not.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return services.ErrUploadTransient
	case status >= 500:
		return services.ErrUploadTransient
	default:
		return services.ErrUploadPermanent
	}
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}
