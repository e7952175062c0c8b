// Package exiftool wraps the exiftool CLI for embedding capture metadata into
// JPEG and MP4 files.
package exiftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"gamesync/internal/media"
	"gamesync/internal/services"
)

// Tagger defines the behaviour required by the normalizer for exiftool-backed
// containers.
type Tagger interface {
	TagImage(ctx context.Context, path string, tags media.Tags) error
	TagMP4(ctx context.Context, path string, tags media.Tags) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stderr string, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps exiftool CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

var _ Tagger = (*Client)(nil)

// New constructs an exiftool client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// exiftool rewrites files in place; -overwrite_original suppresses the
// "_original" backup so re-tagging the same staged copy stays idempotent.
const overwriteFlag = "-overwrite_original"

// TagImage embeds EXIF dates, device make/model, and the game title into a
// JPEG in place.
func (c *Client) TagImage(ctx context.Context, path string, tags media.Tags) error {
	stamp := tags.CapturedAt.Format("2006:01:02 15:04:05")
	args := []string{
		overwriteFlag,
		"-DateTime=" + stamp,
		"-DateTimeOriginal=" + stamp,
		"-DateTimeDigitized=" + stamp,
		"-Make=" + tags.Device.Make,
		"-Model=" + tags.Device.Model,
	}
	if title := tags.TitleOrEmpty(); title != "" {
		args = append(args, "-ImageDescription="+title)
	}
	args = append(args, path)
	return c.run(ctx, "tag image", args)
}

// TagMP4 embeds QuickTime dates, device make/model, and the game title into an
// MP4 in place.
func (c *Client) TagMP4(ctx context.Context, path string, tags media.Tags) error {
	stamp := tags.CapturedAt.UTC().Format("2006-01-02T15:04:05Z")
	args := []string{
		overwriteFlag,
		"-CreateDate=" + stamp,
		"-ModifyDate=" + stamp,
		"-MediaCreateDate=" + stamp,
		"-MediaModifyDate=" + stamp,
		"-Make=" + tags.Device.Make,
		"-Model=" + tags.Device.Model,
		"-CameraModelName=" + tags.Device.Model,
	}
	if title := tags.TitleOrEmpty(); title != "" {
		args = append(args,
			"-Description="+title,
			"-Title="+title,
			"-Comment="+title,
		)
	}
	args = append(args, path)
	return c.run(ctx, "tag mp4", args)
}

func (c *Client) run(ctx context.Context, operation string, args []string) error {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stderr, err := c.exec.Run(runCtx, c.binary, args)
	if err == nil {
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return services.Wrap(services.ErrTimeout, "exiftool", operation, "invocation exceeded timeout", err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return services.Wrap(services.ErrEmbedToolUnavailable, "exiftool", operation, "binary not found", err)
	}
	message := "invocation failed"
	if detail := strings.TrimSpace(stderr); detail != "" {
		message = fmt.Sprintf("invocation failed: %s", firstLine(detail))
	}
	return services.Wrap(services.ErrEmbedTool, "exiftool", operation, message, err)
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}
