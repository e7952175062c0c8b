// Package ffmpeg wraps the ffmpeg CLI for WebM/MOV metadata tagging and for
// assembling Steam clip recordings into playable MP4 files.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gamesync/internal/media"
	"gamesync/internal/services"
)

// Tagger defines the behaviour required by the normalizer for ffmpeg-backed
// containers.
type Tagger interface {
	Tag(ctx context.Context, source, dest string, tags media.Tags) error
}

// Assembler turns a DASH capture folder into a single MP4.
type Assembler interface {
	AssembleClip(ctx context.Context, manifestPath, dest string) error
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

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary       string
	tagTimeout   time.Duration
	remuxTimeout time.Duration
	exec         Executor
}

var (
	_ Tagger    = (*Client)(nil)
	_ Assembler = (*Client)(nil)
)

// New constructs an ffmpeg client.
func New(binary string, tagTimeoutSeconds, remuxTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:       binary,
		tagTimeout:   time.Duration(tagTimeoutSeconds) * time.Second,
		remuxTimeout: time.Duration(remuxTimeoutSeconds) * time.Second,
		exec:         commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Tag stream-copies source to dest while writing container metadata. Used for
// WebM and MOV, where exiftool write support is limited.
func (c *Client) Tag(ctx context.Context, source, dest string, tags media.Tags) error {
	stamp := tags.CapturedAt.Format(time.RFC3339)
	args := []string{
		"-y",
		"-i", source,
		"-c", "copy",
		"-metadata", "creation_time=" + stamp,
		"-metadata", "date=" + stamp,
		"-metadata", "make=" + tags.Device.Make,
		"-metadata", "model=" + tags.Device.Model,
		"-metadata", "manufacturer=" + tags.Device.Make,
	}
	if title := tags.TitleOrEmpty(); title != "" {
		args = append(args,
			"-metadata", "title="+title,
			"-metadata", "comment="+title,
			"-metadata", "description="+title,
		)
	}
	args = append(args, dest)
	return c.run(ctx, "tag video", c.tagTimeout, args)
}

// AssembleClip concatenates the DASH segments referenced by a Steam clip
// manifest and remuxes them into a single MP4 at dest without re-encoding.
func (c *Client) AssembleClip(ctx context.Context, manifestPath, dest string) error {
	segmentDir := filepath.Dir(manifestPath)
	video, audio, err := collectSegments(segmentDir)
	if err != nil {
		return services.Wrap(services.ErrEmbedTool, "ffmpeg", "assemble clip", "collect segments", err)
	}
	if len(video) == 0 {
		return services.Wrap(services.ErrEmbedTool, "ffmpeg", "assemble clip", "no video segments in "+segmentDir, nil)
	}

	workDir, err := os.MkdirTemp("", "gamesync-clip-")
	if err != nil {
		return services.Wrap(services.ErrEmbedTool, "ffmpeg", "assemble clip", "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	videoTrack := filepath.Join(workDir, "video.mp4")
	if err := concatSegments(video, videoTrack); err != nil {
		return services.Wrap(services.ErrEmbedTool, "ffmpeg", "assemble clip", "concatenate video segments", err)
	}

	args := []string{"-y", "-i", videoTrack}
	if len(audio) > 0 {
		audioTrack := filepath.Join(workDir, "audio.mp4")
		if err := concatSegments(audio, audioTrack); err != nil {
			return services.Wrap(services.ErrEmbedTool, "ffmpeg", "assemble clip", "concatenate audio segments", err)
		}
		args = append(args, "-i", audioTrack)
	}
	args = append(args,
		"-c", "copy",
		"-analyzeduration", "100M",
		"-probesize", "50M",
		dest,
	)
	return c.run(ctx, "assemble clip", c.remuxTimeout, args)
}

// collectSegments finds the init and chunk segments for the video (stream0)
// and audio (stream1) tracks, ordered init first then chunks by name.
func collectSegments(dir string) (video, audio []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var videoInit, audioInit string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		switch {
		case name == "init-stream0.m4s":
			videoInit = path
		case name == "init-stream1.m4s":
			audioInit = path
		case strings.HasPrefix(name, "chunk-stream0-") && strings.HasSuffix(name, ".m4s"):
			video = append(video, path)
		case strings.HasPrefix(name, "chunk-stream1-") && strings.HasSuffix(name, ".m4s"):
			audio = append(audio, path)
		}
	}
	sort.Strings(video)
	sort.Strings(audio)

	if videoInit != "" {
		video = append([]string{videoInit}, video...)
	}
	if audioInit != "" {
		audio = append([]string{audioInit}, audio...)
	}
	return video, audio, nil
}

func concatSegments(segments []string, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()
	for _, segment := range segments {
		in, openErr := os.Open(segment)
		if openErr != nil {
			return openErr
		}
		_, copyErr := io.Copy(out, in)
		in.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return out.Close()
}

func (c *Client) run(ctx context.Context, operation string, timeout time.Duration, args []string) error {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stderr, err := c.exec.Run(runCtx, c.binary, args)
	if err == nil {
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return services.Wrap(services.ErrTimeout, "ffmpeg", operation, "invocation exceeded timeout", err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return services.Wrap(services.ErrEmbedToolUnavailable, "ffmpeg", operation, "binary not found", err)
	}
	message := "invocation failed"
	if detail := strings.TrimSpace(stderr); detail != "" {
		message = fmt.Sprintf("invocation failed: %s", lastLine(detail))
	}
	return services.Wrap(services.ErrEmbedTool, "ffmpeg", operation, message, err)
}

// ffmpeg reports its failure reason on the final stderr line.
func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
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
