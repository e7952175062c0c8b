// Package pipeline coordinates discovery output through normalization,
// deduplication, and upload.
//
// Items flow through a bounded worker pool. The sync ledger is the only
// shared mutable state; an in-run claim map guarantees a fingerprint
// discovered twice in one batch produces exactly one ledger entry. The ledger
// is written only after the server confirms an upload.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"gamesync/internal/config"
	"gamesync/internal/fingerprint"
	"gamesync/internal/ledger"
	"gamesync/internal/logging"
	"gamesync/internal/media"
	"gamesync/internal/normalize"
	"gamesync/internal/organizer"
	"gamesync/internal/services"
	"gamesync/internal/services/immich"
)

// Options control one run.
type Options struct {
	// UploadEnabled gates the remote upload stage. When false the run
	// stops after embedding and never writes the ledger.
	UploadEnabled bool

	// Progress, when set, is called once after each item finishes,
	// whatever the outcome. Calls may come from any worker.
	Progress func()
}

// Orchestrator drives items from discovery to confirmed upload.
type Orchestrator struct {
	cfg        *config.Config
	store      *ledger.Store
	normalizer *normalize.Normalizer
	organizer  *organizer.Organizer
	uploader   immich.Uploader
	logger     *slog.Logger
}

// New constructs an orchestrator. uploader may be nil when uploads are
// disabled for every run.
func New(cfg *config.Config, store *ledger.Store, n *normalize.Normalizer, org *organizer.Organizer, uploader immich.Uploader, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		normalizer: n,
		organizer:  org,
		uploader:   uploader,
		logger:     logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// Run processes a batch of discovered items with bounded parallelism.
// Per-item failures are folded into the result; Run itself only fails through
// the context.
func (o *Orchestrator) Run(ctx context.Context, items []media.RawItem, opts Options) BatchResult {
	result := BatchResult{}
	if len(items) == 0 {
		return result
	}

	runCtx := services.WithRunID(ctx, uuid.NewString())
	workers := o.cfg.Sync.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	claims := newClaimSet()
	jobs := make(chan media.RawItem)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range jobs {
				outcome := o.processItem(runCtx, raw, opts, claims)
				mu.Lock()
				result.merge(outcome)
				mu.Unlock()
				if opts.Progress != nil {
					opts.Progress()
				}
			}
		}()
	}

	// Cancellation stops dequeuing; in-flight items run to completion or
	// hit their own timeouts.
dispatch:
	for _, raw := range items {
		select {
		case jobs <- raw:
		case <-runCtx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	return result
}

func (o *Orchestrator) processItem(ctx context.Context, raw media.RawItem, opts Options, claims *claimSet) BatchResult {
	itemCtx := services.WithPlatform(ctx, string(raw.Platform))
	logger := logging.WithContext(itemCtx, o.logger)

	item, err := o.normalizer.Normalize(services.WithStage(itemCtx, "normalize"), raw)
	if err != nil {
		logger.Warn("normalization failed",
			logging.String("source", raw.SourcePath), logging.Error(err))
		return BatchResult{Failed: []Failure{failureFor(raw, err)}}
	}

	fp, err := fingerprint.File(item.ContentPath())
	if err != nil {
		wrapped := services.Wrap(services.ErrFingerprint, "pipeline", "fingerprint", "hash content", err)
		return BatchResult{Failed: []Failure{failureFor(raw, wrapped)}}
	}
	item.Fingerprint = fp
	itemCtx = services.WithFingerprint(itemCtx, fp)
	logger = logging.WithContext(itemCtx, o.logger)

	// Ledger hits and in-run duplicates skip regardless of the upload
	// switch; only the ledger write itself is gated on upload.
	known, err := o.store.Contains(itemCtx, fp)
	if err != nil {
		wrapped := services.Wrap(services.ErrLedgerWrite, "pipeline", "dedup", "query ledger", err)
		return BatchResult{Failed: []Failure{failureFor(raw, wrapped)}}
	}
	if known {
		logger.Debug("skipping previously synced capture",
			logging.String("source", raw.SourcePath))
		o.discardStagedClip(item)
		return BatchResult{Skipped: 1}
	}
	if !claims.claim(fp) {
		// Another worker in this run owns identical content.
		logger.Debug("skipping in-run duplicate",
			logging.String("source", raw.SourcePath))
		o.discardStagedClip(item)
		return BatchResult{Skipped: 1}
	}

	size := fileSize(item.ContentPath())

	if err := o.normalizer.Embed(services.WithStage(itemCtx, "embed"), item); err != nil {
		logger.Warn("embedding failed",
			logging.String("source", raw.SourcePath), logging.Error(err))
		claims.release(fp)
		return BatchResult{Failed: []Failure{failureFor(raw, err)}}
	}

	if o.cfg.Paths.OutputDir != "" {
		if _, err := o.organizer.Place(item); err != nil {
			wrapped := services.Wrap(services.ErrEmbedTool, "pipeline", "organize", "place into library", err)
			claims.release(fp)
			return BatchResult{Failed: []Failure{failureFor(raw, wrapped)}}
		}
	}

	if !opts.UploadEnabled {
		logger.Info("embedded capture without upload",
			logging.String("final_file", filepath.Base(item.StagedPath)))
		return BatchResult{Succeeded: 1, Bytes: size}
	}

	uploadResult, err := o.upload(services.WithStage(itemCtx, "upload"), item)
	if err != nil {
		logger.Warn("upload failed",
			logging.String("source", raw.SourcePath), logging.Error(err))
		claims.release(item.Fingerprint)
		return BatchResult{Failed: []Failure{failureFor(raw, err)}}
	}

	entry := ledger.Entry{
		Fingerprint:   item.Fingerprint,
		Platform:      string(item.Platform),
		SourcePath:    item.SourcePath,
		RemoteAssetID: uploadResult.AssetID,
		UploadedAt:    time.Now(),
	}
	if err := o.store.Record(itemCtx, entry); err != nil {
		wrapped := services.Wrap(services.ErrLedgerWrite, "pipeline", "record", "persist ledger entry", err)
		logger.Error("ledger write failed", logging.Error(wrapped))
		claims.release(fp)
		return BatchResult{Failed: []Failure{failureFor(raw, wrapped)}}
	}

	item.State = media.StateUploaded
	o.cleanupStaging(item)

	if uploadResult.Duplicate {
		logger.Info("server already held capture",
			logging.String("source", raw.SourcePath))
		return BatchResult{Skipped: 1, Duplicates: 1}
	}
	logger.Info("uploaded capture",
		logging.String("source", raw.SourcePath),
		logging.String("asset_id", uploadResult.AssetID))
	return BatchResult{Succeeded: 1, Uploaded: 1, Bytes: size}
}

// upload sends the item, retrying once after a backoff for transient
// failures. Permanent failures are surfaced immediately.
func (o *Orchestrator) upload(ctx context.Context, item *media.MediaItem) (*immich.UploadResult, error) {
	req := immich.UploadRequest{
		Path:       item.StagedPath,
		Device:     media.Device(item.Platform),
		CapturedAt: item.CapturedAt,
		Favorite:   o.cfg.Immich.Favorite,
		Visibility: o.cfg.Immich.Visibility,
	}

	result, err := o.uploader.Upload(ctx, req)
	if err == nil || !services.Retryable(err) {
		return result, err
	}

	backoff := time.Duration(o.cfg.Sync.RetryBackoff) * time.Second
	logger := logging.WithContext(ctx, o.logger)
	logger.Warn("transient upload failure, retrying",
		logging.Duration("backoff", backoff), logging.Error(err))
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrUploadTransient, "pipeline", "upload", "cancelled during backoff", ctx.Err())
	}
	return o.uploader.Upload(ctx, req)
}

// cleanupStaging removes staged copies that were not organized into a library.
func (o *Orchestrator) cleanupStaging(item *media.MediaItem) {
	if o.cfg.Paths.OutputDir != "" {
		return
	}
	if item.StagedPath == "" || item.StagedPath == item.SourcePath {
		return
	}
	_ = os.Remove(item.StagedPath)
	_ = os.Remove(filepath.Dir(item.StagedPath))
}

// discardStagedClip drops an assembled clip that will not be uploaded.
func (o *Orchestrator) discardStagedClip(item *media.MediaItem) {
	if item.Kind != media.KindClip || item.StagedPath == "" {
		return
	}
	_ = os.Remove(item.StagedPath)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

type claimSet struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

func newClaimSet() *claimSet {
	return &claimSet{claims: make(map[string]struct{})}
}

// claim reserves a fingerprint for the calling worker. Returns false when
// another worker already holds it.
func (c *claimSet) claim(fp string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.claims[fp]; held {
		return false
	}
	c.claims[fp] = struct{}{}
	return true
}

// release frees a claim after a post-claim failure so a later identical item
// can still try.
func (c *claimSet) release(fp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claims, fp)
}
