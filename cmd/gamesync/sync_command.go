package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gamesync/internal/config"
	"gamesync/internal/gametitle"
	"gamesync/internal/ledger"
	"gamesync/internal/logging"
	"gamesync/internal/media"
	"gamesync/internal/normalize"
	"gamesync/internal/organizer"
	"gamesync/internal/pipeline"
	"gamesync/internal/preflight"
	"gamesync/internal/scanner"
	"gamesync/internal/services"
	"gamesync/internal/services/exiftool"
	"gamesync/internal/services/ffmpeg"
	"gamesync/internal/services/immich"
)

type syncFlags struct {
	noUpload bool
	output   string
	source   string
	workers  int
}

func newSyncCommand(cctx *commandContext) *cobra.Command {
	flags := &syncFlags{}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Discover, tag, and upload captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	syncCmd.PersistentFlags().BoolVar(&flags.noUpload, "no-upload", false, "Embed metadata and organize locally without uploading")
	syncCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "", "Override the local library directory")
	syncCmd.PersistentFlags().IntVar(&flags.workers, "workers", 0, "Override the worker count")

	steamCmd := &cobra.Command{
		Use:   "steam",
		Short: "Sync Steam screenshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, cctx, flags, func(cfg *config.Config) []scanner.Scanner {
				return []scanner.Scanner{scanner.NewSteamScreenshots(steamRoot(cfg))}
			})
		},
	}

	steamClipsCmd := &cobra.Command{
		Use:   "steam-clips",
		Short: "Sync Steam game recording clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, cctx, flags, func(cfg *config.Config) []scanner.Scanner {
				return []scanner.Scanner{scanner.NewSteamClips(steamRoot(cfg))}
			})
		},
	}

	ps5Cmd := &cobra.Command{
		Use:   "ps5",
		Short: "Sync PlayStation 5 captures from an exported folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, cctx, flags, func(cfg *config.Config) []scanner.Scanner {
				return []scanner.Scanner{scanner.NewPS5(firstNonEmpty(flags.source, cfg.PS5.SourceDir))}
			})
		},
	}
	ps5Cmd.Flags().StringVarP(&flags.source, "source", "s", "", "Capture folder exported from the console")

	switchCmd := &cobra.Command{
		Use:   "switch",
		Short: "Sync Nintendo Switch 2 captures from an exported folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, cctx, flags, func(cfg *config.Config) []scanner.Scanner {
				return []scanner.Scanner{scanner.NewSwitch2(firstNonEmpty(flags.source, cfg.Switch.SourceDir))}
			})
		},
	}
	switchCmd.Flags().StringVarP(&flags.source, "source", "s", "", "Capture folder exported from the console")

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Sync every configured platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, cctx, flags, func(cfg *config.Config) []scanner.Scanner {
				scanners := []scanner.Scanner{
					scanner.NewSteamScreenshots(steamRoot(cfg)),
					scanner.NewSteamClips(steamRoot(cfg)),
				}
				if cfg.PS5.SourceDir != "" {
					scanners = append(scanners, scanner.NewPS5(cfg.PS5.SourceDir))
				}
				if cfg.Switch.SourceDir != "" {
					scanners = append(scanners, scanner.NewSwitch2(cfg.Switch.SourceDir))
				}
				return scanners
			})
		},
	}

	syncCmd.AddCommand(steamCmd, steamClipsCmd, ps5Cmd, switchCmd, allCmd)
	return syncCmd
}

func runSync(cmd *cobra.Command, cctx *commandContext, flags *syncFlags, build func(*config.Config) []scanner.Scanner) error {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	if flags.output != "" {
		expanded, err := config.ExpandPath(flags.output)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.Paths.OutputDir = expanded
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}
	if flags.workers > 0 {
		cfg.Sync.Workers = flags.workers
	}

	uploadEnabled := !flags.noUpload
	if uploadEnabled {
		if err := cfg.ValidateUpload(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	out := cmd.OutOrStdout()
	checks := preflight.RunAll(ctx, cfg, uploadEnabled)
	if !preflight.Passed(checks) {
		fmt.Fprintln(out, renderPreflight(checks))
		return errors.New("preflight checks failed")
	}

	release, err := pipeline.AcquireRunLock(cfg.Paths.CacheDir)
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			return errors.New("another gamesync run is already in progress")
		}
		return err
	}
	defer release()

	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open sync ledger: %w", err)
	}
	defer store.Close()

	orchestrator, err := buildOrchestrator(cfg, store, logger, uploadEnabled)
	if err != nil {
		return err
	}

	items, scanFailures, scanNotes := scanAll(ctx, build(cfg), logger)
	for _, note := range scanNotes {
		fmt.Fprintln(out, note)
	}
	if len(items) == 0 && len(scanFailures) == 0 {
		fmt.Fprintln(out, "No captures found.")
		return nil
	}

	opts := pipeline.Options{UploadEnabled: uploadEnabled}
	bar := newProgress(len(items))
	if bar != nil {
		opts.Progress = func() { _ = bar.Add(1) }
	}

	result := orchestrator.Run(ctx, items, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	result.Failed = append(result.Failed, scanFailures...)

	fmt.Fprintln(out, renderSummary(&result, uploadEnabled))
	if result.HasFailures() {
		fmt.Fprintln(out, renderFailures(result.Failed))
		return fmt.Errorf("%d of %d items failed", len(result.Failed), result.Total())
	}
	if err := ctx.Err(); err != nil {
		return context.Canceled
	}
	return nil
}

func buildOrchestrator(cfg *config.Config, store *ledger.Store, logger *slog.Logger, uploadEnabled bool) (*pipeline.Orchestrator, error) {
	exif, err := exiftool.New(cfg.ExiftoolBinary(), cfg.Tools.EmbedTimeout)
	if err != nil {
		return nil, fmt.Errorf("configure exiftool: %w", err)
	}
	ff, err := ffmpeg.New(cfg.FFmpegBinary(), cfg.Tools.EmbedTimeout, cfg.Tools.RemuxTimeout)
	if err != nil {
		return nil, fmt.Errorf("configure ffmpeg: %w", err)
	}
	resolver := gametitle.New(cfg.TitleCachePath())
	normalizer := normalize.New(cfg.Paths.StagingDir, resolver, exif, ff)
	org := organizer.New(cfg.Paths.OutputDir, logger)

	var uploader immich.Uploader
	if uploadEnabled {
		client, err := immich.New(cfg.Immich.ServerURL, cfg.Immich.APIKey, cfg.Immich.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("configure immich client: %w", err)
		}
		client.SetDefaults(cfg.Immich.Favorite, cfg.Immich.Visibility)
		uploader = client
	}

	return pipeline.New(cfg, store, normalizer, org, uploader, logger), nil
}

// scanAll runs every scanner, folding per-platform scan errors into failures
// so one broken platform never blocks the others. Absent platforms are
// reported as notes, not failures, and never affect the exit code.
func scanAll(ctx context.Context, scanners []scanner.Scanner, logger *slog.Logger) ([]media.RawItem, []pipeline.Failure, []string) {
	var (
		items    []media.RawItem
		failures []pipeline.Failure
		notes    []string
	)
	for _, s := range scanners {
		found, err := s.Scan(ctx)
		if errors.Is(err, services.ErrPlatformMissing) {
			logger.Warn("platform not found on this host",
				logging.String(logging.FieldPlatform, string(s.Platform())))
			notes = append(notes, fmt.Sprintf("%s: platform not found, skipped", s.Platform()))
			continue
		}
		if err != nil {
			logger.Warn("platform scan failed",
				logging.String(logging.FieldPlatform, string(s.Platform())),
				logging.Error(err))
			failures = append(failures, pipeline.Failure{
				Platform: s.Platform(),
				Kind:     services.Kind(err),
				Err:      err,
			})
			continue
		}
		logger.Info("platform scan complete",
			logging.String(logging.FieldPlatform, string(s.Platform())),
			logging.Int("items", len(found)))
		items = append(items, found...)
	}
	return items, failures, notes
}

func steamRoot(cfg *config.Config) string {
	if cfg.Steam.Root != "" {
		return cfg.Steam.Root
	}
	return scanner.DefaultSteamRoot()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
