package main

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"gamesync/internal/ledger"
)

func newLedgerCommand(cctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or reset the sync ledger",
	}

	ledgerCmd.AddCommand(newLedgerStatusCommand(cctx))
	ledgerCmd.AddCommand(newLedgerClearCommand(cctx))

	return ledgerCmd
}

func newLedgerStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how many captures have been synced",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open sync ledger: %w", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			total, err := store.Count(ctx)
			if err != nil {
				return fmt.Errorf("count ledger entries: %w", err)
			}
			byPlatform, err := store.CountByPlatform(ctx)
			if err != nil {
				return fmt.Errorf("count ledger entries: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ledger: %s\n", store.Path())
			fmt.Fprintf(out, "Synced captures: %d\n", total)
			if len(byPlatform) == 0 {
				return nil
			}

			platforms := make([]string, 0, len(byPlatform))
			for platform := range byPlatform {
				platforms = append(platforms, platform)
			}
			sort.Strings(platforms)

			rows := make([][]string, 0, len(platforms))
			for _, platform := range platforms {
				rows = append(rows, []string{platform, strconv.Itoa(byPlatform[platform])})
			}
			fmt.Fprintln(out, renderTable([]string{"Platform", "Synced"}, rows, 1))
			return nil
		},
	}
}

func newLedgerClearCommand(cctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every synced capture so the next run re-uploads everything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !force {
				fmt.Fprint(out, "Clear the sync ledger? The next run will re-upload every capture. [y/N] ")
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				if !confirmed(answer) {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open sync ledger: %w", err)
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear ledger: %w", err)
			}
			if removed == 1 {
				fmt.Fprintln(out, "Removed 1 entry.")
			} else {
				fmt.Fprintf(out, "Removed %d entries.\n", removed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Clear without prompting")
	return cmd
}
