package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gamesync/internal/preflight"
)

func newDepsCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of the external binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			allAvailable := true
			for _, status := range statuses {
				state := "missing"
				if status.Available {
					state = "ok"
				} else if !status.Optional {
					allAvailable = false
				}
				detail := status.Detail
				if status.Available {
					detail = status.Command
				}
				rows = append(rows, []string{status.Name, state, detail, status.Description})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Dependency", "Status", "Command", "Purpose"}, rows))
			if !allAvailable {
				return errors.New("required binaries are missing")
			}
			return nil
		},
	}
}
