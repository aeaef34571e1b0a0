package commands

import (
	"encoding/json"
	"fmt"

	"vaultdrop/withdrawal"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Count request files per queue folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plugin, sync, err := newPlugin()
			if err != nil {
				return err
			}
			defer sync()

			cfg, err := withdrawal.LoadConfig(plugin)
			if err != nil {
				return err
			}
			counts := withdrawal.CountQueues(cfg)

			out := cmd.OutOrStdout()
			if jsonOutput {
				return json.NewEncoder(out).Encode(counts)
			}
			fmt.Fprintf(out, "inbox:     %d (%s)\n", counts.Inbox, cfg.InboxPath())
			fmt.Fprintf(out, "processed: %d (%s)\n", counts.Processed, cfg.ProcessedPath())
			fmt.Fprintf(out, "error:     %d (%s)\n", counts.Error, cfg.ErrorPath())
			return nil
		},
	}
	return cmd
}
