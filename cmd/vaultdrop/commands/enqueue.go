package commands

import (
	"encoding/json"
	"fmt"

	"vaultdrop/withdrawal"

	"github.com/spf13/cobra"
)

func newEnqueueCommand() *cobra.Command {
	var (
		username string
		items    []string
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Write a withdrawal request into the inbox",
		Long: `Write a withdrawal request file into the inbox. Each --item is
<id>:<NAME>:<quantity>; the id may carry a data value (35:14) and NAME may be
left empty to resolve the item by id.`,
		Example: `  # Five stone and a red wool block for Steve
  vaultdrop enqueue --user Steve --item 1:STONE:5 --item 35:14:WOOL:1

  # Resolve by id only
  vaultdrop enqueue --user Steve --item 264::3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plugin, sync, err := newPlugin()
			if err != nil {
				return err
			}
			defer sync()

			req, err := withdrawal.NewWithdrawalRequest(username, items)
			if err != nil {
				return err
			}
			cfg, err := withdrawal.LoadConfig(plugin)
			if err != nil {
				return err
			}
			path, err := withdrawal.WriteRequestFile(cfg.InboxPath(), req)
			if err != nil {
				return fmt.Errorf("failed to write request: %w", err)
			}
			plugin.Logger().Debug("Queued %d items for %s", len(req.Items), req.Username)

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"file": path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "recipient player name")
	cmd.Flags().StringArrayVarP(&items, "item", "i", nil, "item as <id>:<NAME>:<quantity>, repeatable")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}
