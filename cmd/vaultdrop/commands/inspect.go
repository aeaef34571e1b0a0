package commands

import (
	"encoding/json"
	"fmt"

	"vaultdrop/withdrawal"

	"github.com/spf13/cobra"
)

type inspectedItem struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
	Resolved string `json:"resolved,omitempty"`
}

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Parse a request file and show how its items resolve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plugin, sync, err := newPlugin()
			if err != nil {
				return err
			}
			defer sync()

			req, err := withdrawal.ReadRequestFile(args[0])
			if err != nil {
				return err
			}
			catalog, err := withdrawal.LoadItemCatalog(plugin)
			if err != nil {
				return err
			}

			items := make([]inspectedItem, 0, len(req.Items))
			for _, r := range req.Items {
				item := inspectedItem{ID: r.ID, Name: r.Name, Quantity: r.Quantity}
				if m := withdrawal.ResolveItem(catalog, r); m != nil {
					item.Resolved = m.Name
				}
				items = append(items, item)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"username": req.Username,
					"items":    items,
					"summary":  withdrawal.Summarize(catalog, req.Items),
				})
			}
			fmt.Fprintf(out, "username: %s\n", req.Username)
			for _, item := range items {
				resolved := item.Resolved
				if resolved == "" {
					resolved = "<unresolved>"
				}
				fmt.Fprintf(out, "  %-8s %-20s x%-5d -> %s\n", item.ID, item.Name, item.Quantity, resolved)
			}
			fmt.Fprintf(out, "summary: %s\n", withdrawal.Summarize(catalog, req.Items))
			return nil
		},
	}
	return cmd
}
