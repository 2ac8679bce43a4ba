// File: cmd/groups.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/patchreport/internal/observability"
	"github.com/xkilldash9x/patchreport/internal/reporting"
	"github.com/xkilldash9x/patchreport/internal/source"
)

// newGroupsCmd creates the `groups` command, which lists the computer groups
// a report can be scoped to.
func newGroupsCmd() *cobra.Command {
	groupsCmd := &cobra.Command{
		Use:   "groups",
		Short: "List the computer groups known to the update server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			src, err := source.New(cfg.Source, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("failed to open source: %w", err)
			}
			groups, err := src.ListGroups(ctx)
			if err != nil {
				return fmt.Errorf("failed to list groups: %w", err)
			}
			return reporting.WriteGroupsTable(cmd.OutOrStdout(), groups)
		},
	}

	groupsCmd.Flags().String("server", "", "update server host name")
	groupsCmd.Flags().Int("port", 0, "update server port")
	groupsCmd.Flags().Bool("tls", false, "connect to the update server over HTTPS")
	groupsCmd.Flags().String("snapshot", "", "read groups from a YAML snapshot instead of the server")
	return groupsCmd
}
