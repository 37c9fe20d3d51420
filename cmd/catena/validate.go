package main

import (
	"fmt"

	"github.com/aretw0/catena/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [chain-id...]",
	Short: "Check the catalog for consistency",
	Long: `Loads every chain (or only the given ones), checks its description and resolves all actions
with their parameters. With --watch the catalog is checked again whenever a document changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return cli.RunWatch(cmd.Context(), cfg, cmd.OutOrStdout())
		}

		if err := cli.Validate(cmd.Context(), cfg, args...); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Catalog is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolP("watch", "w", false, "Validate again on every change")
}
