package main

import (
	"os"

	"github.com/aretw0/catena/internal/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the chains of the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.List(cmd.Context(), cfg, os.Stdout)
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <chain-id>",
	Short: "Show a chain and the objects it affects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.Describe(cmd.Context(), cfg, args[0], os.Stdout, jsonMode)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <chain-id>",
	Short: "Print the description rebuilt from the resolved chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return cli.Export(cmd.Context(), cfg, args[0], format, os.Stdout)
	},
}

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <chain-id>",
	Short: "Export the chain visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the steps of a chain.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.Graph(cmd.Context(), cfg, args[0], os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, describeCmd, exportCmd, graphCmd)

	describeCmd.Flags().Bool("json", false, "Print as JSON")
	exportCmd.Flags().StringP("format", "f", "yaml", "Output format: yaml or json")
}
