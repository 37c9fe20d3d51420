package main

import (
	"github.com/aretw0/catena/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <chain-id>",
	Short: "Execute a chain of the catalog",
	Long: `Executes one chain against the configured backend and prints its result.
Input rows are read from --input (JSON or YAML, "-" for stdin). The transaction is committed
when the chain succeeds and rolled back otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")
		object, _ := cmd.Flags().GetString("object")
		surface, _ := cmd.Flags().GetString("surface")
		jsonMode, _ := cmd.Flags().GetBool("json")
		graphMode, _ := cmd.Flags().GetBool("graph")
		quiet, _ := cmd.Flags().GetBool("quiet")

		return cli.Execute(cmd.Context(), cli.RunOptions{
			Config:  cfg,
			ChainID: args[0],
			Input:   input,
			Object:  object,
			Surface: surface,
			JSON:    jsonMode,
			Graph:   graphMode,
			Banner:  !quiet,
			Stdin:   cmd.InOrStdin(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", `Rows to run the chain on (JSON or YAML file, "-" for stdin)`)
	runCmd.Flags().StringP("object", "o", "", "Meta-object of the input rows, e.g. shop.Order")
	runCmd.Flags().String("surface", "", "ID of the surface triggering the chain")
	runCmd.Flags().Bool("json", false, "Print the result as JSON")
	runCmd.Flags().Bool("graph", false, "Print the chain graph with the steps that ran")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
