package main

import (
	"github.com/aretw0/catena/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the catalog over HTTP: list and describe chains, execute them, stream execution
and catalog events (SSE) and, with --metrics, Prometheus metrics on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		metrics, _ := cmd.Flags().GetBool("metrics")

		return cli.Serve(cmd.Context(), cli.ServeOptions{
			Config:  cfg,
			Addr:    ":" + port,
			Metrics: metrics,
			Out:     cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
