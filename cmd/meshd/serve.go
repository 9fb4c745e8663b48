package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/meshserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the meshing HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, s, logger, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return meshserver.Serve(ctx, cfg.Server, meshserver.NewHandler(ctx, s, cfg.Server), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address, overrides the config")
}
