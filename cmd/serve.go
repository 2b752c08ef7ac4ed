package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Kumkum-Mishra/CleanForge/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the profile/clean/semantic endpoints over HTTP",
	Example: `  cleanforge serve
  cleanforge serve --addr :8000
  curl -F file=@customers.csv http://127.0.0.1:8000/clean`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner(true)
		if err != nil {
			return err
		}
		opt, err := readOptions()
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(server.Config{
			Addr:           addr,
			CORSOrigins:    cfg.CORSOrigins,
			MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
			ReadOptions:    opt,
		}, runner, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config listen_addr)")
}
