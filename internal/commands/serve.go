package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/backoffice/internal/exporter"
	"github.com/cleared-dev/backoffice/internal/importer"
	"github.com/cleared-dev/backoffice/internal/server"
)

func newServeCommand() *cobra.Command {
	var repoDir string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve imports, exports and templates over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx, repoDir)
			if err != nil {
				return err
			}
			defer ws.Close()

			if addr == "" {
				addr = ws.cfg.Server.Addr
			}
			srv := server.New(
				importer.DefaultRegistry(),
				importer.New(ws.store, ws.log, importer.Options{SubmitRate: ws.cfg.Import.SubmitRate}),
				exporter.New(ws.store, ws.cfg.Export.Dir),
				ws.store,
				ws.log,
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "workspace directory")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")

	return cmd
}
