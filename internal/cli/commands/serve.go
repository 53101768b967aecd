package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/server"
	"github.com/leapstack-labs/leapmigrate/internal/state"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the migration HTTP API",
		Long: `Start an HTTP server exposing:

  POST /api/migrate      run a migration (JSON body overrides paths and dialects)
  GET  /api/dialects     list supported dialects
  GET  /api/runs         list recorded runs
  GET  /api/runs/{id}    show one run
  GET  /health           liveness`,
		Example: `  leapmigrate serve --addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			var store state.Store
			if cc.Cfg.StatePath != "" {
				if err := os.MkdirAll(filepath.Dir(cc.Cfg.StatePath), 0o750); err != nil {
					return err
				}
				s := state.NewSQLiteStore(cc.Logger)
				if err := s.Open(cc.Cfg.StatePath); err != nil {
					return err
				}
				defer func() { _ = s.Close() }()
				store = s
			}

			srv := server.NewServer(server.Config{
				Addr:   cc.Cfg.Server.Addr,
				Engine: cc.Cfg.EngineConfig(cc.Logger),
				Store:  store,
				Logger: cc.Logger,
			})
			cc.Renderer.Success("Listening on " + cc.Cfg.Server.Addr)
			return srv.Serve(cmd.Context())
		},
	}
	return cmd
}
