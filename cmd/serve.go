package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/districting-cli/internal/bridge"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editing session bridge for a browser map UI",
	Long:  "Starts the HTTP bridge: the map page posts gestures as events, the bridge resolves them against the local geounit index and drives the editing session.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctl, st, err := newController(ctx)
		if err != nil {
			return err
		}
		defer closeJournal(st)

		ix, err := loadIndex(ctx)
		if err != nil {
			return err
		}

		b := bridge.NewServer(bridge.Options{
			Controller:     ctl,
			Index:          ix,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: b.Handler(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down bridge")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting bridge",
			zap.Int("port", port),
			zap.String("plan", cfg.API.Plan),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "bridge listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "bridge port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
