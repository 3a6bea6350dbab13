package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mchmarny/nanotox/pkg/score"
	"github.com/mchmarny/nanotox/pkg/toxicity"
	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 30
	serverMaxHeaderBytes      = 20
	serverHostDefault         = "127.0.0.1"

	portFlagName = "port"
	hostFlagName = "host"
)

func newServerCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP scoring API",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  portFlagName,
				Usage: "Port on which the server will listen (default: from config)",
			},
			&cli.StringFlag{
				Name:  hostFlagName,
				Usage: "Address on which the server will listen",
				Value: serverHostDefault,
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	engine, tbl, err := cfg.getEngine()
	if err != nil {
		return err
	}

	port := int(cmd.Int(portFlagName))
	if port == 0 {
		port = cfg.Config.Server.Port
	}
	address := fmt.Sprintf("%s:%d", cmd.String(hostFlagName), port)

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(engine, tbl),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("server started", "address", "http://"+address, "table", tbl.Source())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func makeRouter(engine *score.Engine, tbl *toxicity.Table) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthAPIHandler)
	mux.HandleFunc("GET /table", tableAPIHandler(tbl))
	mux.HandleFunc("POST /score", scoreAPIHandler(engine))

	return mux
}
