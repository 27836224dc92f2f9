package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgmeyers/pdfannotate/web"
	"golang.org/x/sync/errgroup"
)

type serveCmd struct {
	Addr            string        `default:":8080" env:"PDFANNOTATE_ADDR" help:"Listen address"`
	MaxUpload       int64         `default:"67108864" env:"PDFANNOTATE_MAX_UPLOAD" help:"Upload size limit in bytes"`
	PreviewDPI      float64       `default:"72" help:"DPI of the viewer's first page preview"`
	TempDir         string        `type:"path" env:"PDFANNOTATE_TEMP_DIR" help:"Parent directory of per-request scratch files"`
	ShutdownTimeout time.Duration `default:"10s" help:"Time allowed for in-flight requests on shutdown"`

	Style styleFlags `embed:""`
}

func (c *serveCmd) handler(cli *CLI, logger *slog.Logger) http.Handler {
	pipeline := web.AnnotatePipeline{
		Layout:  cli.layout(),
		Options: c.Style.options(),
	}

	return web.New(logger, pipeline, web.FitzPreview{DPI: c.PreviewDPI}, web.Config{
		MaxUpload: c.MaxUpload,
		TempDir:   c.TempDir,
	})
}

func (c *serveCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return err
	}

	return c.serve(ctx, ln, c.handler(cli, logger), logger)
}

// serve runs srv on ln until ctx is done, then drains in-flight requests.
func (c *serveCmd) serve(ctx context.Context, ln net.Listener, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "address", ln.Addr().String())

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
