package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/p2pstream"
)

func listenCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept TCP peers and log every decoded message",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runListen(ctx, cfg, newLogger(cfg, cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "TCP address to accept peers on")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}

// runListen accepts peers until ctx is canceled. Every peer gets its own
// stream; a stream error ends only that peer's connection.
func runListen(ctx context.Context, cfg config, logger *slog.Logger) error {
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	var metricsListener net.Listener
	if cfg.MetricsAddr != "" {
		if metricsListener, err = net.Listen("tcp", cfg.MetricsAddr); err != nil {
			listener.Close()
			return err
		}
	}

	return serve(ctx, listener, metricsListener, cfg, logger)
}

// serve owns both listeners and closes them on return. metricsListener may be
// nil.
func serve(ctx context.Context, listener, metricsListener net.Listener, cfg config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	metrics := p2pstream.NewMetrics(reg)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})

	group.Go(func() error {
		logger.Info("accepting peers", "addr", listener.Addr(), "network", cfg.Network)
		return acceptLoop(ctx, listener, cfg, metrics, logger)
	})

	if metricsListener != nil {
		srv := &http.Server{
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		group.Go(func() error {
			logger.Info("serving metrics", "addr", metricsListener.Addr())
			if err := srv.Serve(metricsListener); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
	}

	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// acceptLoop returns only after every peer connection it started has
// finished.
func acceptLoop(ctx context.Context, listener net.Listener, cfg config, metrics *p2pstream.Metrics, logger *slog.Logger) error {
	var peers sync.WaitGroup
	defer peers.Wait()

	for {
		raw, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		peer := raw.RemoteAddr().String()
		conn, err := p2pstream.NewConn(raw,
			p2pstream.NetworkOption(cfg.magic()),
			p2pstream.ReadBufferSizeOption(cfg.ChunkSize),
			p2pstream.LoggerOption(logger),
			p2pstream.MetricsOption(metrics),
			p2pstream.OnMessageOption(func(m p2pstream.Message) {
				logger.Info("message", "peer", peer, "command", m.Command, "size", m.Length())
			}),
		)
		if err != nil {
			raw.Close()
			return err
		}

		peers.Add(1)
		go func() {
			defer peers.Done()
			if err := conn.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Debug("peer finished", "peer", peer, "error", err)
			}
		}()
	}
}
