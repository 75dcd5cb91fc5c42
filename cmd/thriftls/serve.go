package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kshitizanand/thrift/pkg/config"
	"github.com/kshitizanand/thrift/pkg/secure"
	"github.com/kshitizanand/thrift/pkg/transport"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a TLS echo server from the endpoint configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger := slog.Default()
			params := cfg.TransportParams()

			server, err := secure.GetServerSocket(cfg.Server.Port, cfg.Server.AcceptTimeout, cfg.Server.BindAddress, params)
			if err != nil {
				return err
			}
			defer server.Close()
			server.SetReadTimeout(cfg.Server.ReadTimeout)

			logger.Info("listening", "addr", server.Addr().String(), "client_auth", cfg.TLS.ClientAuth)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				logger.Info("shutting down")
				server.Close()
			}()

			for {
				sock, err := server.Accept()
				if err != nil {
					if transport.IsTimeoutError(err) {
						continue
					}
					return nil
				}
				go echo(sock, logger)
			}
		},
	}
}

func echo(sock *transport.Socket, logger *slog.Logger) {
	defer sock.Close()

	logger.Info("connection accepted", "conn_id", sock.ID())
	if _, err := io.Copy(sock, sock); err != nil && !transport.IsTimeoutError(err) {
		logger.Warn("connection error", "conn_id", sock.ID(), "error", err)
	}
}

func requireConfig() error {
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}
	return nil
}
