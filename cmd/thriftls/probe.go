package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kshitizanand/thrift/pkg/config"
	"github.com/kshitizanand/thrift/pkg/secure"
)

func newProbeCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Connect to a TLS endpoint and report the negotiated session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if host == "" {
				host = cfg.Client.Host
			}
			if port == 0 {
				port = cfg.Client.Port
			}

			sock, err := secure.GetClientSocket(host, port, cfg.Client.ReadTimeout, cfg.TransportParams())
			if err != nil {
				return err
			}
			defer sock.Close()

			tlsConn, ok := sock.Conn().(*tls.Conn)
			if !ok {
				return fmt.Errorf("connection is not TLS")
			}

			state := tlsConn.ConnectionState()
			slog.Default().Info("connected",
				"conn_id", sock.ID(),
				"remote", tlsConn.RemoteAddr().String(),
				"tls_version", tls.VersionName(state.Version),
				"cipher_suite", secure.CipherSuiteName(state.CipherSuite),
				"peer_cn", peerCommonName(&state),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Target host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "Target port (overrides config)")
	return cmd
}

func peerCommonName(state *tls.ConnectionState) string {
	if len(state.PeerCertificates) == 0 {
		return ""
	}
	return state.PeerCertificates[0].Subject.CommonName
}
