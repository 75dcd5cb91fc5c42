package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kshitizanand/thrift/pkg/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	root := &cobra.Command{
		Use:   "thriftls",
		Short: "TLS endpoint tooling for the thrift transport layer",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Config{Level: logLevel, Format: logFormat})
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to endpoint configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newProbeCommand())
	root.AddCommand(newCertCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
