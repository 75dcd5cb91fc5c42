package main

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kshitizanand/thrift/pkg/secure"
)

func newCertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Generate and inspect test certificate stores",
	}
	cmd.AddCommand(newCertGenerateCommand())
	cmd.AddCommand(newCertInspectCommand())
	return cmd
}

func newCertGenerateCommand() *cobra.Command {
	var (
		outputDir string
		password  string
		cn        string
		dnsNames  string
		testSuite bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a test certificate suite or a single self-signed store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return err
			}

			if testSuite {
				stores, err := secure.GenerateTestStores(outputDir, password)
				if err != nil {
					return err
				}
				fmt.Printf("trust store:      %s\n", stores.CAStore)
				fmt.Printf("server key store: %s\n", stores.ServerStore)
				fmt.Printf("client key store: %s\n", stores.ClientStore)
				return nil
			}

			opts := secure.CertificateOptions{CommonName: cn}
			if dnsNames != "" {
				opts.DNSNames = strings.Split(dnsNames, ",")
			}
			_, key, certPEM, err := secure.GenerateCertificate(opts)
			if err != nil {
				return err
			}

			storePath := outputDir + "/" + cn + ".pem"
			if err := secure.WriteKeyStore(storePath, certPEM, key, password); err != nil {
				return err
			}
			fmt.Printf("key store: %s\n", storePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "Output directory for stores")
	cmd.Flags().StringVar(&password, "password", "", "Password protecting generated key stores")
	cmd.Flags().StringVar(&cn, "cn", "localhost", "Common name for the certificate")
	cmd.Flags().StringVar(&dnsNames, "dns", "", "Comma-separated DNS names (SANs)")
	cmd.Flags().BoolVar(&testSuite, "test-suite", false, "Generate a complete CA/server/client suite")
	return cmd
}

func newCertInspectCommand() *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the certificates contained in a PEM store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if storePath == "" {
				return fmt.Errorf("--store is required")
			}
			data, err := os.ReadFile(storePath)
			if err != nil {
				return err
			}

			found := 0
			rest := data
			for {
				var block *pem.Block
				block, rest = pem.Decode(rest)
				if block == nil {
					break
				}
				if block.Type != "CERTIFICATE" {
					continue
				}
				cert, err := x509.ParseCertificate(block.Bytes)
				if err != nil {
					return fmt.Errorf("parse certificate %d: %w", found, err)
				}
				printCertificate(cert, found)
				found++
			}

			if found == 0 {
				return fmt.Errorf("no certificates found in %s", storePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "Store file to inspect")
	return cmd
}

func printCertificate(cert *x509.Certificate, index int) {
	fmt.Printf("Certificate %d:\n", index)
	fmt.Printf("  Subject:    %s\n", cert.Subject)
	fmt.Printf("  Issuer:     %s\n", cert.Issuer)
	fmt.Printf("  Not Before: %s\n", cert.NotBefore.Format(time.RFC3339))
	fmt.Printf("  Not After:  %s\n", cert.NotAfter.Format(time.RFC3339))
	if len(cert.DNSNames) > 0 {
		fmt.Printf("  DNS Names:  %s\n", strings.Join(cert.DNSNames, ", "))
	}
	if len(cert.IPAddresses) > 0 {
		ips := make([]string, 0, len(cert.IPAddresses))
		for _, ip := range cert.IPAddresses {
			ips = append(ips, ip.String())
		}
		fmt.Printf("  IPs:        %s\n", strings.Join(ips, ", "))
	}
	fmt.Printf("  Is CA:      %v\n", cert.IsCA)
}
