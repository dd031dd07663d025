package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/nomoslink/internal/certgen"
)

type certsOptions struct {
	Dir      string
	Host     string
	Device   string
	Validity time.Duration
}

func newCertsCommand() *cobra.Command {
	opts := &certsOptions{}

	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Provision mTLS certificates",
	}
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "certs", "directory holding the CA and issued pairs")
	cmd.PersistentFlags().DurationVar(&opts.Validity, "validity", 365*24*time.Hour, "lifetime of issued certificates")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a CA, a server certificate and a first device certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCertsInit(cmd, opts)
		},
	}
	initCmd.Flags().StringVar(&opts.Host, "host", "localhost", "server DNS name or IP")
	initCmd.Flags().StringVar(&opts.Device, "device", "front-desk", "common name of the first device")

	issueCmd := &cobra.Command{
		Use:   "issue DEVICE",
		Short: "Issue a certificate for another practice device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCertsIssue(cmd, opts, args[0])
		},
	}

	cmd.AddCommand(initCmd, issueCmd)
	return cmd
}

func runCertsInit(cmd *cobra.Command, opts *certsOptions) error {
	ca, err := certgen.NewAuthority("NomosLink CA", 10*opts.Validity)
	if err != nil {
		return err
	}
	caCert, caKey, err := ca.PEM()
	if err != nil {
		return err
	}
	if err := certgen.WritePair(opts.Dir, "ca", caCert, caKey); err != nil {
		return err
	}

	serverCert, serverKey, err := ca.IssueServer(opts.Host, opts.Validity)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(opts.Dir, "server", serverCert, serverKey); err != nil {
		return err
	}

	clientCert, clientKey, err := ca.IssueDevice(opts.Device, opts.Validity)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(opts.Dir, "client", clientCert, clientKey); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Certificates for %s and device %q written to %s\n", opts.Host, opts.Device, opts.Dir)
	return nil
}

func runCertsIssue(cmd *cobra.Command, opts *certsOptions, device string) error {
	ca, err := certgen.LoadAuthority(filepath.Join(opts.Dir, "ca.crt"), filepath.Join(opts.Dir, "ca.key"))
	if err != nil {
		return err
	}
	certPEM, keyPEM, err := ca.IssueDevice(device, opts.Validity)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(opts.Dir, device, certPEM, keyPEM); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Issued %s.crt and %s.key in %s\n", device, device, opts.Dir)
	return nil
}
