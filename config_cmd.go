package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edtools/pscpm-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := config.DefaultConfigPath()
			if flagConfigPath != "" {
				path = flagConfigPath
			}

			fmt.Println(path)

			return nil
		},
	}
}

// configView is the redacted display form of the configuration. Secrets are
// masked — config show output ends up in terminals and pasted into tickets.
type configView struct {
	Server   string `json:"server"`
	Strategy string `json:"auth_strategy"`
	Timeout  string `json:"timeout"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Secret   string `json:"client_secret,omitempty"`
	Root     string `json:"root"`
	LogLevel string `json:"log_level"`
	Insecure bool   `json:"insecure_skip_verify"`
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}

	return "********"
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	view := configView{
		Server:   resolvedCfg.Server.BaseURL,
		Strategy: resolvedCfg.Server.AuthStrategy,
		Timeout:  resolvedCfg.ParsedTimeout().String(),
		Username: resolvedCfg.Session.Username,
		Password: redact(resolvedCfg.Session.Password),
		ClientID: resolvedCfg.Token.ClientID,
		Secret:   redact(resolvedCfg.Token.ClientSecret),
		Root:     resolvedCfg.Local.Root,
		LogLevel: resolvedCfg.Logging.Level,
		Insecure: resolvedCfg.Server.InsecureSkipVerify,
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(view)
	}

	rows := [][]string{
		{"server", view.Server},
		{"auth_strategy", view.Strategy},
		{"timeout", view.Timeout},
		{"username", view.Username},
		{"password", view.Password},
		{"client_id", view.ClientID},
		{"client_secret", view.Secret},
		{"root", view.Root},
		{"log_level", view.LogLevel},
		{"insecure_skip_verify", fmt.Sprintf("%t", view.Insecure)},
	}

	printTable(os.Stdout, []string{"KEY", "VALUE"}, rows)

	return nil
}
