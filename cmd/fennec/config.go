package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/fennec/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	var mode string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# config file: %s\n", used)
			}
			data, err := yaml.Marshal(a.cfg.Redacted())
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			if _, err := out.Write(data); err != nil {
				return err
			}
			if mode != "" {
				if err := a.cfg.Validate(config.Mode(mode)); err != nil {
					return fmt.Errorf("not ready for %s: %w", mode, err)
				}
				fmt.Fprintf(out, "# ready for %s\n", mode)
			}
			return nil
		},
	}
	show.Flags().StringVar(&mode, "check", "", "also validate for a mode: serve, ingest, query, enrich or token")
	cmd.AddCommand(show)
	return cmd
}
