package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/dgallion1/fennec/internal/will"
)

var errInvalidWill = errors.New("will is invalid")

func newValidateCmd(a *app) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "validate <will.json|->",
		Short: "Validate a will document",
		Long: `Run the structural and cross-field checks the API applies to submitted wills.
Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			v, err := will.NewValidator()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			content, err := v.Validate(raw)
			var ve *will.ValidationError
			if errors.As(err, &ve) {
				red := color.New(color.FgRed)
				red.Fprintf(out, "%d problem(s):\n", len(ve.Errors))
				for _, e := range ve.Errors {
					fmt.Fprintf(out, "  - %s\n", e)
				}
				return errInvalidWill
			}
			if err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Fprintf(out, "valid: %s\n", content.Title())
			if dump {
				pp.Fprintln(out, content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "pretty-print the parsed will with defaults applied")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
