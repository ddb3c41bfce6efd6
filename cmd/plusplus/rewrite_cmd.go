package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudcmds/plusplus/bytecode"
)

func newRewriteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite <unit.json>",
		Short: "Rewrite a compiled unit tree so that ++ and -- take effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			showReport, _ := cmd.Flags().GetBool("report")

			code, err := readCode(args[0])
			if err != nil {
				return err
			}
			engine, _, err := a.engine()
			if err != nil {
				return err
			}
			rewritten, report, err := engine.EnableCode(code)
			if err != nil {
				return err
			}
			data, err := bytecode.Marshal(rewritten)
			if err != nil {
				return err
			}

			if output == "" {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
					return err
				}
			} else if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			if showReport {
				return writeOutput(cmd.ErrOrStderr(), report)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "write the rewritten unit to this file instead of stdout")
	cmd.Flags().Bool("report", false, "print the rewritten and skipped pairs to stderr")
	return cmd
}
