package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudcmds/plusplus/dis"
	"github.com/cloudcmds/plusplus/errz"
)

func newDisCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis <unit.json>",
		Short: "Disassemble a compiled unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			funcName, _ := cmd.Flags().GetString("func")
			enable, _ := cmd.Flags().GetBool("enable")

			code, err := readCode(args[0])
			if err != nil {
				return err
			}
			if enable {
				engine, _, err := a.engine()
				if err != nil {
					return err
				}
				if code, _, err = engine.EnableCode(code); err != nil {
					return err
				}
			}

			// If a function name was provided, disassemble its code only
			target := code
			if funcName != "" {
				fn, ok := code.FindFunction(funcName)
				if !ok {
					return fmt.Errorf("function %q not found%s",
						funcName, errz.DidYouMean(funcName, code.FunctionNames()))
				}
				target = fn.Code()
			}

			listing, err := dis.Disassemble(target)
			if err != nil {
				return err
			}
			return dis.Print(cmd.OutOrStdout(), listing)
		},
	}
	cmd.Flags().String("func", "", "function to disassemble")
	cmd.Flags().Bool("enable", false, "disassemble the rewritten unit")
	return cmd
}
