package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudcmds/plusplus"
	"github.com/cloudcmds/plusplus/importer"
	"github.com/cloudcmds/plusplus/object"
	"github.com/cloudcmds/plusplus/vm"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <unit.json>",
		Short: "Run a compiled unit and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enable, _ := cmd.Flags().GetBool("enable")
			trace, _ := cmd.Flags().GetBool("trace")
			modules, _ := cmd.Flags().GetString("modules")
			packages, _ := cmd.Flags().GetStringSlice("package")

			code, err := readCode(args[0])
			if err != nil {
				return err
			}
			engine, opts, err := a.engine()
			if err != nil {
				return err
			}
			if enable {
				if code, _, err = engine.EnableCode(code); err != nil {
					return err
				}
			}
			if modules != "" {
				var imp importer.Importer = importer.NewDirImporter(modules)
				if len(packages) > 0 {
					hook := engine.Hook(imp)
					for _, pkg := range packages {
						hook.Install(pkg)
					}
					imp = hook
				}
				opts = append(opts, plusplus.WithImporter(imp))
			}
			if trace {
				opts = append(opts, plusplus.WithObserver(&tracer{out: cmd.ErrOrStderr()}))
			}

			result, err := plusplus.RunObject(cmd.Context(), code, opts...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().Bool("enable", false, "rewrite the unit before running it")
	cmd.Flags().Bool("trace", false, "print each executed instruction to stderr")
	cmd.Flags().String("modules", "", "directory of compiled modules to import from")
	cmd.Flags().StringSlice("package", nil, "rewrite modules of this package as they are imported")
	return cmd
}

// printResult writes nothing for nil, JSON for values with a Go form, and the
// object's representation otherwise.
func printResult(w io.Writer, result object.Object) error {
	if result == object.Nil {
		return nil
	}
	if value := result.Interface(); value != nil {
		if data, err := marshalOutput(w, value); err == nil {
			_, err = fmt.Fprintln(w, string(data))
			return err
		}
	}
	_, err := fmt.Fprintln(w, result.Inspect())
	return err
}

type tracer struct {
	vm.NoOpObserver
	out io.Writer
}

func (t *tracer) OnStep(event vm.StepEvent) bool {
	indent := strings.Repeat("  ", event.FrameDepth)
	line := ""
	if !event.Location.IsZero() {
		line = " " + event.Location.String()
	}
	fmt.Fprintf(t.out, "%s%4d %-22s stack=%d%s\n", indent, event.IP, event.Opcode, event.StackDepth, line)
	return true
}

func (t *tracer) OnCall(event vm.CallEvent) bool {
	name := event.FunctionName
	if name == "" {
		name = "<anonymous>"
	}
	depth := event.FrameDepth - 1
	if depth < 0 {
		depth = 0
	}
	fmt.Fprintf(t.out, "%scall %s/%d\n", strings.Repeat("  ", depth), name, event.ArgCount)
	return true
}
