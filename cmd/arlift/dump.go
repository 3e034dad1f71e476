package main

import (
	"fmt"

	"github.com/llir/llvm/asm"
	"github.com/spf13/cobra"

	"arlift/internal/air"
	"arlift/internal/importer"
	"arlift/internal/layout"
)

var (
	dumpFunc   string
	dumpTarget string
	dumpStrict bool
)

func init() {
	dumpCmd.Flags().StringVar(&dumpFunc, "func", "", "dump only the named function")
	dumpCmd.Flags().StringVar(&dumpTarget, "target", "", "data layout target triple")
	dumpCmd.Flags().BoolVar(&dumpStrict, "strict-debug-info", false, "fail on debug info that does not match the IR")
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file.ll>",
	Short: "Import one module and print its translated functions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := layout.ParseTarget(dumpTarget)
		if err != nil {
			return err
		}

		m, err := asm.ParseFile(args[0])
		if err != nil {
			return err
		}

		bi := importer.NewBundleImporter(target)
		bi.StrictDebugInfo = dumpStrict
		mod, err := bi.ImportModule(m)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printed := 0
		for _, f := range mod.Funcs {
			if dumpFunc != "" && f.Name != dumpFunc {
				continue
			}
			if f.Code == nil {
				continue
			}
			if printed > 0 {
				fmt.Fprintln(out)
			}
			if err := air.DumpFunction(out, f, bi.Interner); err != nil {
				return err
			}
			printed++
		}
		if dumpFunc != "" && printed == 0 {
			return fmt.Errorf("no defined function %q in %s", dumpFunc, args[0])
		}
		return nil
	},
}
