package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stackasm"
	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/dis"
)

func newDisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dis FILE",
		Short: "Print the instructions of a code unit and its nested units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := loadCode(args[0])
			if err != nil {
				return err
			}
			return dis.PrintCode(code, cmd.OutOrStdout())
		},
	}
}

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph FILE",
		Short: "Print the basic blocks of a code unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := loadCode(args[0])
			if err != nil {
				return err
			}
			g, err := stackasm.BuildGraph(code)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), g.String())
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE",
		Short: "Print size statistics for every unit in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := loadCode(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range code.Flatten() {
				s := c.Stats()
				fmt.Fprintf(out, "%s: %d instructions, %d prefixes, %d bytes, %d constants, %d names, %d exception entries, stack %d\n",
					unitName(c), s.InstructionCount, s.PrefixCount, s.ByteCount,
					s.ConstantCount, s.NameCount, s.ExceptionEntryCount, s.StackSize)
			}
			return nil
		},
	}
}

func newReassembleCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "reassemble FILE",
		Short: "Disassemble and assemble a code unit, reporting any difference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			code, err := loadCode(args[0])
			if err != nil {
				return err
			}
			again, err := stackasm.Reassemble(code, opts...)
			if err != nil {
				return err
			}
			if code.Equal(again) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: identical\n", unitName(code))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: changed (%d -> %d bytes, stack %d -> %d)\n",
					unitName(code), code.Len(), again.Len(), code.StackSize(), again.StackSize())
			}
			if output == "" {
				return nil
			}
			data, err := bytecode.Marshal(again)
			if err != nil {
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the reassembled unit to this file")
	return cmd
}

func unitName(c *bytecode.Code) string {
	if c.Name() == "" {
		return "<unit>"
	}
	return c.Name()
}
