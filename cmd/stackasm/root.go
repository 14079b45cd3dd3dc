package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stackasm"
	"github.com/deepnoodle-ai/stackasm/bytecode"
)

type globalFlags struct {
	config  string
	noColor bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "stackasm",
		Short:         "Inspect and reassemble stack machine code units",
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&flags.config, "config", "", "TOML configuration file")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newDisCmd(),
		newGraphCmd(),
		newStatsCmd(),
		newReassembleCmd(flags),
	)
	return root
}

func loadCode(path string) (*bytecode.Code, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, nil
}

func (f *globalFlags) options() ([]stackasm.Option, error) {
	cfg := stackasm.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = stackasm.LoadConfig(f.config); err != nil {
			return nil, err
		}
	}
	return cfg.Options()
}
