package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/fileutil"
	"tapedeck/internal/logging"
)

func newStripCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "strip <cartridge.png> <output.png>",
		Short: "Write a copy of a cartridge with every tape removed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewComponentLogger(ctx.loggerFor(cmd), "strip")
			input, output := args[0], args[1]

			stream, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read cartridge: %w", err)
			}
			stripped, removed, err := cartridge.Strip(stream, ctx.readOptions(cmd, false)...)
			if err != nil {
				return fmt.Errorf("strip %s: %w", input, err)
			}
			if err := fileutil.WriteFileAtomic(output, stripped, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			logger.Info("tapes stripped",
				logging.FieldPath, output,
				"removed", removed,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d tape chunk(s); wrote %s (%d bytes)\n", removed, output, len(stripped))
			return nil
		},
	}
}
