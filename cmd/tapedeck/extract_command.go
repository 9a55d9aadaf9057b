package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/logging"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		raw    bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "extract <cartridge.png>",
		Short: "Print the tape stored in a cartridge",
		Long: "Extract prints the normalized envelope as JSON. Legacy tapes that predate\n" +
			"the envelope format are wrapped with synthesized metadata; use --raw to\n" +
			"print the stored payload unchanged.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewComponentLogger(ctx.loggerFor(cmd), "extract")
			path := args[0]

			stream, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read cartridge: %w", err)
			}
			opts := ctx.readOptions(cmd, strict)

			if raw {
				payload, err := cartridge.Extract(stream, opts...)
				if err != nil {
					return fmt.Errorf("extract %s: %w", path, err)
				}
				var buf bytes.Buffer
				if err := json.Indent(&buf, payload, "", "  "); err != nil {
					return fmt.Errorf("format payload: %w", err)
				}
				buf.WriteByte('\n')
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}

			env, shape, err := cartridge.ReadEnvelope(stream, opts...)
			if err != nil {
				return fmt.Errorf("extract %s: %w", path, err)
			}
			logger.Debug("tape extracted",
				logging.FieldPath, path,
				"shape", shape,
				"version", env.Meta.Version,
			)
			return writeJSON(cmd, env)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored payload without normalization")
	cmd.Flags().BoolVar(&strict, "strict", false, "Verify every chunk CRC (default from config)")
	return cmd
}
