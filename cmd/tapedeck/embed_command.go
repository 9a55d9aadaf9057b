package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/envelope"
	"tapedeck/internal/fileutil"
	"tapedeck/internal/logging"
	"tapedeck/internal/textutil"
)

func newEmbedCommand(ctx *commandContext) *cobra.Command {
	var (
		label       string
		payloadPath string
		replace     bool
		catalog     bool
	)

	cmd := &cobra.Command{
		Use:   "embed <input.png> <output.png>",
		Short: "Write a tape into a PNG image",
		Long: "Embed stores a tape in a copy of the input image. Without --payload a\n" +
			"factory-preset envelope labeled with --label is written.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.loggerFor(cmd), "embed")
			input, output := args[0], args[1]

			carrier, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			var (
				payload     any
				description string
			)
			if strings.TrimSpace(payloadPath) != "" {
				raw, err := os.ReadFile(payloadPath)
				if err != nil {
					return fmt.Errorf("read payload: %w", err)
				}
				if !json.Valid(raw) {
					return fmt.Errorf("payload %s is not valid JSON", payloadPath)
				}
				payload = json.RawMessage(raw)
				description = "payload from " + payloadPath
			} else {
				name := textutil.NormalizeLabel(label)
				if name == "" {
					name = cfg.Cartridge.DefaultLabel
				}
				payload = envelope.Factory(name, time.Now())
				description = fmt.Sprintf("factory tape %q", name)
			}

			if !cmd.Flags().Changed("replace") {
				replace = cfg.Cartridge.ReplaceExisting
			}
			opts := append(ctx.readOptions(cmd, false), cartridge.WithReplace(replace))

			stream, err := cartridge.Embed(carrier, payload, opts...)
			if err != nil {
				return fmt.Errorf("embed %s: %w", input, err)
			}
			if err := fileutil.WriteFileAtomic(output, stream, 0o644); err != nil {
				return fmt.Errorf("write cartridge: %w", err)
			}
			logger.Info("cartridge written",
				logging.FieldPath, output,
				logging.FieldBytes, len(stream),
				logging.FieldKeyword, cartridge.Keyword,
				"replace", replace,
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s to %s (%d bytes)\n", description, output, len(stream))

			if !catalog {
				return nil
			}
			store, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			entry, added, err := store.ImportBytes(cmd.Context(), stream, output)
			if err != nil {
				return fmt.Errorf("catalog cartridge: %w", err)
			}
			if added {
				fmt.Fprintf(out, "Cataloged as %s\n", entry.ShortID())
			} else {
				fmt.Fprintf(out, "Already cataloged as %s\n", entry.ShortID())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Label for a factory-preset tape")
	cmd.Flags().StringVarP(&payloadPath, "payload", "p", "", "JSON file to embed instead of a factory preset")
	cmd.Flags().BoolVar(&replace, "replace", true, "Remove existing tapes before embedding (default from config)")
	cmd.Flags().BoolVar(&catalog, "catalog", false, "Also import the written cartridge into the library")
	cmd.MarkFlagsMutuallyExclusive("label", "payload")
	return cmd
}
