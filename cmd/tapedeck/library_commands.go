package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/envelope"
	"tapedeck/internal/library"
	"tapedeck/internal/logging"
	"tapedeck/internal/textutil"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the local tape library",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryImportCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))
	libraryCmd.AddCommand(newLibraryRemoveCommand(ctx))

	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged tapes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				if entries == nil {
					entries = []*library.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Library is empty")
				return nil
			}
			fmt.Fprintln(out, libraryTable(entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLibraryImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <cartridge.png>...",
		Short: "Copy cartridges into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			logger := logging.NewComponentLogger(ctx.loggerFor(cmd), "library")

			out := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				entry, added, err := store.Import(cmd.Context(), path)
				if err != nil {
					failed++
					logger.Warn("import failed",
						logging.FieldPath, path,
						logging.FieldErrorKind, string(cartridge.KindOf(err)),
						logging.Error(err),
					)
					fmt.Fprintf(out, "%s: %s\n", path, describeError(err))
					continue
				}
				if added {
					fmt.Fprintf(out, "%s: imported as %s (%s)\n", path, entry.ShortID(), entry.Label)
				} else {
					fmt.Fprintf(out, "%s: already cataloged as %s\n", path, entry.ShortID())
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d cartridge(s) failed to import", failed, len(args))
			}
			return nil
		},
	}
}

type libraryShowView struct {
	Entry    *library.Entry     `json:"entry"`
	Envelope *envelope.Envelope `json:"envelope,omitempty"`
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a cataloged tape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := resolveEntry(cmd, store, args[0])
			if err != nil {
				return err
			}

			tapeCtx := logging.WithTapeID(cmd.Context(), entry.ID)
			logger := logging.WithContext(tapeCtx, logging.NewComponentLogger(ctx.loggerFor(cmd), "library"))

			view := libraryShowView{Entry: entry}
			stream, err := os.ReadFile(entry.Path)
			if err != nil {
				logger.Warn("stored cartridge unreadable", logging.FieldPath, entry.Path, logging.Error(err))
			} else if env, _, err := cartridge.ReadEnvelope(stream, ctx.readOptions(cmd, false)...); err != nil {
				logger.Warn("stored cartridge has no readable tape",
					logging.FieldPath, entry.Path,
					logging.FieldErrorKind, string(cartridge.KindOf(err)),
					logging.Error(err),
				)
			} else {
				view.Envelope = &env
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			printLines(out, renderSectionHeader(textutil.DisplayTitle(entry.Label), shouldColorize(out)))
			fmt.Fprintf(out, "ID:        %s\n", entry.ID)
			fmt.Fprintf(out, "Version:   %s (%s)\n", entry.Version, entry.Shape)
			fmt.Fprintf(out, "Status:    %s\n", fallback(entry.Status, "-"))
			fmt.Fprintf(out, "History:   %d entries\n", entry.HistoryLen)
			fmt.Fprintf(out, "Image:     %dx%d, %d bytes\n", entry.Width, entry.Height, entry.Size)
			fmt.Fprintf(out, "Created:   %s\n", fallback(formatTimestamp(entry.CreatedAt), "-"))
			fmt.Fprintf(out, "Imported:  %s\n", formatTimestamp(entry.ImportedAt))
			fmt.Fprintf(out, "File:      %s\n", entry.Path)
			fmt.Fprintf(out, "Source:    %s\n", fallback(entry.SourcePath, "-"))
			fmt.Fprintf(out, "SHA256:    %s\n", entry.SHA256)
			fmt.Fprintf(out, "Readable:  %s\n", yesNo(view.Envelope != nil))
			if view.Envelope != nil && view.Envelope.EngineState.CurrentBeat != nil {
				beat := view.Envelope.EngineState.CurrentBeat
				fmt.Fprintf(out, "Choices:   %d at current beat\n", len(beat.Choices))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a tape and its stored copy from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := resolveEntry(cmd, store, args[0])
			if err != nil {
				return err
			}
			removed, err := store.Remove(cmd.Context(), entry.ID)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("tape %s was already removed", entry.ShortID())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", entry.ShortID(), entry.Label)
			return nil
		},
	}
}

func resolveEntry(cmd *cobra.Command, store *library.Store, ref string) (*library.Entry, error) {
	entry, err := store.Resolve(cmd.Context(), ref)
	if err != nil {
		if errors.Is(err, library.ErrAmbiguousID) {
			return nil, fmt.Errorf("%w; use more characters of the id", err)
		}
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("tape %q not found", ref)
	}
	return entry, nil
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func fallback(value, alt string) string {
	if value == "" {
		return alt
	}
	return value
}
