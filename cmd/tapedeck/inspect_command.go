package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/envelope"
	"tapedeck/internal/pngchunk"
	"tapedeck/internal/textutil"
)

type inspectHeader struct {
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
	BitDepth  uint8  `json:"bit_depth"`
	ColorType uint8  `json:"color_type"`
	Interlace bool   `json:"interlaced"`
}

type inspectTape struct {
	Label      string         `json:"label"`
	Version    string         `json:"version"`
	Shape      envelope.Shape `json:"shape"`
	HistoryLen int            `json:"history_len"`
	Status     string         `json:"status,omitempty"`
}

type inspectImageData struct {
	Chunks int   `json:"chunks"`
	Bytes  int64 `json:"bytes"`
}

type inspectReport struct {
	Path      string               `json:"path"`
	Size      int                  `json:"size_bytes"`
	Header    *inspectHeader       `json:"header,omitempty"`
	ImageData inspectImageData     `json:"image_data"`
	Chunks    []pngchunk.ChunkInfo `json:"chunks"`
	Tape      *inspectTape         `json:"tape,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		strict     bool
		types      []string
	)

	cmd := &cobra.Command{
		Use:   "inspect <file.png>",
		Short: "List the chunks of a PNG and describe any tape it carries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			only, err := parseChunkTypes(types)
			if err != nil {
				return err
			}
			path := args[0]
			stream, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			report, inspectErr := buildInspectReport(path, stream, ctx.strictCRC(cmd, strict))
			report.Chunks = filterChunks(report.Chunks, only)
			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return inspectErr
			}
			renderInspectReport(cmd, report)
			return inspectErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Stop at the first chunk with a bad CRC (default from config)")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Only list chunks of these types (e.g. tEXt,IDAT)")
	return cmd
}

func parseChunkTypes(values []string) ([]pngchunk.Type, error) {
	types := make([]pngchunk.Type, 0, len(values))
	for _, v := range values {
		typ, err := pngchunk.ParseType(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("--type: %w", err)
		}
		types = append(types, typ)
	}
	return types, nil
}

func filterChunks(infos []pngchunk.ChunkInfo, only []pngchunk.Type) []pngchunk.ChunkInfo {
	if len(only) == 0 {
		return infos
	}
	kept := make([]pngchunk.ChunkInfo, 0, len(infos))
	for _, info := range infos {
		if slices.ContainsFunc(only, func(t pngchunk.Type) bool { return t.String() == info.Type }) {
			kept = append(kept, info)
		}
	}
	return kept
}

func buildInspectReport(path string, stream []byte, strict bool) (inspectReport, error) {
	report := inspectReport{Path: path, Size: len(stream), Chunks: []pngchunk.ChunkInfo{}}
	if header, err := pngchunk.ReadHeader(stream); err == nil {
		report.Header = &inspectHeader{
			Width:     header.Width,
			Height:    header.Height,
			BitDepth:  header.BitDepth,
			ColorType: header.ColorType,
			Interlace: header.Interlace == 1,
		}
	}

	infos, err := pngchunk.Inspect(stream, pngchunk.WithVerifyCRC(strict))
	if infos != nil {
		report.Chunks = infos
	}
	report.ImageData.Chunks, report.ImageData.Bytes = pngchunk.ImageData(infos)
	if err != nil {
		err = fmt.Errorf("inspect %s: %w", path, cartridge.FromFormat(err))
		report.Error = err.Error()
		return report, err
	}

	env, shape, err := cartridge.ReadEnvelope(stream, cartridge.WithStrictCRC(strict))
	switch {
	case err == nil:
		report.Tape = &inspectTape{
			Label:      env.Meta.Label,
			Version:    env.Meta.Version,
			Shape:      shape,
			HistoryLen: len(env.EngineState.History),
			Status:     env.EngineState.StatusLabel,
		}
	case errors.Is(err, cartridge.ErrPayloadNotFound):
	default:
		report.Error = err.Error()
	}
	return report, nil
}

func renderInspectReport(cmd *cobra.Command, report inspectReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	printLines(out, renderSectionHeader(report.Path, colorize))
	if h := report.Header; h != nil {
		fmt.Fprintf(out, "Image:  %dx%d, %d-bit, %s", h.Width, h.Height, h.BitDepth, colorTypeName(h.ColorType))
		if h.Interlace {
			fmt.Fprint(out, ", interlaced")
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Size:   %d bytes\n", report.Size)
	fmt.Fprintf(out, "Pixels: %d bytes in %d IDAT chunk(s)\n", report.ImageData.Bytes, report.ImageData.Chunks)
	switch {
	case report.Tape != nil:
		t := report.Tape
		fmt.Fprintf(out, "Tape:   %s (version %s, %s, %d history entries)\n",
			colorText(textutil.DisplayTitle(t.Label), ansiGreen, colorize), t.Version, t.Shape, t.HistoryLen)
	case report.Error != "":
		fmt.Fprintf(out, "Tape:   %s\n", colorText(report.Error, ansiRed, colorize))
	default:
		fmt.Fprintln(out, "Tape:   none")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, chunkTable(report.Chunks, colorize))
}

func colorTypeName(colorType uint8) string {
	switch colorType {
	case 0:
		return "grayscale"
	case 2:
		return "RGB"
	case 3:
		return "indexed"
	case 4:
		return "grayscale+alpha"
	case 6:
		return "RGBA"
	default:
		return "color type " + strconv.Itoa(int(colorType))
	}
}
