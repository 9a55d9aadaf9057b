package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tapedeck/internal/library"
	"tapedeck/internal/pngchunk"
	"tapedeck/internal/textutil"
)

func newTableWriter(headers ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row(headers))
	return tw
}

// alignRight right-aligns the named numeric columns; headers stay left.
func alignRight(tw table.Writer, names ...string) {
	configs := make([]table.ColumnConfig, 0, len(names))
	for _, name := range names {
		configs = append(configs, table.ColumnConfig{
			Name:        name,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
			AlignFooter: text.AlignRight,
		})
	}
	tw.SetColumnConfigs(configs)
}

// chunkTable renders one row per chunk with a footer totaling chunk bytes.
func chunkTable(infos []pngchunk.ChunkInfo, colorize bool) string {
	tw := newTableWriter("#", "Offset", "Type", "Length", "CRC", "Check", "Keyword")
	var total int64
	for i, c := range infos {
		check := colorText("ok", ansiGreen, colorize)
		if !c.CRCValid {
			check = colorText("bad", ansiYellow, colorize)
		}
		keyword := c.Keyword
		if c.KeywordError != "" {
			keyword = colorText(fmt.Sprintf("%q (invalid)", c.Keyword), ansiYellow, colorize)
		}
		tw.AppendRow(table.Row{i + 1, c.Offset, c.Type, c.Length, fmt.Sprintf("%08x", c.StoredCRC), check, keyword})
		total += int64(c.Length) + pngchunk.Overhead
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d chunks", len(infos)), total, "", "", ""})
	tw.Style().Format.Footer = text.FormatDefault
	alignRight(tw, "#", "Offset", "Length")
	return tw.Render()
}

func libraryTable(entries []*library.Entry) string {
	tw := newTableWriter("ID", "Label", "Version", "History", "Size", "Imported")
	for _, e := range entries {
		tw.AppendRow(table.Row{
			e.ShortID(),
			textutil.DisplayTitle(e.Label),
			e.Version,
			e.HistoryLen,
			fmt.Sprintf("%dx%d", e.Width, e.Height),
			formatTimestamp(e.ImportedAt),
		})
	}
	alignRight(tw, "History", "Size")
	return tw.Render()
}
