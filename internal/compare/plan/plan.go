// Package plan renders a comparison result for the image writer or a
// person at a terminal.
package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/zsiec/frameforge/internal/compare/pipeline"
	apperrors "github.com/zsiec/frameforge/internal/errors"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatYAML, FormatTable}

// Write renders result to w in the given format.
func Write(w io.Writer, format string, result *pipeline.Result) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		_, err := io.WriteString(w, Table(result)+"\n")
		return err
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown output format: %q", format))
	}
}

// Table renders result as a human readable summary.
func Table(result *pipeline.Result) string {
	sections := []string{
		titleStyle.Render("Comparison plan"),
		summary(result),
		pairsTable(result),
	}

	if len(result.SyncWindows) > 0 {
		sections = append(sections, titleStyle.Render("Sync frames"), windowsTable(result))
	}

	for _, w := range result.Warnings {
		sections = append(sections, warningStyle.Render("warning: "+w))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func summary(r *pipeline.Result) string {
	line := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	side := func(s pipeline.Side) string {
		index := s.Index.CachePath
		if s.Index.Rebuilt {
			index += " (rebuilt)"
		} else if s.Index.Reused {
			index += " (reused)"
		}
		return fmt.Sprintf("%s  %d frames @ %s fps  %s", s.Index.Media.Path, s.FrameCount, formatRate(s), index)
	}

	lines := []string{
		line("run", r.RunID),
		line("indexer", string(r.Backend)),
		line("source", side(r.Source)),
		line("encode", side(r.Encode)),
		line("deinterlace", string(r.Deinterlace.Action)),
	}
	if r.ReSyncOffset != 0 {
		lines = append(lines, line("re-sync", fmt.Sprintf("%+d", r.ReSyncOffset)))
	}
	if r.Explicit {
		lines = append(lines, line("frames", "explicit list, sync frames disabled"))
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func formatRate(s pipeline.Side) string {
	if !s.FrameRate.Valid() {
		return "?"
	}
	return strconv.FormatFloat(s.FrameRate.Float64(), 'f', 3, 64)
}

func pairsTable(r *pipeline.Result) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(border)).
		Headers("#", "source", "encode").
		StyleFunc(styleCell)

	for i, p := range r.Pairs {
		t.Row(strconv.Itoa(i+1), strconv.Itoa(p.SourceIndex), strconv.Itoa(p.EncodeIndex))
	}
	return t.String()
}

func windowsTable(r *pipeline.Result) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(border)).
		Headers("group", "anchor", "frames").
		StyleFunc(styleCell)

	for _, w := range r.SyncWindows {
		frames := make([]string, len(w.Frames))
		for i, f := range w.Frames {
			frames[i] = strconv.Itoa(f)
		}
		t.Row(strconv.Itoa(w.Group), strconv.Itoa(w.Anchor), strings.Join(frames, " "))
	}
	return t.String()
}

func styleCell(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}
