package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
)

// Format selects how command results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (table, json, yaml)", s)
	}
}

// Table is tabular data for the table format.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Printer renders results in the configured format. Structured formats
// print the raw value; the table format prints the Table built from it.
type Printer struct {
	Format Format
	Out    io.Writer
}

// Print writes value, using table for the table format.
func (p Printer) Print(value any, table Table) error {
	switch p.Format {
	case FormatJSON:
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case FormatYAML:
		out, err := yaml.MarshalWithOptions(value, yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return err
		}
		_, err = p.Out.Write(out)
		return err
	default:
		return renderTable(p.Out, table)
	}
}

// Message prints a line in table mode and nothing in structured modes, so
// piped JSON/YAML stays parseable.
func (p Printer) Message(format string, args ...any) {
	if p.Format != FormatTable {
		return
	}
	fmt.Fprintf(p.Out, format+"\n", args...)
}

func renderTable(w io.Writer, data Table) error {
	table := tablewriter.NewTable(w)
	if len(data.Headers) > 0 {
		headers := make([]any, len(data.Headers))
		for i, h := range data.Headers {
			headers[i] = h
		}
		table.Header(headers...)
	}
	for _, row := range data.Rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
