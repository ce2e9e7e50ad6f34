// Package output renders the filtered outdated report as a terminal table or
// as JSON, npm-style JSON, CSV or XML.
package output

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatTable is the default terminal table output.
	FormatTable Format = "table"
	// FormatJSON outputs the result envelope as JSON.
	FormatJSON Format = "json"
	// FormatNPMJSON outputs an object keyed by package name, shaped like `npm outdated --json`.
	FormatNPMJSON Format = "npm-json"
	// FormatCSV outputs data as comma-separated values.
	FormatCSV Format = "csv"
	// FormatXML outputs data as XML.
	FormatXML Format = "xml"
)

// Formats lists every supported format, in help-text order.
var Formats = []Format{FormatTable, FormatJSON, FormatNPMJSON, FormatCSV, FormatXML}

// ParseFormat parses a case-insensitive format name. The empty string selects
// FormatTable.
//
// Returns:
//   - Format: The parsed format
//   - error: When the name is not a supported format
func ParseFormat(s string) (Format, error) {
	name := Format(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return FormatTable, nil
	}
	for _, f := range Formats {
		if f == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (valid: %s)", s, formatNames())
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// IsStructuredFormat reports whether f is meant for machines rather than a terminal.
func IsStructuredFormat(f Format) bool {
	return f != FormatTable
}

// Formatter handles writing data in a specific format.
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter writing to w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{writer: w}
}

// WriteCSV writes a header row and data rows.
//
// csv.Writer buffers all writes and only reports errors via Error() after Flush().
func (f *Formatter) WriteCSV(headers []string, rows [][]string) error {
	w := csv.NewWriter(f.writer)

	_ = w.Write(headers)
	for _, row := range rows {
		_ = w.Write(row)
	}

	w.Flush()
	return w.Error()
}

// WriteJSON writes data as indented JSON followed by a newline.
func (f *Formatter) WriteJSON(data interface{}) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteXML writes the XML header and data with 2-space indentation.
//
// Parameters:
//   - data: Data structure to encode (must have xml tags)
//
// Returns:
//   - error: When encoding fails
func (f *Formatter) WriteXML(data interface{}) error {
	_, _ = fmt.Fprint(f.writer, xml.Header)
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(f.writer)
	return nil
}
