package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iancoleman/orderedmap"
)

// WriteOutdatedResult writes outdated results in the specified format.
//
// Parameters:
//   - w: Destination writer for the output
//   - format: Output format; FormatTable renders the terminal table
//   - result: Outdated result data to write
//
// Returns:
//   - error: When format is unsupported or the write fails
func WriteOutdatedResult(w io.Writer, format Format, result *OutdatedResult) error {
	formatter := NewFormatter(w)

	switch format {
	case FormatTable:
		return WriteOutdatedTable(w, result)
	case FormatJSON:
		return formatter.WriteJSON(result)
	case FormatNPMJSON:
		return writeNPMJSON(w, result)
	case FormatXML:
		return formatter.WriteXML(result)
	case FormatCSV:
		return writeOutdatedCSV(formatter, result)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// writeOutdatedCSV writes one row per package.
func writeOutdatedCSV(f *Formatter, result *OutdatedResult) error {
	headers := []string{"PACKAGE", "CURRENT", "WANTED", "LATEST", "LOCATION", "TYPE"}
	rows := make([][]string, 0, len(result.Packages))
	for _, dep := range result.Packages {
		rows = append(rows, []string{dep.Name, dep.Current, dep.Wanted, dep.Latest, dep.Location, dep.Type})
	}
	return f.WriteCSV(headers, rows)
}

// writeNPMJSON writes the packages the way `npm outdated --json --long` does,
// so existing consumers of npm's output can read ripen's. Packages keep the
// result's order and each entry keeps npm's key order.
func writeNPMJSON(w io.Writer, result *OutdatedResult) error {
	doc := orderedmap.New()
	doc.SetEscapeHTML(false)
	for _, dep := range result.Packages {
		entry := orderedmap.New()
		entry.SetEscapeHTML(false)
		entry.Set("current", dep.Current)
		entry.Set("wanted", dep.Wanted)
		entry.Set("latest", dep.Latest)
		entry.Set("location", dep.Location)
		entry.Set("type", dep.Type)
		if dep.ResolvedName != "" {
			entry.Set("resolved", dep.ResolvedName)
		}
		doc.Set(dep.Name, entry)
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
