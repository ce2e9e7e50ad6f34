package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ajxudir/ripen/pkg/constants"
)

// DisplayWidth returns the number of terminal cells val occupies.
func DisplayWidth(val string) int {
	return runewidth.StringWidth(val)
}

// ToWidth pads val with spaces to width display cells. Values already at or
// beyond width are returned unchanged.
func ToWidth(val string, width int) string {
	current := DisplayWidth(val)
	if width <= 0 || current >= width {
		return val
	}
	return val + strings.Repeat(" ", width-current)
}

// Column represents a single table column with its header and current width.
type Column struct {
	Header string
	Width  int
}

// Table provides a table formatter with dynamic column widths.
// It handles Unicode-aware width calculations and consistent formatting.
type Table struct {
	columns   []Column
	separator string
}

// NewTable creates an empty table separated by two spaces.
func NewTable() *Table {
	return &Table{separator: "  "}
}

// AddColumn adds a column with the given header and returns the table.
func (t *Table) AddColumn(header string) *Table {
	t.columns = append(t.columns, Column{Header: header, Width: DisplayWidth(header)})
	return t
}

// UpdateWidths widens columns to fit a row of values and returns the table.
func (t *Table) UpdateWidths(values ...string) *Table {
	for i, val := range values {
		if i < len(t.columns) {
			if width := DisplayWidth(val); width > t.columns[i].Width {
				t.columns[i].Width = width
			}
		}
	}
	return t
}

// HeaderRow returns the padded header row.
func (t *Table) HeaderRow() string {
	parts := make([]string, len(t.columns))
	for i, col := range t.columns {
		parts[i] = ToWidth(col.Header, col.Width)
	}
	return strings.TrimRight(strings.Join(parts, t.separator), " ")
}

// SeparatorRow returns dashes matching column widths.
func (t *Table) SeparatorRow() string {
	parts := make([]string, len(t.columns))
	for i, col := range t.columns {
		parts[i] = strings.Repeat("-", col.Width)
	}
	return strings.Join(parts, t.separator)
}

// FormatRow pads each value to its column width. Missing values are treated
// as empty strings; trailing padding is trimmed.
func (t *Table) FormatRow(values ...string) string {
	parts := make([]string, len(t.columns))
	for i, col := range t.columns {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		parts[i] = ToWidth(val, col.Width)
	}
	return strings.TrimRight(strings.Join(parts, t.separator), " ")
}

// Fprint outputs the table header and separator to w.
func (t *Table) Fprint(w io.Writer) {
	_, _ = fmt.Fprintln(w, t.HeaderRow())
	_, _ = fmt.Fprintln(w, t.SeparatorRow())
}

// WriteOutdatedTable renders the result as a terminal table followed by a
// one-line summary. Warnings are not part of the table; callers print them
// to stderr.
//
// Parameters:
//   - w: Destination writer
//   - result: Outdated result to render
//
// Returns:
//   - error: Write failure
func WriteOutdatedTable(w io.Writer, result *OutdatedResult) error {
	if len(result.Packages) == 0 {
		_, err := fmt.Fprintln(w, emptyMessage(result.Summary))
		return err
	}

	table := NewTable().
		AddColumn("Package").
		AddColumn("Current").
		AddColumn("Wanted").
		AddColumn("Latest").
		AddColumn("Location").
		AddColumn("Type")

	rows := make([][]string, 0, len(result.Packages))
	for _, dep := range result.Packages {
		row := []string{dep.Name, dep.Current, dep.Wanted, dep.Latest, dep.Location, dep.Type}
		if row[1] == "" {
			row[1] = constants.PlaceholderMissing
		}
		table.UpdateWidths(row...)
		rows = append(rows, row)
	}

	table.Fprint(w)
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, table.FormatRow(row...)); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%s\n", summaryLine(result.Summary))
	return err
}

func emptyMessage(s OutdatedSummary) string {
	if s.MinAgeDays > 0 && s.OutdatedPackages > 0 {
		return fmt.Sprintf("No updates older than %d days (%d newer versions are still too fresh).", s.MinAgeDays, s.OutdatedPackages)
	}
	return "All packages are up to date."
}

func summaryLine(s OutdatedSummary) string {
	if s.MinAgeDays == 0 {
		return fmt.Sprintf("%d outdated packages.", s.ReportedPackages)
	}
	return fmt.Sprintf("%d of %d outdated packages have updates at least %d days old (patch age %d days); %d held back.",
		s.ReportedPackages, s.OutdatedPackages, s.MinAgeDays, s.MinAgePatchDays, s.FilteredPackages)
}
