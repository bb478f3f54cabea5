package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/xgscaffold/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(db *schema.DatabaseModel) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	if db.DatabaseName != "" {
		_, _ = fmt.Fprintf(f.writer, "Database `%s`", db.DatabaseName)
		if charset := db.CharSet(); charset != "" {
			_, _ = fmt.Fprintf(f.writer, ", charset %s", charset)
		}
		if db.Collation != "" {
			_, _ = fmt.Fprintf(f.writer, ", collation %s", db.Collation)
		}
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer)
	}

	for _, table := range db.Tables {
		writeMarkdownTable(f.writer, db, table, false)
	}

	if len(db.Sequences) > 0 {
		_, _ = fmt.Fprintln(f.writer, "## Sequences")
		_, _ = fmt.Fprintln(f.writer)
		for _, sequence := range db.Sequences {
			options := sequenceOptions(sequence)
			if len(options) > 0 {
				_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", sequence.Name, strings.Join(options, ", "))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- **%s**\n", sequence.Name)
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}
	return nil
}

func writeMarkdownTable(w io.Writer, db *schema.DatabaseModel, table *schema.Table, withIncoming bool) {
	// Table header
	if table.IsView {
		_, _ = fmt.Fprintf(w, "## %s (view)\n\n", table.Name)
	} else {
		_, _ = fmt.Fprintf(w, "## %s\n\n", table.Name)
	}
	if table.Comment != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", table.Comment)
	}

	// Columns
	_, _ = fmt.Fprintln(w, "### Columns")
	_, _ = fmt.Fprintln(w)
	for _, column := range table.Columns {
		var constraints []string
		if isPrimaryKeyColumn(table, column) {
			constraints = append(constraints, "PK")
		}
		constraints = append(constraints, columnConstraints(table, column)...)

		if len(constraints) > 0 {
			_, _ = fmt.Fprintf(w, "- **%s:** %s, %s\n", column.Name, columnType(column), strings.Join(constraints, ", "))
		} else {
			_, _ = fmt.Fprintf(w, "- **%s:** %s\n", column.Name, columnType(column))
		}
	}
	_, _ = fmt.Fprintln(w)

	// Relations
	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(w, "### References")
		_, _ = fmt.Fprintln(w)
		for _, rel := range relationsOf(table) {
			_, _ = fmt.Fprintf(w, "- %s → %s.%s (%s)\n",
				strings.Join(rel.SourceColumns, ", "),
				rel.TargetTable,
				strings.Join(rel.TargetColumns, ", "),
				rel.details())
		}
		_, _ = fmt.Fprintln(w)
	}

	// Indexes
	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(w, "### Idx")
		_, _ = fmt.Fprintln(w)
		for _, index := range table.Indexes {
			line := fmt.Sprintf("- %s on (%s)", index.Name, strings.Join(indexColumns(index), ", "))
			for _, kind := range indexKinds(index) {
				line += ", " + strings.ToLower(kind)
			}
			_, _ = fmt.Fprintln(w, line)
		}
		_, _ = fmt.Fprintln(w)
	}

	if withIncoming {
		if incoming := incomingRelations(db, table); len(incoming) > 0 {
			_, _ = fmt.Fprintln(w, "### Referenced by")
			_, _ = fmt.Fprintln(w)
			for _, rel := range incoming {
				_, _ = fmt.Fprintf(w, "- %s.%s → %s (%s)\n",
					rel.SourceTable, strings.Join(rel.SourceColumns, ", "),
					strings.Join(rel.TargetColumns, ", "),
					rel.details())
			}
			_, _ = fmt.Fprintln(w)
		}
	}
}
