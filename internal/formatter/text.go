package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/xgscaffold/internal/schema"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(db *schema.DatabaseModel) error {
	for i, table := range db.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		writeTextTable(f.writer, db, table, false)
	}

	if len(db.Sequences) > 0 {
		if len(db.Tables) > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		for _, sequence := range db.Sequences {
			_, _ = fmt.Fprintln(f.writer, strings.Join(append([]string{"SEQUENCE", sequence.Name}, sequenceOptions(sequence)...), " "))
		}
	}
	return nil
}

func writeTextTable(w io.Writer, db *schema.DatabaseModel, table *schema.Table, withIncoming bool) {
	// Table header with primary key
	kind := "TABLE"
	if table.IsView {
		kind = "VIEW"
	}
	pkStr := ""
	if pk := primaryKeyNames(table); len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pk, ", "))
	}
	_, _ = fmt.Fprintf(w, "%s %s%s\n", kind, table.Name, pkStr)
	if table.Comment != "" {
		_, _ = fmt.Fprintf(w, "  -- %s\n", table.Comment)
	}

	for _, column := range table.Columns {
		parts := append([]string{column.Name + ":", columnType(column)}, columnConstraints(table, column)...)
		_, _ = fmt.Fprintf(w, "  %s\n", strings.Join(parts, " "))
	}

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  RELATIONS:")
		for _, rel := range relationsOf(table) {
			_, _ = fmt.Fprintf(w, "    %s → %s.%s (%s)\n",
				strings.Join(rel.SourceColumns, ","), rel.TargetTable, strings.Join(rel.TargetColumns, ","), rel.details())
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  INDEXES:")
		for _, index := range table.Indexes {
			line := fmt.Sprintf("    %s (%s)", index.Name, strings.Join(indexColumns(index), ", "))
			if kinds := indexKinds(index); len(kinds) > 0 {
				line += " " + strings.Join(kinds, " ")
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}

	if withIncoming {
		if incoming := incomingRelations(db, table); len(incoming) > 0 {
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, "  REFERENCED BY:")
			for _, rel := range incoming {
				_, _ = fmt.Fprintf(w, "    %s.%s → %s (%s)\n",
					rel.SourceTable, strings.Join(rel.SourceColumns, ","), strings.Join(rel.TargetColumns, ","), rel.details())
			}
		}
	}
}
