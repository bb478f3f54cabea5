// Package formatter renders an introspected schema.DatabaseModel for humans
// and language models: compact text, markdown, yaml, DDL or the scaffolded
// entity model.
package formatter

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/xgscaffold/internal/schema"
	"github.com/tordrt/xgscaffold/metadata"
	"github.com/tordrt/xgscaffold/serverversion"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
	FormatSQL      = "sql"
	FormatEntities = "entities"
)

// Formats lists every format accepted by New.
var Formats = []string{FormatText, FormatMarkdown, FormatYAML, FormatSQL, FormatEntities}

// Formatter writes a database model somewhere.
type Formatter interface {
	Format(db *schema.DatabaseModel) error
}

// Options configures the formatters that need more than a writer.
type Options struct {
	// ServerVersion selects the DDL dialect of the sql format.
	ServerVersion *serverversion.ServerVersion
	Logger        *zap.Logger
}

// New returns the formatter for format writing to w.
func New(format string, w io.Writer, opts Options) (Formatter, error) {
	switch format {
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	case FormatYAML:
		return NewYAMLFormatter(w), nil
	case FormatSQL:
		return NewSQLFormatter(w, opts.ServerVersion, opts.Logger), nil
	case FormatEntities:
		return NewEntityFormatter(w, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}

// relation is a foreign key seen from either end.
type relation struct {
	Name          string
	SourceTable   string
	SourceColumns []string
	TargetTable   string
	TargetColumns []string
	Cardinality   string
	OnDelete      *schema.ReferentialAction
}

func (r relation) details() string {
	if r.OnDelete == nil || *r.OnDelete == schema.NoAction {
		return r.Cardinality
	}
	return fmt.Sprintf("%s, ON DELETE %s", r.Cardinality, r.OnDelete.String())
}

func newRelation(fk *schema.ForeignKey) relation {
	cardinality := "many-to-one"
	if isUniqueOver(fk.Table, fk.Columns) {
		cardinality = "one-to-one"
	}
	return relation{
		Name:          fk.Name,
		SourceTable:   fk.Table.Name,
		SourceColumns: columnNames(fk.Columns),
		TargetTable:   fk.PrincipalTable.Name,
		TargetColumns: columnNames(fk.PrincipalColumns),
		Cardinality:   cardinality,
		OnDelete:      fk.OnDelete,
	}
}

func relationsOf(table *schema.Table) []relation {
	relations := make([]relation, 0, len(table.ForeignKeys))
	for _, fk := range table.ForeignKeys {
		relations = append(relations, newRelation(fk))
	}
	return relations
}

// incomingRelations finds all foreign keys pointing to table
func incomingRelations(db *schema.DatabaseModel, table *schema.Table) []relation {
	var incoming []relation
	for _, t := range db.Tables {
		for _, fk := range t.ForeignKeys {
			if fk.PrincipalTable == table {
				incoming = append(incoming, newRelation(fk))
			}
		}
	}
	return incoming
}

// isUniqueOver reports whether the primary key or a unique index covers
// exactly columns.
func isUniqueOver(table *schema.Table, columns []*schema.Column) bool {
	if table.PrimaryKey != nil && sameColumns(table.PrimaryKey.Columns, columns) {
		return true
	}
	for _, index := range table.Indexes {
		if index.IsUnique && sameColumns(index.Columns, columns) {
			return true
		}
	}
	return false
}

func sameColumns(a, b []*schema.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for _, c := range a {
		if !slices.Contains(b, c) {
			return false
		}
	}
	return true
}

func isPrimaryKeyColumn(table *schema.Table, column *schema.Column) bool {
	return table.PrimaryKey != nil && slices.Contains(table.PrimaryKey.Columns, column)
}

func columnNames(columns []*schema.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

func primaryKeyNames(table *schema.Table) []string {
	if table.PrimaryKey == nil {
		return nil
	}
	return columnNames(table.PrimaryKey.Columns)
}

// columnType is the store type, with enum values spelled out.
func columnType(column *schema.Column) string {
	if len(column.EnumValues) == 0 {
		return column.StoreType
	}
	dataType := column.DataType
	if dataType == "" {
		dataType = "enum"
	}
	return fmt.Sprintf("%s (%s)", dataType, strings.Join(column.EnumValues, "|"))
}

// columnConstraints lists everything about a column besides name and type.
func columnConstraints(table *schema.Table, column *schema.Column) []string {
	var constraints []string

	if isUniqueOver(table, []*schema.Column{column}) && !isPrimaryKeyColumn(table, column) {
		constraints = append(constraints, "UNIQUE")
	}
	if !column.IsNullable {
		constraints = append(constraints, "NOT NULL")
	}

	switch {
	case column.IsComputed():
		kind := "VIRTUAL"
		if column.IsStored != nil && *column.IsStored {
			kind = "STORED"
		}
		constraints = append(constraints, fmt.Sprintf("AS (%s) %s", *column.ComputedColumnSQL, kind))
	case column.ValueGenerated != nil && *column.ValueGenerated == metadata.OnAdd && column.DefaultValueSQL == nil:
		constraints = append(constraints, "AUTO_INCREMENT")
	case column.ValueGenerated != nil && *column.ValueGenerated != metadata.Never && *column.ValueGenerated != metadata.OnAdd:
		constraints = append(constraints, "ON UPDATE")
	}

	if column.DefaultValueSQL != nil {
		constraints = append(constraints, "DEFAULT "+*column.DefaultValueSQL)
	}
	if charset := column.CharSet(); charset != "" {
		constraints = append(constraints, "CHARSET "+charset)
	}
	if collation := column.Collation(); collation != "" {
		constraints = append(constraints, "COLLATE "+collation)
	}
	if srid, ok := column.SRID(); ok {
		constraints = append(constraints, "SRID "+strconv.Itoa(srid))
	}
	return constraints
}

// indexColumns renders index columns with prefix lengths and sort order.
func indexColumns(index *schema.Index) []string {
	lengths := index.PrefixLengths()
	columns := make([]string, len(index.Columns))
	for i, c := range index.Columns {
		column := c.Name
		if i < len(lengths) && lengths[i] > 0 {
			column += fmt.Sprintf("(%d)", lengths[i])
		}
		if i < len(index.IsDescending) && index.IsDescending[i] {
			column += " DESC"
		}
		columns[i] = column
	}
	return columns
}

func indexKinds(index *schema.Index) []string {
	var kinds []string
	if index.IsUnique {
		kinds = append(kinds, "UNIQUE")
	}
	if index.IsFullText() {
		kinds = append(kinds, "FULLTEXT")
	}
	if index.IsSpatial() {
		kinds = append(kinds, "SPATIAL")
	}
	if parser := index.Parser(); parser != "" {
		kinds = append(kinds, "PARSER "+parser)
	}
	return kinds
}

func sequenceOptions(sequence *schema.Sequence) []string {
	var options []string
	if sequence.StartValue != nil {
		options = append(options, fmt.Sprintf("START %d", *sequence.StartValue))
	}
	if sequence.IncrementBy != nil {
		options = append(options, fmt.Sprintf("INCREMENT %d", *sequence.IncrementBy))
	}
	if sequence.MinValue != nil {
		options = append(options, fmt.Sprintf("MIN %d", *sequence.MinValue))
	}
	if sequence.MaxValue != nil {
		options = append(options, fmt.Sprintf("MAX %d", *sequence.MaxValue))
	}
	if sequence.IsCyclic != nil && *sequence.IsCyclic {
		options = append(options, "CYCLE")
	}
	return options
}

func sortedTables(db *schema.DatabaseModel) []*schema.Table {
	tables := slices.Clone(db.Tables)
	slices.SortFunc(tables, func(a, b *schema.Table) int { return strings.Compare(a.Name, b.Name) })
	return tables
}
