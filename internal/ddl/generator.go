// Package ddl renders a schema.DatabaseModel back into DDL statements for a
// given server version. Every clause that only some servers understand is
// gated on the version's capability flags.
package ddl

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/xgscaffold/internal/logging"
	"github.com/tordrt/xgscaffold/internal/schema"
	"github.com/tordrt/xgscaffold/metadata"
	"github.com/tordrt/xgscaffold/serverversion"
)

// MaxIdentifierLength is the longest index or constraint name the servers
// accept. Longer names are truncated.
const MaxIdentifierLength = 64

var (
	ErrSequencesNotSupported         = errors.New("sequences are not supported")
	ErrDefaultExpressionNotSupported = errors.New("default value expressions are not supported")
	ErrDateTimeCurrentTimestamp      = errors.New("datetime columns cannot be generated on add or update")
)

var (
	storeTypePattern = regexp.MustCompile(`(?i)^\s*([a-z0-9]+)\s*(?:\(\s*(\d+)?\s*\))?`)

	spatialStoreTypes = []string{
		"geometry", "point", "linestring", "polygon",
		"multipoint", "multilinestring", "multipolygon", "geometrycollection",
	}
	autoIncrementStoreTypes = []string{"tinyint", "smallint", "mediumint", "int", "bigint"}
)

// Generator renders DDL for one server version.
type Generator struct {
	Version *serverversion.ServerVersion
	Logger  *zap.Logger
}

// NewGenerator returns a generator for version. A nil version means
// serverversion.LatestSupportedServerVersion.
func NewGenerator(version *serverversion.ServerVersion, logger *zap.Logger) *Generator {
	if version == nil {
		version = serverversion.LatestSupportedServerVersion
	}
	return &Generator{Version: version, Logger: logging.OrNop(logger)}
}

func (g *Generator) supports() *serverversion.Support {
	return g.Version.Supports()
}

func (g *Generator) logger() *zap.Logger {
	return logging.OrNop(g.Logger)
}

// Script renders the whole model: sequences, then every base table with its
// indexes, then all foreign keys so that forward references resolve. Views
// are skipped because their definition is not part of the model.
func (g *Generator) Script(model *schema.DatabaseModel) (string, error) {
	var statements []string

	for _, sequence := range model.Sequences {
		stmt, err := g.CreateSequence(sequence)
		if err != nil {
			return "", err
		}
		statements = append(statements, stmt)
	}

	for _, table := range model.Tables {
		if table.IsView {
			g.logger().Debug("skipping view", zap.String("table", table.Name))
			continue
		}

		stmt, err := g.CreateTable(table)
		if err != nil {
			return "", err
		}
		statements = append(statements, stmt)

		for _, index := range table.Indexes {
			stmt, err := g.CreateIndex(table, index)
			if err != nil {
				return "", err
			}
			if stmt != "" {
				statements = append(statements, stmt)
			}
		}
	}

	for _, table := range model.Tables {
		if table.IsView {
			continue
		}
		for _, fk := range table.ForeignKeys {
			stmt, err := g.AddForeignKey(fk)
			if err != nil {
				return "", err
			}
			statements = append(statements, stmt)
		}
	}

	return strings.Join(statements, "\n"), nil
}

// CreateTable renders CREATE TABLE with columns, primary key and table
// options. Indexes and foreign keys are separate statements.
func (g *Generator) CreateTable(table *schema.Table) (string, error) {
	if table.IsView {
		return "", fmt.Errorf("cannot create table for view %s", table.Name)
	}
	if len(table.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", table.Name)
	}

	var definitions []string
	for _, column := range table.Columns {
		definition, err := g.columnDefinition(column)
		if err != nil {
			return "", fmt.Errorf("failed to render column %s.%s: %w", table.Name, column.Name, err)
		}
		definitions = append(definitions, definition)
	}

	if pk := table.PrimaryKey; pk != nil {
		definitions = append(definitions,
			"PRIMARY KEY ("+g.keyColumnList(pk.Columns, pk.PrefixLengths(), nil)+")")
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(quote(table.Name))
	sb.WriteString(" (\n")
	for i, definition := range definitions {
		sb.WriteString("    ")
		sb.WriteString(definition)
		if i < len(definitions)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(")")

	if charset := table.CharSet(); charset != "" {
		sb.WriteString(" CHARACTER SET=" + charset)
	}
	if collation := table.Collation(); collation != "" {
		sb.WriteString(" COLLATE=" + collation)
	}
	if table.Comment != "" {
		sb.WriteString(" COMMENT=" + literal(table.Comment))
	}
	sb.WriteString(";\n")

	return sb.String(), nil
}

func (g *Generator) columnDefinition(column *schema.Column) (string, error) {
	storeType := strings.TrimSpace(column.StoreType)
	baseType, length := baseStoreType(storeType)
	columnType := withCharSetAndCollation(storeType, column)

	var sb strings.Builder
	sb.WriteString(quote(column.Name))
	sb.WriteString(" ")
	sb.WriteString(columnType)

	if column.IsComputed() {
		sb.WriteString(" AS (" + *column.ComputedColumnSQL + ")")
		if column.IsStored != nil && *column.IsStored {
			sb.WriteString(" STORED")
		} else {
			sb.WriteString(" VIRTUAL")
		}
		if column.IsNullable && g.supports().NullableGeneratedColumns() {
			sb.WriteString(" NULL")
		}
		writeComment(&sb, column.Comment)
		return sb.String(), nil
	}

	if column.IsNullable {
		sb.WriteString(" NULL")
	} else {
		sb.WriteString(" NOT NULL")
	}

	generated := metadata.Never
	if column.ValueGenerated != nil {
		generated = *column.ValueGenerated
	}

	autoIncrement := generated == metadata.OnAdd &&
		column.DefaultValueSQL == nil &&
		slices.Contains(autoIncrementStoreTypes, baseType)

	defaultValue := column.DefaultValueSQL
	var onUpdate string
	if generated == metadata.OnAddOrUpdate || generated == metadata.OnUpdate {
		switch baseType {
		case "datetime":
			if !g.supports().DateTimeCurrentTimestamp() {
				return "", fmt.Errorf("%w on %s", ErrDateTimeCurrentTimestamp, g.Version)
			}
			fallthrough
		case "timestamp":
			now := currentTimestamp(length)
			if generated == metadata.OnAddOrUpdate && defaultValue == nil {
				defaultValue = &now
			}
			onUpdate = now
		}
	}

	if defaultValue != nil && !autoIncrement {
		clause, err := g.defaultClause(*defaultValue, storeType)
		if err != nil {
			return "", err
		}
		sb.WriteString(clause)
	}

	if srid, ok := column.SRID(); ok &&
		slices.Contains(spatialStoreTypes, baseType) &&
		g.supports().SpatialReferenceSystemRestrictedColumns() {
		sb.WriteString(" /*!80003 SRID " + strconv.Itoa(srid) + " */")
	}

	if autoIncrement {
		sb.WriteString(" AUTO_INCREMENT")
	} else if onUpdate != "" {
		sb.WriteString(" ON UPDATE " + onUpdate)
	}

	writeComment(&sb, column.Comment)
	return sb.String(), nil
}

// defaultClause renders DEFAULT for storeType. Types that take no literal
// default need the expression syntax of newer servers.
func (g *Generator) defaultClause(defaultValueSQL, storeType string) (string, error) {
	if isDefaultValueSupported(storeType) {
		return " DEFAULT " + defaultValueSQL, nil
	}

	if !g.supports().DefaultExpression() && !g.supports().AlternativeDefaultExpression() {
		return "", fmt.Errorf("%w on %s for type %s", ErrDefaultExpressionNotSupported, g.Version, storeType)
	}

	trimmed := strings.TrimSpace(defaultValueSQL)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		return " DEFAULT " + trimmed, nil
	}
	return " DEFAULT (" + trimmed + ")", nil
}

// CreateIndex renders CREATE INDEX. A spatial index on a server without
// spatial index support renders as "" with a warning.
func (g *Generator) CreateIndex(table *schema.Table, index *schema.Index) (string, error) {
	if len(index.Columns) == 0 {
		return "", fmt.Errorf("index %s on %s has no columns", index.Name, table.Name)
	}

	if index.IsSpatial() && !g.supports().SpatialIndexes() {
		g.logger().Warn("spatial indexes are not supported, the index will be ignored",
			zap.String("table", table.Name),
			zap.String("index", index.Name),
			zap.Stringer("serverVersion", g.Version))
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if index.IsUnique {
		sb.WriteString("UNIQUE ")
	}
	if index.IsFullText() {
		sb.WriteString("FULLTEXT ")
	}
	if index.IsSpatial() {
		sb.WriteString("SPATIAL ")
	}

	var descending []bool
	if g.supports().DescendingIndexes() {
		descending = index.IsDescending
	}

	fmt.Fprintf(&sb, "INDEX %s ON %s (%s)",
		quote(truncate(index.Name)),
		quote(table.Name),
		g.keyColumnList(index.Columns, index.PrefixLengths(), descending))

	if parser := index.Parser(); parser != "" && index.IsFullText() && g.supports().FullTextParser() {
		sb.WriteString(" /*!50700 WITH PARSER " + quote(parser) + " */")
	}
	sb.WriteString(";\n")

	return sb.String(), nil
}

// AddForeignKey renders ALTER TABLE ... ADD CONSTRAINT ... FOREIGN KEY.
func (g *Generator) AddForeignKey(fk *schema.ForeignKey) (string, error) {
	if fk.Table == nil || fk.PrincipalTable == nil {
		return "", fmt.Errorf("foreign key %s is not attached to both tables", fk.Name)
	}
	if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.PrincipalColumns) {
		return "", fmt.Errorf("foreign key %s has %d columns referencing %d columns",
			fk.Name, len(fk.Columns), len(fk.PrincipalColumns))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quote(fk.Table.Name),
		quote(truncate(fk.Name)),
		columnList(fk.Columns),
		quote(fk.PrincipalTable.Name),
		columnList(fk.PrincipalColumns))

	if fk.OnDelete != nil {
		sb.WriteString(" ON DELETE " + fk.OnDelete.String())
	}
	sb.WriteString(";\n")

	return sb.String(), nil
}

// CreateSequence renders CREATE SEQUENCE. Servers without sequences get
// ErrSequencesNotSupported.
func (g *Generator) CreateSequence(sequence *schema.Sequence) (string, error) {
	if !g.supports().Sequences() {
		return "", fmt.Errorf("cannot create sequence %s: %w in server version %s",
			sequence.Name, ErrSequencesNotSupported, g.Version)
	}

	var sb strings.Builder
	sb.WriteString("CREATE SEQUENCE " + quote(sequence.Name))

	if sequence.StartValue != nil {
		sb.WriteString(" START WITH " + strconv.FormatInt(*sequence.StartValue, 10))
	}
	if sequence.IncrementBy != nil {
		sb.WriteString(" INCREMENT BY " + strconv.Itoa(*sequence.IncrementBy))
	}

	// MariaDB rejects a start value below the default minimum.
	minValue := sequence.MinValue
	if sequence.StartValue != nil && *sequence.StartValue <= 0 &&
		(minValue == nil || *minValue > *sequence.StartValue) {
		minValue = sequence.StartValue
	}
	if minValue != nil {
		sb.WriteString(" MINVALUE " + strconv.FormatInt(*minValue, 10))
	}
	if sequence.MaxValue != nil {
		sb.WriteString(" MAXVALUE " + strconv.FormatInt(*sequence.MaxValue, 10))
	}

	if sequence.IsCyclic != nil && *sequence.IsCyclic {
		sb.WriteString(" CYCLE")
	} else {
		sb.WriteString(" NOCYCLE")
	}
	sb.WriteString(";\n")

	return sb.String(), nil
}

func (g *Generator) keyColumnList(columns []*schema.Column, prefixLengths []int, descending []bool) string {
	parts := make([]string, len(columns))
	for i, column := range columns {
		part := quote(column.Name)
		if i < len(prefixLengths) && prefixLengths[i] > 0 {
			part += "(" + strconv.Itoa(prefixLengths[i]) + ")"
		}
		if i < len(descending) && descending[i] {
			part += " DESC"
		}
		parts[i] = part
	}
	return strings.Join(parts, ", ")
}

func columnList(columns []*schema.Column) string {
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = quote(column.Name)
	}
	return strings.Join(parts, ", ")
}

// withCharSetAndCollation appends the column's CHARACTER SET and COLLATE
// annotations to storeType. json columns take neither.
func withCharSetAndCollation(storeType string, column *schema.Column) string {
	if strings.Contains(strings.ToLower(storeType), "json") {
		return storeType
	}
	if charset := column.CharSet(); charset != "" {
		storeType += " CHARACTER SET " + charset
	}
	if collation := column.Collation(); collation != "" {
		storeType += " COLLATE " + collation
	}
	return storeType
}

func baseStoreType(storeType string) (name, length string) {
	m := storeTypePattern.FindStringSubmatch(storeType)
	if m == nil {
		return strings.ToLower(storeType), ""
	}
	return strings.ToLower(m[1]), m[2]
}

func currentTimestamp(length string) string {
	return "CURRENT_TIMESTAMP(" + length + ")"
}

func isDefaultValueSupported(storeType string) bool {
	lower := strings.ToLower(storeType)
	base, _ := baseStoreType(storeType)
	return !strings.Contains(lower, "blob") &&
		!strings.Contains(lower, "text") &&
		!strings.Contains(lower, "json") &&
		!slices.Contains(spatialStoreTypes, base)
}

func writeComment(sb *strings.Builder, comment string) {
	if comment != "" {
		sb.WriteString(" COMMENT " + literal(comment))
	}
}

func truncate(name string) string {
	runes := []rune(name)
	if len(runes) <= MaxIdentifierLength {
		return name
	}
	return string(runes[:MaxIdentifierLength])
}

func quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func literal(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}
