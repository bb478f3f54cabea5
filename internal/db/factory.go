package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/xgscaffold/config"
	"github.com/tordrt/xgscaffold/internal/logging"
	"github.com/tordrt/xgscaffold/internal/schema"
	"github.com/tordrt/xgscaffold/metadata"
	"github.com/tordrt/xgscaffold/serverversion"
)

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ColumnNotFoundError is returned when a catalog row names a column the
// table does not have. It indicates inconsistent catalog reads and is
// never swallowed.
type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("could not find column '%s' in table '%s'", e.Column, e.Table)
}

// FactoryOptions selects the tables to introspect
type FactoryOptions struct {
	Tables        []string
	ExcludeTables []string
}

func (o FactoryOptions) filter() func(string) bool {
	opts := config.Options{Tables: o.Tables, ExcludeTables: o.ExcludeTables}
	return opts.TableFilter()
}

// DatabaseModelFactory reverse-engineers a live catalog into a
// schema.DatabaseModel
type DatabaseModelFactory struct {
	options *config.Options
	logger  *zap.Logger
}

// NewDatabaseModelFactory creates a factory. Nil options mean
// config.Default and a nil logger discards output.
func NewDatabaseModelFactory(options *config.Options, logger *zap.Logger) *DatabaseModelFactory {
	if options == nil {
		options = config.Default()
	}
	return &DatabaseModelFactory{
		options: options,
		logger:  logging.OrNop(logger),
	}
}

// Create connects with dsn, introspects the configured database, or else
// the one dsn names, and closes the connection again. Scaffold:* options
// are read from and stripped off dsn before it reaches the driver.
func (f *DatabaseModelFactory) Create(ctx context.Context, dsn string, opts FactoryOptions) (*schema.DatabaseModel, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, &config.ValidationError{Field: "dsn", Message: "must not be empty"}
	}

	settings, providerDSN, err := f.options.Scaffold.Settings().FromDSN(dsn)
	if err != nil {
		return nil, err
	}

	client, err := NewMySQLClient(ctx, providerDSN)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	return f.create(ctx, client.GetDB(), f.databaseFor(client.Database()), settings, opts)
}

// databaseFor prefers the configured database over named.
func (f *DatabaseModelFactory) databaseFor(named string) string {
	if f.options.Database != "" {
		return f.options.Database
	}
	return named
}

// CreateFromDB introspects database over an existing connection, which is
// left open. An empty database name means the configured database, or
// else the connection's current one.
func (f *DatabaseModelFactory) CreateFromDB(ctx context.Context, q Queryer, database string, opts FactoryOptions) (*schema.DatabaseModel, error) {
	if q == nil {
		return nil, errors.New("connection must not be nil")
	}
	return f.create(ctx, q, database, f.options.Scaffold.Settings(), opts)
}

func (f *DatabaseModelFactory) create(ctx context.Context, q Queryer, database string, settings config.ScaffoldSettings, opts FactoryOptions) (*schema.DatabaseModel, error) {
	if database == "" {
		database = f.options.Database
	}
	if database == "" {
		var current sql.NullString
		if err := q.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&current); err != nil {
			return nil, fmt.Errorf("failed to query current database: %w", err)
		}
		if !current.Valid || current.String == "" {
			return nil, errors.New("no database selected")
		}
		database = current.String
	}

	sv, err := f.resolveServerVersion(ctx, q)
	if err != nil {
		return nil, err
	}
	f.logger.Info("using server version", zap.Stringer("serverVersion", sv))

	in := &introspection{
		q:        q,
		database: database,
		support:  sv.Supports(),
		settings: settings,
		filter:   opts.filter(),
		logger:   f.logger.With(zap.String("database", database)),
	}
	return in.run(ctx)
}

// resolveServerVersion prefers the configured version, then asks the
// server, then falls back to the latest supported version.
func (f *DatabaseModelFactory) resolveServerVersion(ctx context.Context, q Queryer) (*serverversion.ServerVersion, error) {
	sv, err := f.options.ParsedServerVersion()
	if err != nil {
		return nil, err
	}
	if sv != nil {
		return sv, nil
	}

	f.logger.Debug("no explicit server version was set")
	sv, err = serverversion.AutoDetectDB(ctx, q)
	if err != nil {
		f.logger.Warn("no server version could be detected, the latest supported version will be used",
			zap.Stringer("serverVersion", serverversion.LatestSupportedServerVersion),
			zap.Error(err))
		return serverversion.LatestSupportedServerVersion, nil
	}

	f.logger.Debug("server version was detected", zap.Stringer("serverVersion", sv))
	return sv, nil
}

// introspection is the state of one Create call. Queries run strictly one
// after another and every result set is closed before the next query.
type introspection struct {
	q        Queryer
	database string
	support  *serverversion.Support
	settings config.ScaffoldSettings
	filter   func(string) bool
	logger   *zap.Logger
}

func (in *introspection) run(ctx context.Context) (*schema.DatabaseModel, error) {
	model := &schema.DatabaseModel{DatabaseName: in.database}

	defaultCharSet, defaultCollation, err := in.databaseSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read database settings: %w", err)
	}
	if in.settings.CharSet && defaultCharSet != "" {
		model.SetAnnotation(schema.CharSet, defaultCharSet)
	}
	if in.settings.Collation {
		model.Collation = defaultCollation
	}

	tables, err := in.tables(ctx, model.CharSet(), model.Collation)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		table.Database = model
	}
	model.Tables = tables

	if in.support.Sequences() {
		sequences, err := in.sequences(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to extract sequences: %w", err)
		}
		for _, sequence := range sequences {
			sequence.Database = model
		}
		model.Sequences = sequences
	}

	return model, nil
}

func (in *introspection) databaseSettings(ctx context.Context) (charset, collation string, err error) {
	rows, err := in.q.QueryContext(ctx, databaseSettingsQuery, in.database)
	if err != nil {
		return "", "", err
	}
	defer rows.Close()

	if rows.Next() {
		var cs, coll sql.NullString
		if err := rows.Scan(&cs, &coll); err != nil {
			return "", "", err
		}
		charset, collation = cs.String, coll.String
	}

	return charset, collation, rows.Err()
}

// tables reads the table catalog and then fills columns, primary keys,
// indexes and foreign keys for all tables, one kind at a time.
func (in *introspection) tables(ctx context.Context, defaultCharSet, defaultCollation string) ([]*schema.Table, error) {
	tables, err := in.tableList(ctx, defaultCharSet, defaultCollation)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}

	for _, table := range tables {
		if err := in.extractColumns(ctx, table, defaultCharSet, defaultCollation); err != nil {
			return nil, fmt.Errorf("failed to extract columns of %s: %w", table.Name, err)
		}
	}
	for _, table := range tables {
		if err := in.extractPrimaryKey(ctx, table); err != nil {
			return nil, fmt.Errorf("failed to extract primary key of %s: %w", table.Name, err)
		}
	}
	for _, table := range tables {
		if err := in.extractIndexes(ctx, table); err != nil {
			return nil, fmt.Errorf("failed to extract indexes of %s: %w", table.Name, err)
		}
		if err := in.extractFullTextParsers(ctx, table); err != nil {
			return nil, fmt.Errorf("failed to extract fulltext parsers of %s: %w", table.Name, err)
		}
	}
	for _, table := range tables {
		if err := in.extractForeignKeys(ctx, table, tables); err != nil {
			return nil, fmt.Errorf("failed to extract foreign keys of %s: %w", table.Name, err)
		}
	}

	return tables, nil
}

func (in *introspection) tableList(ctx context.Context, defaultCharSet, defaultCollation string) ([]*schema.Table, error) {
	collationColumn := "collation_name"
	if in.support.CollationCharacterSetApplicabilityWithFullCollationNameColumn() {
		collationColumn = "full_collation_name"
	}

	rows, err := in.q.QueryContext(ctx, fmt.Sprintf(tablesQuery, collationColumn), in.database)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*schema.Table
	for rows.Next() {
		var name, tableType string
		var comment, charset, collation sql.NullString
		if err := rows.Scan(&name, &tableType, &comment, &charset, &collation); err != nil {
			return nil, err
		}

		table := &schema.Table{
			Name:    name,
			Comment: comment.String,
			IsView:  !strings.EqualFold(tableType, "base table"),
		}
		if in.settings.CharSet && charset.String != defaultCharSet {
			table.SetAnnotation(schema.CharSet, nonEmpty(charset.String))
		}
		if in.settings.Collation && collation.String != defaultCollation {
			table.SetAnnotation(schema.Collation, nonEmpty(collation.String))
		}

		if in.filter != nil && !in.filter(table.Name) {
			continue
		}
		if table.IsView && !in.settings.Views {
			continue
		}
		tables = append(tables, table)
	}

	return tables, rows.Err()
}

// columnTypeOverrides finds longtext columns that MariaDB created for the
// json alias, identified by their json_valid check constraint.
func (in *introspection) columnTypeOverrides(ctx context.Context, table *schema.Table) (map[string]bool, error) {
	if !in.support.IdentifyJsonColumsByCheckConstraints() || !in.support.InformationSchemaCheckConstraintsTable() {
		return nil, nil
	}

	rows, err := in.q.QueryContext(ctx, checkConstraintsQuery, in.database, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clauses []string
	for rows.Next() {
		var name, clause sql.NullString
		if err := rows.Scan(&name, &clause); err != nil {
			return nil, err
		}
		clauses = append(clauses, clause.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jsonColumnOverrides(clauses), nil
}

func (in *introspection) extractColumns(ctx context.Context, table *schema.Table, defaultCharSet, defaultCollation string) error {
	overrides, err := in.columnTypeOverrides(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to read check constraints: %w", err)
	}

	rows, err := in.q.QueryContext(ctx, columnsQuery, in.database, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return err
	}

	for rows.Next() {
		rec, err := scanRecord(rows, names)
		if err != nil {
			return err
		}
		table.Columns = append(table.Columns, in.buildColumn(table, rec, overrides, defaultCharSet, defaultCollation))
	}

	return rows.Err()
}

func (in *introspection) buildColumn(table *schema.Table, rec record, overrides map[string]bool, defaultCharSet, defaultCollation string) *schema.Column {
	name := rec.str("column_name")
	defaultValue := rec.ptr("column_default")
	nullable := rec.str("is_nullable") == "1"
	dataType := rec.str("data_type")
	charset := rec.str("character_set_name")
	collation := rec.str("collation_name")
	columnType := stripTrailingComment(rec.str("column_type"))
	extra := rec.str("extra")

	var generation *string
	if g := rec.str("generation_expression"); g != "" {
		g = normalizeGeneration(in.support, g)
		generation = &g
	}

	var isStored *bool
	if generation != nil {
		stored := indexFold(extra, "stored generated") >= 0
		isStored = &stored
	}

	if overrides[name] {
		columnType = overrideJSONType(dataType, charset, collation)
	}

	// json columns always use the enforced charset and collation, which
	// the server refuses to have specified explicitly.
	if columnType == "json" {
		charset, collation = "", ""
	}

	isSQLFunction := isDefaultValueSQLFunction(in.support, defaultValue, dataType)
	isExpression := false
	if defaultValue != nil {
		isExpression = indexFold(extra, "DEFAULT_GENERATED") >= 0 && !isSimpleNumericDefaultValue(*defaultValue)

		if in.support.AlternativeDefaultExpression() {
			defaultValue, isExpression = convertMariaDbDefault(*defaultValue)
		}

		if generation == nil {
			defaultValue = filterClrDefaults(dataType, nullable, defaultValue)
		} else {
			defaultValue = nil
		}
	}

	column := &schema.Column{
		Table:             table,
		Name:              name,
		StoreType:         columnType,
		DataType:          dataType,
		IsNullable:        nullable,
		DefaultValueSQL:   defaultValueSQL(defaultValue, dataType, isSQLFunction, isExpression),
		ComputedColumnSQL: generation,
		IsStored:          isStored,
		ValueGenerated:    valueGenerated(extra, defaultValue, dataType),
		Comment:           rec.str("column_comment"),
		EnumValues:        parseEnumValues(columnType),
	}

	if in.settings.CharSet && charset != firstNonEmpty(table.CharSet(), defaultCharSet) {
		column.SetAnnotation(schema.CharSet, nonEmpty(charset))
	}
	if in.settings.Collation && collation != firstNonEmpty(table.Collation(), defaultCollation) {
		column.SetAnnotation(schema.Collation, nonEmpty(collation))
	}
	if srid, ok := rec.int("srs_id"); ok {
		column.SetAnnotation(schema.SpatialReferenceSystemID, srid)
	}

	return column
}

func (in *introspection) extractPrimaryKey(ctx context.Context, table *schema.Table) error {
	rows, err := in.q.QueryContext(ctx, primaryKeyQuery, in.database, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, columns, subParts string
		if err := rows.Scan(&name, &columns, &subParts); err != nil {
			return err
		}
		if err := assignPrimaryKey(table, name, columns, subParts); err != nil {
			in.logger.Error("error assigning primary key", zap.String("table", table.Name), zap.Error(err))
		}
	}

	return rows.Err()
}

func assignPrimaryKey(table *schema.Table, name, columnList, subParts string) error {
	key := &schema.PrimaryKey{Table: table, Name: name}
	for _, columnName := range strings.Split(columnList, ",") {
		column := table.Column(columnName)
		if column == nil {
			return &ColumnNotFoundError{Table: table.Name, Column: columnName}
		}
		key.Columns = append(key.Columns, column)
	}

	prefixLengths, err := parsePrefixLengths(subParts)
	if err != nil {
		return fmt.Errorf("invalid prefix lengths '%s': %w", subParts, err)
	}
	if len(prefixLengths) > 1 || len(prefixLengths) == 1 && prefixLengths[0] > 0 {
		key.SetAnnotation(schema.IndexPrefixLength, prefixLengths)
	}

	// A lone uuid key without generation is generated on add by the client.
	first := key.Columns[0]
	if len(key.Columns) == 1 &&
		first.ValueGenerated == nil &&
		(first.DefaultValueSQL == nil ||
			strings.EqualFold(*first.DefaultValueSQL, "uuid()") ||
			strings.EqualFold(*first.DefaultValueSQL, "uuid_to_bin(uuid())")) &&
		isGUIDStoreType(first.StoreType) {
		onAdd := metadata.OnAdd
		first.ValueGenerated = &onAdd
		first.DefaultValueSQL = nil
	}

	table.PrimaryKey = key
	return nil
}

func isGUIDStoreType(storeType string) bool {
	return strings.EqualFold(storeType, "char(36)") || strings.EqualFold(storeType, "binary(16)")
}

type indexRow struct {
	name       string
	nonUnique  bool
	columns    string
	subParts   string
	collations string
	indexType  string
}

func (in *introspection) extractIndexes(ctx context.Context, table *schema.Table) error {
	rows, err := in.q.QueryContext(ctx, indexesQuery, in.database, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row indexRow
		var collations sql.NullString
		if err := rows.Scan(&row.name, &row.nonUnique, &row.columns, &row.subParts, &collations, &row.indexType); err != nil {
			return err
		}
		row.collations = collations.String

		if err := assignIndex(table, row); err != nil {
			var notFound *ColumnNotFoundError
			if errors.As(err, &notFound) {
				return err
			}
			in.logger.Error("error assigning index", zap.String("table", table.Name), zap.Error(err))
		}
	}

	return rows.Err()
}

// assignIndex adds the index described by row to table. Indexes over the
// same set of columns, in any order, are merged into one.
func assignIndex(table *schema.Table, row indexRow) error {
	var columns []*schema.Column
	for _, columnName := range strings.Split(row.columns, ",") {
		column := findColumn(table, columnName)
		if column == nil {
			return &ColumnNotFoundError{Table: table.Name, Column: columnName}
		}
		columns = append(columns, column)
	}

	prefixLengths, err := parsePrefixLengths(row.subParts)
	if err != nil {
		return fmt.Errorf("invalid prefix lengths '%s': %w", row.subParts, err)
	}

	index := findIndexOver(table, columns)
	isNew := index == nil
	if isNew {
		index = &schema.Index{Table: table, Name: row.name}
	}

	index.IsUnique = index.IsUnique || !row.nonUnique

	switch {
	case !anyPositive(prefixLengths):
		// An index over these columns without prefixes makes prefixes moot.
		index.RemoveAnnotation(schema.IndexPrefixLength)
	case isNew:
		index.SetAnnotation(schema.IndexPrefixLength, prefixLengths)
	default:
		merged := mergePrefixLengths(index.Columns, index.PrefixLengths(), columns, prefixLengths)
		if merged == nil {
			index.RemoveAnnotation(schema.IndexPrefixLength)
		} else {
			index.SetAnnotation(schema.IndexPrefixLength, merged)
		}
	}

	collations := strings.Split(row.collations, ",")
	index.IsDescending = make([]bool, len(collations))
	for i, c := range collations {
		index.IsDescending[i] = c == "D"
	}

	if strings.EqualFold(row.indexType, "spatial") {
		index.SetAnnotation(schema.SpatialIndex, true)
	}
	if strings.EqualFold(row.indexType, "fulltext") {
		index.SetAnnotation(schema.FullTextIndex, true)
	}

	if isNew {
		index.Columns = columns
		table.Indexes = append(table.Indexes, index)
	}
	return nil
}

// mergePrefixLengths combines prefix lengths of two indexes over the same
// columns, in the order of the existing index. A column without a prefix
// in either index has none in the result, otherwise the longer prefix
// wins. Nil means no column keeps a prefix.
func mergePrefixLengths(existingColumns []*schema.Column, existing []int, columns []*schema.Column, lengths []int) []int {
	if existing == nil {
		return nil
	}

	merged := make([]int, 0, len(existingColumns))
	positive := false
	for i, column := range existingColumns {
		if i >= len(existing) {
			break
		}
		l := 0
		if pos := slices.Index(columns, column); pos >= 0 && pos < len(lengths) {
			l = lengths[pos]
		}
		r := existing[i]

		m := 0
		if l != 0 && r != 0 {
			m = max(l, r)
		}
		positive = positive || m > 0
		merged = append(merged, m)
	}

	if !positive {
		return nil
	}
	return merged
}

func findIndexOver(table *schema.Table, columns []*schema.Column) *schema.Index {
	want := sortedColumnNames(columns)
	for _, index := range table.Indexes {
		have := sortedColumnNames(index.Columns)
		if slices.Equal(have, want) {
			return index
		}
	}
	return nil
}

func (in *introspection) extractFullTextParsers(ctx context.Context, table *schema.Table) error {
	var fullText []*schema.Index
	for _, index := range table.Indexes {
		if index.IsFullText() {
			fullText = append(fullText, index)
		}
	}
	if len(fullText) == 0 {
		return nil
	}

	createTable, err := in.showCreateTable(ctx, table)
	if err != nil {
		return err
	}

	parsers := fullTextParsers(createTable)
	for _, index := range fullText {
		if parser, ok := parsers[index.Name]; ok {
			index.SetAnnotation(schema.FullTextParser, parser)
		}
	}
	return nil
}

func (in *introspection) showCreateTable(ctx context.Context, table *schema.Table) (string, error) {
	query := fmt.Sprintf(showCreateTableQuery, quoteIdentifier(in.database), quoteIdentifier(table.Name))
	rows, err := in.q.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return "", err
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", err
		}
		return "", errors.New("the statement 'SHOW CREATE TABLE' did not return any results")
	}

	rec, err := scanRecord(rows, names)
	if err != nil {
		return "", err
	}
	return rec.str("create table"), nil
}

func (in *introspection) extractForeignKeys(ctx context.Context, table *schema.Table, tables []*schema.Table) error {
	rows, err := in.q.QueryContext(ctx, foreignKeysQuery, in.database, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, tableName, referencedTableName, pairedColumns string
		var deleteRule sql.NullString
		if err := rows.Scan(&name, &tableName, &referencedTableName, &pairedColumns, &deleteRule); err != nil {
			return err
		}

		principal := resolveTable(tables, referencedTableName)
		if principal == nil {
			in.logger.Warn("referenced table is not in dictionary",
				zap.String("table", table.Name),
				zap.String("referencedTable", referencedTableName))
			continue
		}

		fk, err := buildForeignKey(table, principal, name, pairedColumns, deleteRule.String)
		if err != nil {
			in.logger.Error("error assigning foreign key", zap.String("table", table.Name), zap.Error(err))
			continue
		}
		table.ForeignKeys = append(table.ForeignKeys, fk)
	}

	return rows.Err()
}

func buildForeignKey(table, principal *schema.Table, name, pairedColumns, deleteRule string) (*schema.ForeignKey, error) {
	fk := &schema.ForeignKey{
		Table:          table,
		Name:           name,
		PrincipalTable: principal,
		OnDelete:       referentialAction(deleteRule),
	}

	for _, pair := range strings.Split(pairedColumns, ",") {
		columnName, principalName, ok := strings.Cut(pair, "|")
		if !ok {
			return nil, fmt.Errorf("malformed column pair '%s' in foreign key %s", pair, name)
		}

		column := findColumnFold(table, columnName)
		if column == nil {
			return nil, &ColumnNotFoundError{Table: table.Name, Column: columnName}
		}
		principalColumn := findColumnFold(principal, principalName)
		if principalColumn == nil {
			return nil, &ColumnNotFoundError{Table: principal.Name, Column: principalName}
		}

		fk.Columns = append(fk.Columns, column)
		fk.PrincipalColumns = append(fk.PrincipalColumns, principalColumn)
	}

	return fk, nil
}

// referentialAction maps DELETE_RULE. RESTRICT behaves like NO ACTION on
// these servers.
func referentialAction(rule string) *schema.ReferentialAction {
	var action schema.ReferentialAction
	switch strings.ToUpper(rule) {
	case "NO ACTION", "RESTRICT":
		action = schema.NoAction
	case "CASCADE":
		action = schema.Cascade
	case "SET NULL":
		action = schema.SetNull
	default:
		return nil
	}
	return &action
}

func (in *introspection) sequences(ctx context.Context) ([]*schema.Sequence, error) {
	names, err := in.sequenceNames(ctx)
	if err != nil {
		return nil, err
	}

	sequences := make([]*schema.Sequence, 0, len(names))
	for _, name := range names {
		sequence, err := in.extractSequence(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sequence %s: %w", name, err)
		}
		sequences = append(sequences, sequence)
	}
	return sequences, nil
}

func (in *introspection) sequenceNames(ctx context.Context) ([]string, error) {
	rows, err := in.q.QueryContext(ctx, sequenceNamesQuery, in.database)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (in *introspection) extractSequence(ctx context.Context, name string) (*schema.Sequence, error) {
	query := fmt.Sprintf(sequenceQuery, quoteIdentifier(in.database), quoteIdentifier(name))
	rows, err := in.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sequence := &schema.Sequence{Name: name}
	for rows.Next() {
		var start, minValue, maxValue int64
		var increment int
		var cyclic bool
		if err := rows.Scan(&start, &minValue, &maxValue, &increment, &cyclic); err != nil {
			return nil, err
		}
		sequence.StartValue = &start
		sequence.MinValue = &minValue
		sequence.MaxValue = &maxValue
		sequence.IncrementBy = &increment
		sequence.IsCyclic = &cyclic
	}

	return sequence, rows.Err()
}

// resolveTable matches the exact name first and falls back to a unique
// case-insensitive match. Ambiguous names resolve to nil.
func resolveTable(tables []*schema.Table, name string) *schema.Table {
	for _, t := range tables {
		if t.Name == name {
			return t
		}
	}

	var match *schema.Table
	for _, t := range tables {
		if equalFold(t.Name, name) {
			if match != nil {
				return nil
			}
			match = t
		}
	}
	return match
}

// findColumn matches the exact name first and falls back to a unique
// case-insensitive match.
func findColumn(table *schema.Table, name string) *schema.Column {
	if column := table.Column(name); column != nil {
		return column
	}
	return findColumnFold(table, name)
}

// findColumnFold returns the only column matching name ignoring case.
func findColumnFold(table *schema.Table, name string) *schema.Column {
	var match *schema.Column
	for _, c := range table.Columns {
		if equalFold(c.Name, name) {
			if match != nil {
				return nil
			}
			match = c
		}
	}
	return match
}

func sortedColumnNames(columns []*schema.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}

func anyPositive(values []int) bool {
	for _, v := range values {
		if v > 0 {
			return true
		}
	}
	return false
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
