// Package scaffold reverse-engineers a structural schema.DatabaseModel into
// a conceptual metadata.Model: one shadow entity type per table, with keys,
// indexes, foreign keys and navigations in both directions.
package scaffold

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/tordrt/xgscaffold/internal/logging"
	"github.com/tordrt/xgscaffold/internal/schema"
	"github.com/tordrt/xgscaffold/metadata"
)

// Annotation names that carry the store mapping onto the entity model.
const (
	TableName         = "Relational:TableName"
	ColumnName        = "Relational:ColumnName"
	ColumnType        = "Relational:ColumnType"
	DefaultValueSQL   = "Relational:DefaultValueSql"
	ComputedColumnSQL = "Relational:ComputedColumnSql"
	IsStored          = "Relational:IsStored"
	Comment           = "Relational:Comment"
	Name              = "Relational:Name"
)

var (
	storeTypePattern = regexp.MustCompile(`(?i)^\s*([a-z0-9]+)\s*(?:\(\s*(\d+)\s*\))?`)
	idSuffixPattern  = regexp.MustCompile(`^(.+?)(?:Id|ID)$`)
)

// Scaffolder converts database models into entity models.
type Scaffolder struct {
	logger *zap.Logger
}

// New returns a Scaffolder. A nil logger discards output.
func New(logger *zap.Logger) *Scaffolder {
	return &Scaffolder{logger: logging.OrNop(logger)}
}

// Scaffold builds the entity model for db. Views are skipped because they
// have no key. Indexes and foreign keys the entity model rejects are
// logged and left out.
func (s *Scaffolder) Scaffold(db *schema.DatabaseModel) (*metadata.Model, error) {
	b := &builder{
		logger:     s.logger,
		model:      metadata.NewModel(),
		entities:   make(map[*schema.Table]*metadata.EntityType),
		properties: make(map[*schema.Column]*metadata.Property),
	}

	if db.Collation != "" {
		b.model.SetAnnotation(schema.Collation, db.Collation)
	}
	if charset := db.CharSet(); charset != "" {
		b.model.SetAnnotation(schema.CharSet, charset)
	}

	usedNames := make(map[string]bool)
	for _, table := range db.Tables {
		if table.IsView {
			s.logger.Info("skipping view without key", zap.String("table", table.Name))
			continue
		}
		if err := b.addEntityType(table, usedNames); err != nil {
			return nil, err
		}
	}

	for _, table := range db.Tables {
		if entity, ok := b.entities[table]; ok {
			b.addIndexes(table, entity)
		}
	}
	for _, table := range db.Tables {
		if entity, ok := b.entities[table]; ok {
			b.addForeignKeys(table, entity)
		}
	}
	for _, table := range db.Tables {
		if entity, ok := b.entities[table]; ok {
			if err := b.addNavigations(entity); err != nil {
				return nil, err
			}
		}
	}

	return b.model, nil
}

type builder struct {
	logger     *zap.Logger
	model      *metadata.Model
	entities   map[*schema.Table]*metadata.EntityType
	properties map[*schema.Column]*metadata.Property
}

func (b *builder) addEntityType(table *schema.Table, usedNames map[string]bool) error {
	name := uniqueName(EntityName(table.Name), func(n string) bool { return usedNames[n] })
	usedNames[name] = true

	entity, err := b.model.AddEntityType(name)
	if err != nil {
		return fmt.Errorf("failed to add entity type for %s: %w", table.Name, err)
	}
	entity.SetAnnotation(TableName, table.Name)
	copyAnnotation(entity, &table.Annotations, schema.CharSet)
	copyAnnotation(entity, &table.Annotations, schema.Collation)
	if table.Comment != "" {
		entity.SetAnnotation(Comment, table.Comment)
	}
	b.entities[table] = entity

	for _, column := range table.Columns {
		if err := b.addProperty(entity, column); err != nil {
			return fmt.Errorf("failed to add property for %s.%s: %w", table.Name, column.Name, err)
		}
	}

	if pk := table.PrimaryKey; pk != nil {
		key, err := entity.SetPrimaryKey(b.propertiesOf(pk.Columns)...)
		if err != nil {
			return fmt.Errorf("failed to set primary key of %s: %w", table.Name, err)
		}
		key.SetAnnotation(Name, pk.Name)
		copyAnnotation(key, &pk.Annotations, schema.IndexPrefixLength)
	}
	return nil
}

func (b *builder) addProperty(entity *metadata.EntityType, column *schema.Column) error {
	name := uniqueName(PropertyName(column.Name), func(n string) bool {
		return n == entity.Name() || entity.FindProperty(n) != nil
	})

	property, err := entity.AddProperty(name, GoType(column))
	if err != nil {
		return err
	}
	b.properties[column] = property

	if !column.IsNullable {
		if err := property.SetIsNullable(false); err != nil {
			return err
		}
	}

	switch {
	case column.IsComputed():
		property.SetValueGenerated(metadata.OnAddOrUpdate)
		property.SetStoreGeneratedAlways(true)
		property.SetAnnotation(ComputedColumnSQL, *column.ComputedColumnSQL)
		if column.IsStored != nil {
			property.SetAnnotation(IsStored, *column.IsStored)
		}
	case column.ValueGenerated != nil:
		property.SetValueGenerated(*column.ValueGenerated)
	}

	if column.ValueGenerated != nil && *column.ValueGenerated == metadata.OnAddOrUpdate &&
		baseType(column.StoreType) == "timestamp" {
		property.SetIsConcurrencyToken(true)
	}

	property.SetAnnotation(ColumnName, column.Name)
	property.SetAnnotation(ColumnType, column.StoreType)
	if column.DefaultValueSQL != nil {
		property.SetAnnotation(DefaultValueSQL, *column.DefaultValueSQL)
	}
	if column.Comment != "" {
		property.SetAnnotation(Comment, column.Comment)
	}
	copyAnnotation(property, &column.Annotations, schema.CharSet)
	copyAnnotation(property, &column.Annotations, schema.Collation)
	copyAnnotation(property, &column.Annotations, schema.SpatialReferenceSystemID)
	return nil
}

func (b *builder) addIndexes(table *schema.Table, entity *metadata.EntityType) {
	for _, index := range table.Indexes {
		properties := b.propertiesOf(index.Columns)

		idx, err := entity.AddIndex(properties...)
		if err != nil {
			b.logger.Warn("unable to scaffold index",
				zap.String("table", table.Name), zap.String("index", index.Name), zap.Error(err))
			continue
		}
		idx.SetIsUnique(index.IsUnique)
		idx.SetAnnotation(Name, index.Name)
		for _, name := range []string{schema.IndexPrefixLength, schema.FullTextIndex, schema.FullTextParser, schema.SpatialIndex} {
			copyAnnotation(idx, &index.Annotations, name)
		}
	}
}

func (b *builder) addForeignKeys(table *schema.Table, entity *metadata.EntityType) {
	for _, fk := range table.ForeignKeys {
		principal, ok := b.entities[fk.PrincipalTable]
		if !ok {
			b.logger.Warn("unable to scaffold foreign key to a table without entity type",
				zap.String("table", table.Name),
				zap.String("foreignKey", fk.Name),
				zap.String("referencedTable", fk.PrincipalTable.Name))
			continue
		}

		principalProperties := b.propertiesOf(fk.PrincipalColumns)
		key, err := principalKey(principal, principalProperties)
		if err != nil {
			b.logger.Warn("unable to scaffold principal key",
				zap.String("table", table.Name), zap.String("foreignKey", fk.Name), zap.Error(err))
			continue
		}

		// Dependent properties follow the order of the principal key.
		dependents := make([]*metadata.Property, len(key.Properties()))
		for i, keyProperty := range key.Properties() {
			for j, p := range principalProperties {
				if p == keyProperty {
					dependents[i] = b.properties[fk.Columns[j]]
				}
			}
		}

		foreignKey, err := entity.AddForeignKey(dependents, key, principal)
		if err != nil {
			b.logger.Warn("unable to scaffold foreign key",
				zap.String("table", table.Name), zap.String("foreignKey", fk.Name), zap.Error(err))
			continue
		}
		foreignKey.SetAnnotation(Name, fk.Name)
		foreignKey.SetIsUnique(isUniqueOver(entity, dependents))
		foreignKey.SetDeleteBehavior(deleteBehavior(fk.OnDelete))
	}
}

// principalKey returns the primary key when it covers properties, or the
// alternate key over them, adding it if needed.
func principalKey(principal *metadata.EntityType, properties []*metadata.Property) (*metadata.Key, error) {
	if pk := principal.FindPrimaryKey(); pk != nil && metadata.SameProperties(pk.Properties(), properties) {
		return pk, nil
	}
	return principal.GetOrAddKey(properties...)
}

func isUniqueOver(entity *metadata.EntityType, properties []*metadata.Property) bool {
	if pk := entity.FindPrimaryKey(); pk != nil && metadata.SameProperties(pk.Properties(), properties) {
		return true
	}
	for _, idx := range entity.Indexes() {
		if idx.IsUnique() && metadata.SameProperties(idx.Properties(), properties) {
			return true
		}
	}
	return false
}

func deleteBehavior(action *schema.ReferentialAction) metadata.DeleteBehavior {
	if action == nil {
		return metadata.DeleteNoAction
	}
	switch *action {
	case schema.Cascade:
		return metadata.DeleteCascade
	case schema.SetNull:
		return metadata.DeleteSetNull
	case schema.Restrict:
		return metadata.DeleteRestrict
	default:
		return metadata.DeleteNoAction
	}
}

// addNavigations names both ends of every foreign key declared on entity.
// The dependent end is named after the foreign key property without its
// Id suffix, or after the principal. The principal end is named after the
// dependent, pluralized for collections.
func (b *builder) addNavigations(entity *metadata.EntityType) error {
	for _, fk := range entity.DeclaredForeignKeys() {
		principal := fk.PrincipalEntityType()

		toPrincipal := dependentToPrincipalName(fk)
		toPrincipal = uniqueName(toPrincipal, memberTaken(entity))
		if _, err := entity.AddNavigation(toPrincipal, fk, true); err != nil {
			return fmt.Errorf("failed to add navigation %s.%s: %w", entity.Name(), toPrincipal, err)
		}

		toDependent := entity.Name()
		if !fk.IsUnique() {
			toDependent = inflect.Pluralize(toDependent)
		}
		taken := memberTaken(principal)
		switch {
		case fk.IsSelfReferencing():
			toDependent = "Inverse" + toPrincipal
		case taken(toDependent):
			toDependent += toPrincipal
		}
		toDependent = uniqueName(toDependent, taken)
		if _, err := principal.AddNavigation(toDependent, fk, false); err != nil {
			return fmt.Errorf("failed to add navigation %s.%s: %w", principal.Name(), toDependent, err)
		}
	}
	return nil
}

func dependentToPrincipalName(fk *metadata.ForeignKey) string {
	if properties := fk.Properties(); len(properties) == 1 {
		if m := idSuffixPattern.FindStringSubmatch(properties[0].Name()); m != nil {
			return m[1]
		}
	}
	return fk.PrincipalEntityType().Name()
}

func memberTaken(entity *metadata.EntityType) func(string) bool {
	return func(name string) bool {
		return name == entity.Name() ||
			entity.FindProperty(name) != nil ||
			entity.FindNavigation(name) != nil
	}
}

// EntityName turns a table name into an entity type name, e.g.
// "order_items" into "OrderItem".
func EntityName(tableName string) string {
	name := inflect.Camelize(inflect.Singularize(tableName))
	if name == "" {
		return tableName
	}
	return name
}

// PropertyName turns a column name into a property name, e.g. "user_id"
// into "UserId".
func PropertyName(columnName string) string {
	name := inflect.Camelize(columnName)
	if name == "" {
		return columnName
	}
	return name
}

// uniqueName appends 1, 2, ... to name until taken reports false.
func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (b *builder) propertiesOf(columns []*schema.Column) []*metadata.Property {
	properties := make([]*metadata.Property, len(columns))
	for i, column := range columns {
		properties[i] = b.properties[column]
	}
	return properties
}

func copyAnnotation(to metadata.Annotatable, from *metadata.Annotations, name string) {
	if v, ok := from.Annotation(name); ok {
		to.SetAnnotation(name, v)
	}
}

func baseType(storeType string) string {
	m := storeTypePattern.FindStringSubmatch(storeType)
	if m == nil {
		return strings.ToLower(storeType)
	}
	return strings.ToLower(m[1])
}

var (
	nullableTypes = map[reflect.Type]reflect.Type{
		reflect.TypeFor[string]():    reflect.TypeFor[sql.NullString](),
		reflect.TypeFor[bool]():      reflect.TypeFor[sql.NullBool](),
		reflect.TypeFor[int16]():     reflect.TypeFor[sql.NullInt16](),
		reflect.TypeFor[int32]():     reflect.TypeFor[sql.NullInt32](),
		reflect.TypeFor[int64]():     reflect.TypeFor[sql.NullInt64](),
		reflect.TypeFor[float64]():   reflect.TypeFor[sql.NullFloat64](),
		reflect.TypeFor[time.Time](): reflect.TypeFor[sql.NullTime](),
		reflect.TypeFor[uint8]():     reflect.TypeFor[sql.NullByte](),
	}
)

// GoType maps a column to the Go type of its property. Nullable columns
// get the matching sql.Null* type, or a pointer where none exists.
func GoType(column *schema.Column) reflect.Type {
	t := storeGoType(column.StoreType)
	if !column.IsNullable || t.Kind() == reflect.Slice {
		return t
	}
	if nullable, ok := nullableTypes[t]; ok {
		return nullable
	}
	return reflect.PointerTo(t)
}

func storeGoType(storeType string) reflect.Type {
	lower := strings.ToLower(storeType)
	unsigned := strings.Contains(lower, "unsigned")

	m := storeTypePattern.FindStringSubmatch(lower)
	base, length := "", ""
	if m != nil {
		base, length = m[1], m[2]
	}

	switch base {
	case "bit":
		if length == "" || length == "1" {
			return reflect.TypeFor[bool]()
		}
		return reflect.TypeFor[uint64]()
	case "tinyint":
		switch {
		case length == "1":
			return reflect.TypeFor[bool]()
		case unsigned:
			return reflect.TypeFor[uint8]()
		}
		return reflect.TypeFor[int8]()
	case "smallint", "year":
		if unsigned {
			return reflect.TypeFor[uint16]()
		}
		return reflect.TypeFor[int16]()
	case "mediumint", "int", "integer":
		if unsigned {
			return reflect.TypeFor[uint32]()
		}
		return reflect.TypeFor[int32]()
	case "bigint":
		if unsigned {
			return reflect.TypeFor[uint64]()
		}
		return reflect.TypeFor[int64]()
	case "float":
		return reflect.TypeFor[float32]()
	case "double", "real":
		return reflect.TypeFor[float64]()
	case "date", "datetime", "timestamp":
		return reflect.TypeFor[time.Time]()
	case "time":
		return reflect.TypeFor[time.Duration]()
	case "json":
		return reflect.TypeFor[json.RawMessage]()
	case "binary":
		if length == "16" {
			return reflect.TypeFor[[16]byte]()
		}
		return reflect.TypeFor[[]byte]()
	case "varbinary", "tinyblob", "blob", "mediumblob", "longblob",
		"geometry", "point", "linestring", "polygon",
		"multipoint", "multilinestring", "multipolygon", "geometrycollection":
		return reflect.TypeFor[[]byte]()
	default:
		// char, varchar, text variants, enum, set and decimal, which keeps
		// its precision as a string.
		return reflect.TypeFor[string]()
	}
}
