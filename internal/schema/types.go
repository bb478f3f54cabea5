package schema

import (
	"github.com/tordrt/xgscaffold/metadata"
)

// Annotation names used on the structural model.
const (
	CharSet                  = "XG:CharSet"
	Collation                = "Relational:Collation"
	SpatialReferenceSystemID = "XG:SpatialReferenceSystemId"
	IndexPrefixLength        = "XG:IndexPrefixLength"
	SpatialIndex             = "XG:SpatialIndex"
	FullTextIndex            = "XG:FullTextIndex"
	FullTextParser           = "XG:FullTextParser"
)

// DatabaseModel represents a complete introspected database
type DatabaseModel struct {
	metadata.Annotations

	DatabaseName  string
	DefaultSchema string
	Collation     string
	Tables        []*Table
	Sequences     []*Sequence
}

// CharSet returns the default character set, or "" when not scaffolded
func (m *DatabaseModel) CharSet() string {
	return m.StringAnnotation(CharSet)
}

// FindTable returns the table or view with exactly the given name
func (m *DatabaseModel) FindTable(name string) *Table {
	for _, t := range m.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Table represents a database table or view
type Table struct {
	metadata.Annotations

	Database    *DatabaseModel
	Schema      string
	Name        string
	Comment     string
	IsView      bool
	Columns     []*Column
	PrimaryKey  *PrimaryKey
	Indexes     []*Index
	ForeignKeys []*ForeignKey
}

// Column returns the column with exactly the given name
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (t *Table) CharSet() string   { return t.StringAnnotation(CharSet) }
func (t *Table) Collation() string { return t.StringAnnotation(Collation) }

// Column represents a table column
type Column struct {
	metadata.Annotations

	Table             *Table
	Name              string
	StoreType         string
	DataType          string
	IsNullable        bool
	DefaultValueSQL   *string
	ComputedColumnSQL *string
	IsStored          *bool
	ValueGenerated    *metadata.ValueGenerated
	Comment           string
	EnumValues        []string
}

func (c *Column) CharSet() string   { return c.StringAnnotation(CharSet) }
func (c *Column) Collation() string { return c.StringAnnotation(Collation) }

// SRID returns the spatial reference system restriction, if any
func (c *Column) SRID() (int, bool) {
	v, ok := c.Annotation(SpatialReferenceSystemID)
	if !ok {
		return 0, false
	}
	srid, ok := v.(int)
	return srid, ok
}

// IsComputed reports whether the column is a generated column
func (c *Column) IsComputed() bool { return c.ComputedColumnSQL != nil }

// PrimaryKey represents a table's primary key
type PrimaryKey struct {
	metadata.Annotations

	Table   *Table
	Name    string
	Columns []*Column
}

// PrefixLengths returns the per-column prefix lengths, or nil
func (k *PrimaryKey) PrefixLengths() []int {
	return prefixLengths(&k.Annotations)
}

// Index represents a database index
type Index struct {
	metadata.Annotations

	Table        *Table
	Name         string
	Columns      []*Column
	IsUnique     bool
	IsDescending []bool
}

// PrefixLengths returns the per-column prefix lengths, or nil
func (i *Index) PrefixLengths() []int {
	return prefixLengths(&i.Annotations)
}

func (i *Index) IsSpatial() bool  { return i.BoolAnnotation(SpatialIndex) }
func (i *Index) IsFullText() bool { return i.BoolAnnotation(FullTextIndex) }

// Parser returns the fulltext parser, or "" when the server default applies
func (i *Index) Parser() string { return i.StringAnnotation(FullTextParser) }

func prefixLengths(a *metadata.Annotations) []int {
	v, _ := a.Annotation(IndexPrefixLength)
	lengths, _ := v.([]int)
	return lengths
}

// ForeignKey represents a foreign key relationship
type ForeignKey struct {
	metadata.Annotations

	Table            *Table
	Name             string
	Columns          []*Column
	PrincipalTable   *Table
	PrincipalColumns []*Column
	OnDelete         *ReferentialAction
}

// ReferentialAction is the action taken on delete of the principal row
type ReferentialAction int

const (
	NoAction ReferentialAction = iota
	Restrict
	Cascade
	SetNull
	SetDefault
)

func (a ReferentialAction) String() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}

// Sequence represents a MariaDB sequence
type Sequence struct {
	metadata.Annotations

	Database    *DatabaseModel
	Schema      string
	Name        string
	StartValue  *int64
	MinValue    *int64
	MaxValue    *int64
	IncrementBy *int
	IsCyclic    *bool
}
