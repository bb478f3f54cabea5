package formatter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/xgscaffold/internal/schema"
	"github.com/tordrt/xgscaffold/metadata"
)

// YAMLFormatter formats schema as a yaml document
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new yaml formatter
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

type yamlDatabase struct {
	Database  string         `yaml:"database,omitempty"`
	CharSet   string         `yaml:"charset,omitempty"`
	Collation string         `yaml:"collation,omitempty"`
	Tables    []yamlTable    `yaml:"tables"`
	Sequences []yamlSequence `yaml:"sequences,omitempty"`
}

type yamlTable struct {
	Name        string               `yaml:"name"`
	View        bool                 `yaml:"view,omitempty"`
	Comment     string               `yaml:"comment,omitempty"`
	PrimaryKey  []string             `yaml:"primaryKey,omitempty,flow"`
	Columns     []yamlColumn         `yaml:"columns"`
	Indexes     []yamlIndex          `yaml:"indexes,omitempty"`
	ForeignKeys []yamlForeignKey     `yaml:"foreignKeys,omitempty"`
	Annotations metadata.Annotations `yaml:"annotations,omitempty"`
}

type yamlColumn struct {
	Name           string               `yaml:"name"`
	Type           string               `yaml:"type"`
	Nullable       bool                 `yaml:"nullable"`
	Default        *string              `yaml:"default,omitempty"`
	Computed       *string              `yaml:"computed,omitempty"`
	Stored         *bool                `yaml:"stored,omitempty"`
	ValueGenerated string               `yaml:"valueGenerated,omitempty"`
	Comment        string               `yaml:"comment,omitempty"`
	EnumValues     []string             `yaml:"enum,omitempty,flow"`
	Annotations    metadata.Annotations `yaml:"annotations,omitempty"`
}

type yamlIndex struct {
	Name        string               `yaml:"name"`
	Columns     []string             `yaml:"columns,flow"`
	Unique      bool                 `yaml:"unique,omitempty"`
	Annotations metadata.Annotations `yaml:"annotations,omitempty"`
}

type yamlForeignKey struct {
	Name             string   `yaml:"name"`
	Columns          []string `yaml:"columns,flow"`
	PrincipalTable   string   `yaml:"principalTable"`
	PrincipalColumns []string `yaml:"principalColumns,flow"`
	OnDelete         string   `yaml:"onDelete,omitempty"`
	Cardinality      string   `yaml:"cardinality"`
}

type yamlSequence struct {
	Name        string `yaml:"name"`
	StartValue  *int64 `yaml:"start,omitempty"`
	IncrementBy *int   `yaml:"increment,omitempty"`
	MinValue    *int64 `yaml:"min,omitempty"`
	MaxValue    *int64 `yaml:"max,omitempty"`
	IsCyclic    *bool  `yaml:"cyclic,omitempty"`
}

// Format writes the schema as a single yaml document
func (f *YAMLFormatter) Format(db *schema.DatabaseModel) error {
	doc := yamlDatabase{
		Database:  db.DatabaseName,
		CharSet:   db.CharSet(),
		Collation: db.Collation,
		Tables:    make([]yamlTable, 0, len(db.Tables)),
	}
	for _, table := range db.Tables {
		doc.Tables = append(doc.Tables, newYAMLTable(table))
	}
	for _, sequence := range db.Sequences {
		doc.Sequences = append(doc.Sequences, yamlSequence{
			Name:        sequence.Name,
			StartValue:  sequence.StartValue,
			IncrementBy: sequence.IncrementBy,
			MinValue:    sequence.MinValue,
			MaxValue:    sequence.MaxValue,
			IsCyclic:    sequence.IsCyclic,
		})
	}
	return encodeYAML(f.writer, doc)
}

func encodeYAML(w io.Writer, doc any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return encoder.Close()
}

func newYAMLTable(table *schema.Table) yamlTable {
	t := yamlTable{
		Name:        table.Name,
		View:        table.IsView,
		Comment:     table.Comment,
		PrimaryKey:  primaryKeyNames(table),
		Columns:     make([]yamlColumn, 0, len(table.Columns)),
		Annotations: table.Annotations,
	}

	for _, column := range table.Columns {
		c := yamlColumn{
			Name:        column.Name,
			Type:        column.StoreType,
			Nullable:    column.IsNullable,
			Default:     column.DefaultValueSQL,
			Computed:    column.ComputedColumnSQL,
			Stored:      column.IsStored,
			Comment:     column.Comment,
			EnumValues:  column.EnumValues,
			Annotations: column.Annotations,
		}
		if column.ValueGenerated != nil {
			c.ValueGenerated = column.ValueGenerated.String()
		}
		t.Columns = append(t.Columns, c)
	}

	for _, index := range table.Indexes {
		t.Indexes = append(t.Indexes, yamlIndex{
			Name:        index.Name,
			Columns:     indexColumns(index),
			Unique:      index.IsUnique,
			Annotations: index.Annotations,
		})
	}

	for _, rel := range relationsOf(table) {
		fk := yamlForeignKey{
			Name:             rel.Name,
			Columns:          rel.SourceColumns,
			PrincipalTable:   rel.TargetTable,
			PrincipalColumns: rel.TargetColumns,
			Cardinality:      rel.Cardinality,
		}
		if rel.OnDelete != nil {
			fk.OnDelete = rel.OnDelete.String()
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
	return t
}
