package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tordrt/xgscaffold/internal/schema"
)

// MultiFileFormatter writes schema to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text", "markdown" or "yaml"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the schema to multiple files
func (f *MultiFileFormatter) Format(db *schema.DatabaseModel) error {
	switch f.OutputFormat {
	case FormatText, FormatMarkdown, FormatYAML:
	default:
		return fmt.Errorf("format %q cannot be split into multiple files", f.OutputFormat)
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeFile("_overview", func(w io.Writer) error { return f.writeOverview(w, db) }); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range db.Tables {
		err := f.writeFile(table.Name, func(w io.Writer) error { return f.writeTable(w, db, table) })
		if err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeFile(name string, write func(io.Writer) error) error {
	filename := filepath.Join(f.OutputDir, name+f.fileExtension())

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (f *MultiFileFormatter) writeTable(w io.Writer, db *schema.DatabaseModel, table *schema.Table) error {
	switch f.OutputFormat {
	case FormatMarkdown:
		writeMarkdownTable(w, db, table, true)
	case FormatYAML:
		return encodeYAML(w, newYAMLTable(table))
	default:
		writeTextTable(w, db, table, true)
	}
	return nil
}

func (f *MultiFileFormatter) writeOverview(w io.Writer, db *schema.DatabaseModel) error {
	ext := f.fileExtension()
	tables := sortedTables(db)

	switch f.OutputFormat {
	case FormatMarkdown:
		_, _ = fmt.Fprintf(w, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
		_, _ = fmt.Fprintf(w, "## Tables\n\n")
		for _, table := range tables {
			_, _ = fmt.Fprintf(w, "- **%s**", table.Name)
			if targets := referencedTables(table); len(targets) > 0 {
				_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ", "))
			}
			_, _ = fmt.Fprintf(w, "\n")
		}
		if len(db.Sequences) > 0 {
			_, _ = fmt.Fprintf(w, "\n## Sequences\n\n")
			for _, sequence := range db.Sequences {
				_, _ = fmt.Fprintf(w, "- **%s**\n", sequence.Name)
			}
		}
		return nil

	case FormatYAML:
		overview := yamlOverview{Database: db.DatabaseName}
		for _, table := range tables {
			overview.Tables = append(overview.Tables, yamlOverviewTable{
				Name:       table.Name,
				File:       table.Name + ext,
				References: referencedTables(table),
			})
		}
		for _, sequence := range db.Sequences {
			overview.Sequences = append(overview.Sequences, sequence.Name)
		}
		return encodeYAML(w, overview)

	default:
		_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(w, "Each table has a file: <table_name>%s\n\n", ext)
		for _, table := range tables {
			_, _ = fmt.Fprintf(w, "%s", table.Name)
			if targets := referencedTables(table); len(targets) > 0 {
				_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ","))
			}
			_, _ = fmt.Fprintf(w, "\n")
		}
		for _, sequence := range db.Sequences {
			_, _ = fmt.Fprintf(w, "SEQUENCE %s\n", sequence.Name)
		}
		return nil
	}
}

type yamlOverview struct {
	Database  string              `yaml:"database,omitempty"`
	Tables    []yamlOverviewTable `yaml:"tables"`
	Sequences []string            `yaml:"sequences,omitempty,flow"`
}

type yamlOverviewTable struct {
	Name       string   `yaml:"name"`
	File       string   `yaml:"file"`
	References []string `yaml:"references,omitempty,flow"`
}

// referencedTables lists the distinct principal tables of table's foreign
// keys in declaration order.
func referencedTables(table *schema.Table) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, fk := range table.ForeignKeys {
		if !seen[fk.PrincipalTable.Name] {
			seen[fk.PrincipalTable.Name] = true
			targets = append(targets, fk.PrincipalTable.Name)
		}
	}
	return targets
}

func (f *MultiFileFormatter) fileExtension() string {
	switch f.OutputFormat {
	case FormatMarkdown:
		return ".md"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}
