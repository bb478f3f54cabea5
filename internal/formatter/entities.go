package formatter

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/xgscaffold/internal/scaffold"
	"github.com/tordrt/xgscaffold/internal/schema"
	"github.com/tordrt/xgscaffold/metadata"
)

// EntityFormatter scaffolds the schema into an entity model and writes it
// as compact text
type EntityFormatter struct {
	writer     io.Writer
	scaffolder *scaffold.Scaffolder
}

// NewEntityFormatter creates a new entity formatter
func NewEntityFormatter(w io.Writer, logger *zap.Logger) *EntityFormatter {
	return &EntityFormatter{writer: w, scaffolder: scaffold.New(logger)}
}

// Format writes one block per entity type, ordered by name
func (f *EntityFormatter) Format(db *schema.DatabaseModel) error {
	model, err := f.scaffolder.Scaffold(db)
	if err != nil {
		return fmt.Errorf("failed to scaffold entity model: %w", err)
	}

	for i, entity := range model.EntityTypes() {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		writeEntity(f.writer, entity)
	}
	return nil
}

func writeEntity(w io.Writer, entity *metadata.EntityType) {
	_, _ = fmt.Fprintf(w, "ENTITY %s (TABLE %s)\n", entity.Name(), entity.StringAnnotation(scaffold.TableName))

	for _, property := range entity.Properties() {
		parts := []string{property.Name() + ":", property.GoType().String()}
		if property.IsPrimaryKey() {
			parts = append(parts, "PK")
		} else if property.IsKey() {
			parts = append(parts, "AK")
		}
		if property.IsForeignKey() {
			parts = append(parts, "FK")
		}
		if property.IsNullable() {
			parts = append(parts, "NULL")
		}
		if vg := property.ValueGenerated(); vg != metadata.Never {
			parts = append(parts, "GENERATED "+vg.String())
		}
		if property.IsConcurrencyToken() {
			parts = append(parts, "CONCURRENCY")
		}
		_, _ = fmt.Fprintf(w, "  %s\n", strings.Join(parts, " "))
	}

	if navigations := entity.Navigations(); len(navigations) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  NAVIGATIONS:")
		for _, n := range navigations {
			target := n.TargetType().Name()
			if n.IsCollection() {
				target = "[]" + target
			}
			line := fmt.Sprintf("    %s → %s", n.Name(), target)
			if n.PointsToPrincipal() {
				line += fmt.Sprintf(" (ON DELETE %s)", n.ForeignKey().DeleteBehavior())
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}
}
